package main

import (
	"log"
	"os"

	"github.com/abdulmaxwell/zetech-smart-attend/core"
	"github.com/abdulmaxwell/zetech-smart-attend/core/report"
	emailsvc "github.com/abdulmaxwell/zetech-smart-attend/services/email"
	logsvc "github.com/abdulmaxwell/zetech-smart-attend/services/logger"
	"github.com/abdulmaxwell/zetech-smart-attend/storage/database"
	sqlxrepos "github.com/abdulmaxwell/zetech-smart-attend/storage/database/sqlx"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	conf := core.NewConfig()
	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	appLogger := logsvc.NewStdLogger(logger)

	// set up DB
	db, err := database.Open(conf)
	errAndDie(err)
	defer db.Close()
	errAndDie(db.Ping())

	schoolRepo := sqlxrepos.NewSchoolRepository(db)
	attRepo := sqlxrepos.NewAttendanceRepository(db)
	repRepo := sqlxrepos.NewReportRepository(db)
	mailer := report.NewMailer(emailsvc.NewConsoleService(appLogger))

	// start CLI
	cli := commandLine{
		db:     db.DB,
		repSvc: report.NewService(repRepo, schoolRepo, attRepo, mailer, conf.Attendance, appLogger),
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
