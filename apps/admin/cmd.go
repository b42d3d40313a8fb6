package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/abdulmaxwell/zetech-smart-attend/core/report"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	db     *sql.DB
	repSvc *report.Service
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate up|down|status [ARGS] - run database migrations")
	fmt.Println("  runreports [-at TIMESTAMP] - generate weekly attendance reports")
	fmt.Println("  mktoken -subject ID [-name NAME] [-email EMAIL] [-role student|teacher|admin] - mint an API token")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	runReportsCmd := flag.NewFlagSet("runreports", flag.ExitOnError)
	runReportsAt := runReportsCmd.String("at", "", "Generate reports for the week containing this RFC3339 instant. Defaults to now.")

	mkTokenCmd := flag.NewFlagSet("mktoken", flag.ExitOnError)
	mkTokenSubject := mkTokenCmd.String("subject", "", "The student or staff ID the token authenticates.")
	mkTokenName := mkTokenCmd.String("name", "", "Display name embedded in the token.")
	mkTokenEmail := mkTokenCmd.String("email", "", "Email embedded in the token.")
	mkTokenRole := mkTokenCmd.String("role", "student", "One of: student, teacher, admin.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "runreports":
		if err := runReportsCmd.Parse(args[2:]); err != nil {
			return err
		}
		at := time.Now().UTC()
		if *runReportsAt != "" {
			t, err := time.Parse(time.RFC3339, *runReportsAt)
			if err != nil {
				return fmt.Errorf("invalid -at: %v", err)
			}
			at = t.UTC()
		}
		return cli.runReports(at)
	case "mktoken":
		if err := mkTokenCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *mkTokenSubject == "" {
			mkTokenCmd.Usage()
			return errHelp
		}
		return cli.mkToken(*mkTokenSubject, *mkTokenName, *mkTokenEmail, *mkTokenRole)
	default:
		cli.printUsage()
		return errHelp
	}
}
