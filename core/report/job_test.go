package report_test

import (
	"context"
	"testing"
	"time"

	"github.com/abdulmaxwell/zetech-smart-attend/core"
	"github.com/abdulmaxwell/zetech-smart-attend/core/attendance"
	"github.com/abdulmaxwell/zetech-smart-attend/core/report"
	"github.com/abdulmaxwell/zetech-smart-attend/core/school"
	dummymail "github.com/abdulmaxwell/zetech-smart-attend/services/email/dummy"
	dummydb "github.com/abdulmaxwell/zetech-smart-attend/storage/database/dummy"
)

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

var testConf = core.AttendanceConfig{
	GracePeriod:       10 * time.Minute,
	MinAbsenceWords:   300,
	ReportConcurrency: 4,
	StorageTimeout:    5 * time.Second,
	WeekStartDay:      time.Monday,
}

func TestService_WeekWindow(t *testing.T) {
	svc := report.NewService(nil, nil, nil, nil, testConf, nopLogger{})

	wantStart := time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC) // a Monday
	wantEnd := wantStart.AddDate(0, 0, 7).Add(-time.Nanosecond)

	tests := []struct {
		name string
		now  time.Time
	}{
		{name: "mid-week", now: time.Date(2026, time.January, 8, 12, 0, 0, 0, time.UTC)},
		{name: "on the boundary", now: wantStart},
		{name: "last instant of the week", now: time.Date(2026, time.January, 11, 23, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := svc.WeekWindow(tt.now)
			if !start.Equal(wantStart) || !end.Equal(wantEnd) {
				t.Errorf("WeekWindow(%v) = (%v, %v), want (%v, %v)", tt.now, start, end, wantStart, wantEnd)
			}
		})
	}

	t.Run("sunday-start weeks", func(t *testing.T) {
		conf := testConf
		conf.WeekStartDay = time.Sunday
		svc := report.NewService(nil, nil, nil, nil, conf, nopLogger{})

		start, _ := svc.WeekWindow(time.Date(2026, time.January, 8, 12, 0, 0, 0, time.UTC))
		if want := time.Date(2026, time.January, 4, 0, 0, 0, 0, time.UTC); !start.Equal(want) {
			t.Errorf("WeekWindow() start = %v, want %v", start, want)
		}
	})
}

type fixtures struct {
	svc        *report.Service
	schoolRepo *dummydb.SchoolRepository
	attRepo    *dummydb.AttendanceRepository
	repRepo    *dummydb.ReportRepository
	mailSvc    *dummymail.Service
}

func setup(t *testing.T) fixtures {
	t.Helper()

	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open(): %v", err)
	}
	fx := fixtures{
		schoolRepo: dummydb.NewSchoolRepository(db),
		attRepo:    dummydb.NewAttendanceRepository(db),
		repRepo:    dummydb.NewReportRepository(db),
		mailSvc:    dummymail.NewService(),
	}
	fx.svc = report.NewService(
		fx.repRepo, fx.schoolRepo, fx.attRepo,
		report.NewMailer(fx.mailSvc), testConf, nopLogger{})
	return fx
}

// seedStudent enrolls a student in a Mon-Fri 09:00-10:00 class and records
// attendance on the first `attended` weekdays of the Jan 5 2026 week.
func seedStudent(t *testing.T, fx fixtures, email, parentEmail string, attended int) school.Student {
	t.Helper()

	student := fx.schoolRepo.AddStudent(school.Student{
		FirstName:   "Wanjiru",
		LastName:    "Kamau",
		Email:       email,
		ParentEmail: parentEmail,
	})
	class := fx.schoolRepo.AddClass(school.Class{
		Name: "Operating Systems",
		Code: "CS-302",
		Schedule: school.Schedule{
			{Day: time.Monday, Start: 9 * 60, End: 10 * 60},
			{Day: time.Tuesday, Start: 9 * 60, End: 10 * 60},
			{Day: time.Wednesday, Start: 9 * 60, End: 10 * 60},
			{Day: time.Thursday, Start: 9 * 60, End: 10 * 60},
			{Day: time.Friday, Start: 9 * 60, End: 10 * 60},
		},
	})
	fx.schoolRepo.Enroll(student.ID, class.ID)

	for i := 0; i < attended; i++ {
		sessionStart := time.Date(2026, time.January, 5+i, 9, 0, 0, 0, time.UTC)
		_, created, err := fx.attRepo.CreateRecordIfAbsent(context.Background(), attendance.Record{
			StudentID:    student.ID,
			ClassID:      class.ID,
			Timestamp:    sessionStart.Add(5 * time.Minute),
			SessionStart: sessionStart,
			Method:       attendance.MethodProximity,
		})
		if err != nil || !created {
			t.Fatalf("seeding record %d: created=%v err=%v", i, created, err)
		}
	}
	return student
}

func TestService_Run(t *testing.T) {
	now := time.Date(2026, time.January, 8, 12, 0, 0, 0, time.UTC)

	t.Run("three of five sessions", func(t *testing.T) {
		fx := setup(t)
		student := seedStudent(t, fx, "wanjiru@test.test", "parent@test.test", 3)

		summary, err := fx.svc.Run(context.Background(), now)
		if err != nil {
			t.Fatalf("Run(): %v", err)
		}
		if summary.Succeeded != 1 || summary.Failed != 0 {
			t.Fatalf("summary = %+v, want 1 succeeded", summary)
		}

		rep, err := fx.repRepo.GetReport(context.Background(), student.ID, summary.WeekStart)
		if err != nil {
			t.Fatalf("GetReport(): %v", err)
		}
		if rep.TotalSessions != 5 || rep.AttendedSessions != 3 {
			t.Errorf("report sessions = %d/%d, want 3/5", rep.AttendedSessions, rep.TotalSessions)
		}
		if rep.AttendancePercentage != 60.00 {
			t.Errorf("report percentage = %v, want 60.00", rep.AttendancePercentage)
		}
		if rep.Insight != report.InsightBelow {
			t.Errorf("report insight = %q, want %q", rep.Insight, report.InsightBelow)
		}
		if rep.Content.StudentName != student.FullName() || len(rep.Content.Records) != 3 {
			t.Errorf("report content = %+v, want snapshot with 3 records", rep.Content)
		}
		if rep.DeliveredAt == nil {
			t.Error("report not marked delivered")
		}

		sent := fx.mailSvc.SentMessages()
		if len(sent) != 1 {
			t.Fatalf("sent %d emails, want 1", len(sent))
		}
		msg := sent[0]
		if len(msg.To) != 1 || msg.To[0].Address != student.Email {
			t.Errorf("email to = %v, want %s", msg.To, student.Email)
		}
		if len(msg.Cc) != 1 || msg.Cc[0].Address != student.ParentEmail {
			t.Errorf("email cc = %v, want parent %s", msg.Cc, student.ParentEmail)
		}
	})

	t.Run("rerun upserts instead of duplicating", func(t *testing.T) {
		fx := setup(t)
		seedStudent(t, fx, "wanjiru@test.test", "", 3)

		for i := 0; i < 2; i++ {
			summary, err := fx.svc.Run(context.Background(), now)
			if err != nil {
				t.Fatalf("Run() #%d: %v", i+1, err)
			}
			if summary.Succeeded != 1 {
				t.Fatalf("Run() #%d summary = %+v, want 1 succeeded", i+1, summary)
			}
		}
		if n := fx.repRepo.Count(); n != 1 {
			t.Errorf("stored %d reports after rerun, want 1", n)
		}
	})

	t.Run("undeliverable report is kept, not stamped", func(t *testing.T) {
		fx := setup(t)
		student := seedStudent(t, fx, "", "", 3) // no email on file

		summary, err := fx.svc.Run(context.Background(), now)
		if err != nil {
			t.Fatalf("Run(): %v", err)
		}
		if summary.Succeeded != 1 || summary.Failed != 0 {
			t.Fatalf("summary = %+v, want 1 succeeded", summary)
		}

		rep, err := fx.repRepo.GetReport(context.Background(), student.ID, summary.WeekStart)
		if err != nil {
			t.Fatalf("GetReport(): %v", err)
		}
		if rep.DeliveredAt != nil {
			t.Errorf("report marked delivered at %v despite no send", rep.DeliveredAt)
		}
		if sent := fx.mailSvc.SentMessages(); len(sent) != 0 {
			t.Errorf("sent %d emails, want 0", len(sent))
		}
	})

	t.Run("no scheduled sessions is a quiet week", func(t *testing.T) {
		fx := setup(t)
		student := fx.schoolRepo.AddStudent(school.Student{
			FirstName: "Njeri",
			LastName:  "Otieno",
			Email:     "njeri@test.test",
		})

		summary, err := fx.svc.Run(context.Background(), now)
		if err != nil {
			t.Fatalf("Run(): %v", err)
		}
		rep, err := fx.repRepo.GetReport(context.Background(), student.ID, summary.WeekStart)
		if err != nil {
			t.Fatalf("GetReport(): %v", err)
		}
		if rep.TotalSessions != 0 || rep.AttendancePercentage != 0 {
			t.Errorf("report = %d sessions at %v%%, want an empty week", rep.TotalSessions, rep.AttendancePercentage)
		}
		if rep.Insight != report.InsightCritical {
			t.Errorf("report insight = %q, want %q", rep.Insight, report.InsightCritical)
		}
	})

	t.Run("cancelled context starts no new units", func(t *testing.T) {
		fx := setup(t)
		seedStudent(t, fx, "wanjiru@test.test", "", 3)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		summary, err := fx.svc.Run(ctx, now)
		if err != nil {
			t.Fatalf("Run(): %v", err)
		}
		if summary.Succeeded != 0 || summary.Failed != 0 {
			t.Errorf("summary = %+v, want nothing processed", summary)
		}
		if n := fx.repRepo.Count(); n != 0 {
			t.Errorf("stored %d reports under cancelled ctx, want 0", n)
		}
	})
}
