package attendance_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/abdulmaxwell/zetech-smart-attend/core"
	"github.com/abdulmaxwell/zetech-smart-attend/core/attendance"
	"github.com/abdulmaxwell/zetech-smart-attend/core/school"
	dummydb "github.com/abdulmaxwell/zetech-smart-attend/storage/database/dummy"
)

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

const (
	beaconUUID = "f7826da6-4fa2-4e98-8024-bc5b71e0893e"
	grace      = 10 * time.Minute
)

type fixtures struct {
	svc     *attendance.Service
	student school.Student
	class   school.Class
	beacon  attendance.Beacon
}

// setup seeds a Monday 09:00-10:30 class with an active beacon at -70 dBm
// and one enrolled student.
func setup(t *testing.T) fixtures {
	t.Helper()

	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open(): %v", err)
	}
	schoolRepo := dummydb.NewSchoolRepository(db)
	attRepo := dummydb.NewAttendanceRepository(db)

	student := schoolRepo.AddStudent(school.Student{
		FirstName:       "Achieng",
		LastName:        "Odhiambo",
		Email:           "achieng@test.test",
		AdmissionNumber: "ZU-2023-0042",
	})
	class := schoolRepo.AddClass(school.Class{
		Name: "Distributed Systems",
		Code: "CS-401",
		Schedule: school.Schedule{
			{Day: time.Monday, Start: 9 * 60, End: 10*60 + 30, Room: "B12"},
		},
	})
	schoolRepo.Enroll(student.ID, class.ID)
	beacon := attRepo.AddBeacon(attendance.Beacon{
		UUID:            beaconUUID,
		ClassID:         class.ID,
		Location:        "Room B12",
		SignalThreshold: -70,
		IsActive:        true,
	})

	return fixtures{
		svc:     attendance.NewService(attRepo, schoolRepo, grace, nopLogger{}),
		student: student,
		class:   class,
		beacon:  beacon,
	}
}

// inSession is a Monday 09:05 instant, comfortably in the past.
var inSession = time.Date(2026, time.January, 5, 9, 5, 0, 0, time.UTC)

func reading(fx fixtures, rssi int, at time.Time) attendance.BeaconReading {
	return attendance.BeaconReading{
		BeaconID:       fx.beacon.UUID,
		StudentID:      fx.student.ID,
		SignalStrength: rssi,
		ObservedAt:     at,
	}
}

func TestService_Match(t *testing.T) {
	ctx := context.Background()

	t.Run("future timestamp rejected", func(t *testing.T) {
		fx := setup(t)
		_, _, err := fx.svc.Match(ctx, reading(fx, -50, time.Now().UTC().Add(time.Hour)))
		if _, ok := errors.Cause(err).(*core.ValidationError); !ok {
			t.Errorf("Match() error = %v, want ValidationError", err)
		}
	})

	t.Run("unknown beacon", func(t *testing.T) {
		fx := setup(t)
		r := reading(fx, -50, inSession)
		r.BeaconID = "deadbeef"
		if _, _, err := fx.svc.Match(ctx, r); errors.Cause(err) != attendance.ErrUnknownBeacon {
			t.Errorf("Match() error = %v, want ErrUnknownBeacon", err)
		}
	})

	t.Run("beacon uuid case is ignored", func(t *testing.T) {
		fx := setup(t)
		r := reading(fx, -50, inSession)
		r.BeaconID = strings.ToUpper(fx.beacon.UUID)
		_, created, err := fx.svc.Match(ctx, r)
		if err != nil {
			t.Fatalf("Match(): %v", err)
		}
		if !created {
			t.Error("Match() created = false, want true")
		}
	})

	t.Run("out-of-window reading discarded", func(t *testing.T) {
		fx := setup(t)
		_, created, err := fx.svc.Match(ctx, reading(fx, -50, inSession.Add(4*time.Hour)))
		if err != nil || created {
			t.Errorf("Match() = (created=%v, err=%v), want silent discard", created, err)
		}
	})

	t.Run("weak signal discarded", func(t *testing.T) {
		fx := setup(t)
		_, created, err := fx.svc.Match(ctx, reading(fx, -80, inSession))
		if err != nil || created {
			t.Errorf("Match() = (created=%v, err=%v), want silent discard", created, err)
		}
	})

	t.Run("signal at threshold counts", func(t *testing.T) {
		fx := setup(t)
		rec, created, err := fx.svc.Match(ctx, reading(fx, -70, inSession))
		if err != nil {
			t.Fatalf("Match(): %v", err)
		}
		if !created {
			t.Fatal("Match() created = false, want true")
		}
		if rec.Method != attendance.MethodProximity {
			t.Errorf("record method = %q, want %q", rec.Method, attendance.MethodProximity)
		}
		wantStart := time.Date(2026, time.January, 5, 9, 0, 0, 0, time.UTC)
		if !rec.SessionStart.Equal(wantStart) {
			t.Errorf("record session start = %v, want %v", rec.SessionStart, wantStart)
		}
		if rec.BeaconID != fx.beacon.UUID || rec.SignalStrength == nil || *rec.SignalStrength != -70 {
			t.Errorf("record provenance = (%q, %v), want (%q, -70)", rec.BeaconID, rec.SignalStrength, fx.beacon.UUID)
		}
	})

	t.Run("repeated broadcast is a no-op", func(t *testing.T) {
		fx := setup(t)
		first, created, err := fx.svc.Match(ctx, reading(fx, -60, inSession))
		if err != nil || !created {
			t.Fatalf("first Match() = (created=%v, err=%v)", created, err)
		}
		second, created, err := fx.svc.Match(ctx, reading(fx, -55, inSession.Add(5*time.Minute)))
		if err != nil {
			t.Fatalf("second Match(): %v", err)
		}
		if created {
			t.Error("second Match() created = true, want false")
		}
		if second.ID != first.ID {
			t.Errorf("second Match() returned record %q, want existing %q", second.ID, first.ID)
		}
	})

	t.Run("concurrent matches create one record", func(t *testing.T) {
		fx := setup(t)

		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			created int
		)
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, ok, err := fx.svc.Match(ctx, reading(fx, -60, inSession.Add(time.Duration(i)*time.Second)))
				if err != nil {
					t.Errorf("Match(): %v", err)
					return
				}
				if ok {
					mu.Lock()
					created++
					mu.Unlock()
				}
			}(i)
		}
		wg.Wait()

		if created != 1 {
			t.Errorf("concurrent Match() created %d records, want 1", created)
		}
	})
}

func TestService_MarkManual(t *testing.T) {
	ctx := context.Background()

	t.Run("ok", func(t *testing.T) {
		fx := setup(t)
		rec, err := fx.svc.MarkManual(ctx, "staff-1", fx.student.ID, fx.class.ID, inSession, "beacon was down")
		if err != nil {
			t.Fatalf("MarkManual(): %v", err)
		}
		if rec.Method != attendance.MethodManualOverride || rec.MarkedBy != "staff-1" {
			t.Errorf("record = (%q, %q), want (%q, staff-1)", rec.Method, rec.MarkedBy, attendance.MethodManualOverride)
		}
	})

	t.Run("duplicate session conflicts", func(t *testing.T) {
		fx := setup(t)
		if _, _, err := fx.svc.Match(ctx, reading(fx, -60, inSession)); err != nil {
			t.Fatalf("Match(): %v", err)
		}
		_, err := fx.svc.MarkManual(ctx, "staff-1", fx.student.ID, fx.class.ID, inSession.Add(time.Minute), "")
		if !core.IsConflict(err) {
			t.Errorf("MarkManual() error = %v, want conflict", err)
		}
	})

	t.Run("not enrolled", func(t *testing.T) {
		fx := setup(t)
		_, err := fx.svc.MarkManual(ctx, "staff-1", "ghost", fx.class.ID, inSession, "")
		if errors.Cause(err) != attendance.ErrNotEnrolled {
			t.Errorf("MarkManual() error = %v, want ErrNotEnrolled", err)
		}
	})

	t.Run("no session in progress", func(t *testing.T) {
		fx := setup(t)
		_, err := fx.svc.MarkManual(ctx, "staff-1", fx.student.ID, fx.class.ID, inSession.Add(6*time.Hour), "")
		if _, ok := errors.Cause(err).(*core.ValidationError); !ok {
			t.Errorf("MarkManual() error = %v, want ValidationError", err)
		}
	})
}

func TestService_MarkCodeScan(t *testing.T) {
	fx := setup(t)

	rec, err := fx.svc.MarkCodeScan(context.Background(), fx.student.ID, fx.class.ID, inSession)
	if err != nil {
		t.Fatalf("MarkCodeScan(): %v", err)
	}
	if rec.Method != attendance.MethodCodeScan {
		t.Errorf("record method = %q, want %q", rec.Method, attendance.MethodCodeScan)
	}

	// a scan then a proximity match for the same session stays one record
	_, created, err := fx.svc.Match(context.Background(), reading(fx, -60, inSession.Add(2*time.Minute)))
	if err != nil {
		t.Fatalf("Match(): %v", err)
	}
	if created {
		t.Error("Match() after scan created = true, want false")
	}
}
