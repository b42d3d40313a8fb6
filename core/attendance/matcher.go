package attendance

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/abdulmaxwell/zetech-smart-attend/core"
	"github.com/abdulmaxwell/zetech-smart-attend/core/school"
)

type (
	// Service converts beacon readings into attendance records and handles
	// the staff-side marking paths. It holds no state besides its
	// collaborators; the store's uniqueness constraint is what keeps
	// concurrent matches for the same session down to one record.
	Service struct {
		repo       Repository
		schoolRepo school.Repository
		grace      time.Duration
		logger     core.Logger
		nowFunc    func() time.Time // mockable
	}
)

func NewService(repo Repository, schoolRepo school.Repository, grace time.Duration, logger core.Logger) *Service {
	return &Service{
		repo:       repo,
		schoolRepo: schoolRepo,
		grace:      grace,
		logger:     logger,
		nowFunc:    time.Now,
	}
}

// Match converts reading into at most one proximity Record.
//
// Out-of-window and weak-signal readings are silent no-ops (beacons
// broadcast continuously), as is a session already recorded (repeated
// broadcasts must not create duplicates; first observation wins).
// The returned bool reports whether a record was created.
func (svc *Service) Match(ctx context.Context, reading BeaconReading) (Record, bool, error) {
	if reading.ObservedAt.After(svc.nowFunc().UTC()) {
		// future timestamps signal clock skew or a replayed packet
		return Record{}, false, core.NewValidationError(
			errors.New("reading timestamp is in the future"),
			core.FieldError{Field: "observed_at", Error: "timestamp must not be in the future"},
		)
	}

	beacon, err := svc.repo.GetActiveBeacon(ctx, reading.BeaconID)
	if err != nil {
		if errors.Cause(err) == ErrUnknownBeacon {
			return Record{}, false, err
		}
		return Record{}, false, errors.Wrap(err, "resolving beacon")
	}

	class, err := svc.schoolRepo.GetClass(ctx, beacon.ClassID)
	if err != nil {
		return Record{}, false, errors.Wrap(err, "fetching beacon class")
	}

	session, ok := class.Schedule.SessionAt(reading.ObservedAt, svc.grace)
	if !ok {
		svc.logger.Debug(fmt.Sprintf(
			"discarding out-of-window reading: beacon=%s student=%s t=%s",
			reading.BeaconID, reading.StudentID, reading.ObservedAt.Format(time.RFC3339)))
		return Record{}, false, nil
	}

	// weaker (more negative) than the configured threshold means the
	// student is too far from the transmitter
	if reading.SignalStrength < beacon.SignalThreshold {
		svc.logger.Debug(fmt.Sprintf(
			"discarding weak reading: beacon=%s student=%s rssi=%d threshold=%d",
			reading.BeaconID, reading.StudentID, reading.SignalStrength, beacon.SignalThreshold))
		return Record{}, false, nil
	}

	strength := reading.SignalStrength
	rec := Record{
		StudentID:      reading.StudentID,
		ClassID:        beacon.ClassID,
		Timestamp:      reading.ObservedAt.UTC(),
		SessionStart:   session.Start,
		Method:         MethodProximity,
		BeaconID:       beacon.UUID,
		SignalStrength: &strength,
	}
	rec, created, err := svc.repo.CreateRecordIfAbsent(ctx, rec)
	if err != nil {
		return Record{}, false, errors.Wrap(err, "persisting attendance record")
	}
	return rec, created, nil
}

// MarkManual creates a manual-override Record on behalf of a staff member.
// Unlike Match, a duplicate session is an explicit human action gone wrong
// and fails with ErrAlreadyRecorded instead of a silent discard.
func (svc *Service) MarkManual(ctx context.Context, staffID, studentID, classID string, ts time.Time, note string) (Record, error) {
	rec := Record{
		StudentID: studentID,
		ClassID:   classID,
		Timestamp: ts.UTC(),
		Method:    MethodManualOverride,
		Note:      note,
		MarkedBy:  staffID,
	}
	return svc.mark(ctx, rec)
}

// MarkCodeScan creates a code-scan Record from a student scanning the
// class code. Same one-record-per-session rule as manual marking.
func (svc *Service) MarkCodeScan(ctx context.Context, studentID, classID string, ts time.Time) (Record, error) {
	rec := Record{
		StudentID: studentID,
		ClassID:   classID,
		Timestamp: ts.UTC(),
		Method:    MethodCodeScan,
	}
	return svc.mark(ctx, rec)
}

func (svc *Service) mark(ctx context.Context, rec Record) (Record, error) {
	if rec.Timestamp.After(svc.nowFunc().UTC()) {
		return Record{}, core.NewValidationError(
			errors.New("timestamp is in the future"),
			core.FieldError{Field: "timestamp", Error: "timestamp must not be in the future"},
		)
	}

	enrolled, err := svc.schoolRepo.IsEnrolled(ctx, rec.StudentID, rec.ClassID)
	if err != nil {
		return Record{}, errors.Wrap(err, "checking enrollment")
	}
	if !enrolled {
		return Record{}, ErrNotEnrolled
	}

	class, err := svc.schoolRepo.GetClass(ctx, rec.ClassID)
	if err != nil {
		return Record{}, errors.Wrap(err, "fetching class")
	}
	session, ok := class.Schedule.SessionAt(rec.Timestamp, svc.grace)
	if !ok {
		return Record{}, core.NewValidationError(
			errors.New("timestamp does not fall inside any scheduled session"),
			core.FieldError{Field: "timestamp", Error: "no session in progress at this time"},
		)
	}
	rec.SessionStart = session.Start

	rec, created, err := svc.repo.CreateRecordIfAbsent(ctx, rec)
	if err != nil {
		return Record{}, errors.Wrap(err, "persisting attendance record")
	}
	if !created {
		return Record{}, core.NewConflictError(ErrAlreadyRecorded)
	}
	return rec, nil
}

// QueryStudentRecords exposes the read side for dashboards and the weekly job.
func (svc *Service) QueryStudentRecords(ctx context.Context, studentID string, from, to time.Time) ([]Record, error) {
	return svc.repo.QueryStudentRecords(ctx, studentID, from, to)
}
