package attendance

import (
	"context"
	"errors"
	"time"
)

var (
	// errors
	ErrUnknownBeacon   = errors.New("no active beacon matches this identifier")
	ErrAlreadyRecorded = errors.New("attendance already recorded for this session")
	ErrNotEnrolled     = errors.New("student is not enrolled in this class")
	ErrRecordNotFound  = errors.New("attendance record not found")
)

// Determination methods
const (
	MethodProximity      = "proximity"
	MethodCodeScan       = "code-scan"
	MethodManualOverride = "manual-override"
)

type (
	// BeaconReading is a single decoded proximity observation. It is
	// ephemeral; only the Record derived from it is persisted.
	BeaconReading struct {
		BeaconID       string    `json:"beacon_id"`
		StudentID      string    `json:"student_id"`
		SignalStrength int       `json:"signal_strength"` // dBm, negative
		ObservedAt     time.Time `json:"observed_at"`
	}

	// Beacon is a fixed-location transmitter tied to exactly one class.
	Beacon struct {
		ID              string    `json:"id"`
		UUID            string    `json:"uuid"`
		ClassID         string    `json:"class_id"`
		Location        string    `json:"location"`
		Description     string    `json:"description,omitempty"`
		SignalThreshold int       `json:"signal_threshold"` // dBm; weaker (more negative) readings are discarded
		IsActive        bool      `json:"is_active"`
		CreatedAt       time.Time `json:"created_at"` // UTC
	}

	// Record is one attendance determination. Records are immutable once
	// created and never deleted; corrections are additive new records.
	// At most one Record exists per (student, class, session start).
	Record struct {
		ID             string    `json:"id"`
		StudentID      string    `json:"student_id"`
		ClassID        string    `json:"class_id"`
		Timestamp      time.Time `json:"timestamp"`     // UTC, when presence was observed
		SessionStart   time.Time `json:"session_start"` // UTC, nominal start of the matched session
		Method         string    `json:"method"`
		BeaconID       string    `json:"beacon_id,omitempty"`
		SignalStrength *int      `json:"signal_strength,omitempty"`
		Note           string    `json:"note,omitempty"`
		MarkedBy       string    `json:"marked_by,omitempty"` // staff identity for manual overrides
		CreatedAt      time.Time `json:"created_at"`          // UTC
	}

	Repository interface {
		// GetActiveBeacon resolves a broadcast identifier to its configured
		// beacon; returns ErrUnknownBeacon when no active beacon matches.
		GetActiveBeacon(ctx context.Context, uuid string) (Beacon, error)

		// CreateRecordIfAbsent inserts rec unless a record already exists for
		// (StudentID, ClassID, SessionStart). It reports whether the insert
		// happened. The uniqueness check must be enforced by the store itself
		// (unique constraint), not by a prior read.
		CreateRecordIfAbsent(ctx context.Context, rec Record) (Record, bool, error)

		// QueryStudentRecords returns the student's records with Timestamp in [from, to].
		QueryStudentRecords(ctx context.Context, studentID string, from, to time.Time) ([]Record, error)
	}
)
