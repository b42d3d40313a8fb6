package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/abdulmaxwell/zetech-smart-attend/core/attendance"
)

type attendanceRepository struct {
	db *sqlx.DB
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db *sqlx.DB) *attendanceRepository {
	return &attendanceRepository{db: db}
}

type beaconRow struct {
	ID              string      `db:"id"`
	UUID            string      `db:"uuid"`
	ClassID         string      `db:"class_id"`
	Location        string      `db:"location"`
	Description     null.String `db:"description"`
	SignalThreshold int         `db:"signal_threshold"`
	IsActive        bool        `db:"is_active"`
	CreatedAt       time.Time   `db:"created_at"`
}

type recordRow struct {
	ID             string      `db:"id"`
	StudentID      string      `db:"student_id"`
	ClassID        string      `db:"class_id"`
	Timestamp      time.Time   `db:"ts"`
	SessionStart   time.Time   `db:"session_start"`
	Method         string      `db:"method"`
	BeaconUUID     null.String `db:"beacon_uuid"`
	SignalStrength null.Int    `db:"signal_strength"`
	Note           null.String `db:"note"`
	MarkedBy       null.String `db:"marked_by"`
	CreatedAt      time.Time   `db:"created_at"`
}

func (row recordRow) toRecord() attendance.Record {
	rec := attendance.Record{
		ID:           row.ID,
		StudentID:    row.StudentID,
		ClassID:      row.ClassID,
		Timestamp:    row.Timestamp,
		SessionStart: row.SessionStart,
		Method:       row.Method,
		BeaconID:     row.BeaconUUID.String,
		Note:         row.Note.String,
		MarkedBy:     row.MarkedBy.String,
		CreatedAt:    row.CreatedAt,
	}
	if row.SignalStrength.Valid {
		strength := row.SignalStrength.Int
		rec.SignalStrength = &strength
	}
	return rec
}

func (repo attendanceRepository) GetActiveBeacon(ctx context.Context, buuid string) (attendance.Beacon, error) {
	var row beaconRow
	// UUIDs match case-insensitively; provisioning is out of band and not
	// trusted to normalize casing
	err := repo.db.GetContext(ctx, &row,
		`SELECT id, uuid, class_id, location, description, signal_threshold, is_active, created_at
		 FROM beacon WHERE lower(uuid) = lower($1) AND is_active`, buuid)
	if err != nil {
		if err == sql.ErrNoRows {
			return attendance.Beacon{}, attendance.ErrUnknownBeacon
		}
		return attendance.Beacon{}, errors.Wrap(err, "getting beacon")
	}
	return attendance.Beacon{
		ID:              row.ID,
		UUID:            row.UUID,
		ClassID:         row.ClassID,
		Location:        row.Location,
		Description:     row.Description.String,
		SignalThreshold: row.SignalThreshold,
		IsActive:        row.IsActive,
		CreatedAt:       row.CreatedAt,
	}, nil
}

func (repo attendanceRepository) CreateRecordIfAbsent(ctx context.Context, rec attendance.Record) (attendance.Record, bool, error) {
	rec.ID = uuid.New().String()
	rec.CreatedAt = time.Now().UTC()

	// ON CONFLICT DO NOTHING makes the insert race-safe across replicas;
	// losing the race is not an error, the winning record is returned
	res, err := repo.db.ExecContext(ctx,
		`INSERT INTO attendance_record
		   (id, student_id, class_id, ts, session_start, method, beacon_uuid, signal_strength, note, marked_by, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 ON CONFLICT (student_id, class_id, session_start) DO NOTHING`,
		rec.ID, rec.StudentID, rec.ClassID, rec.Timestamp, rec.SessionStart, rec.Method,
		null.NewString(rec.BeaconID, rec.BeaconID != ""),
		null.IntFromPtr(rec.SignalStrength),
		null.NewString(rec.Note, rec.Note != ""),
		null.NewString(rec.MarkedBy, rec.MarkedBy != ""),
		rec.CreatedAt)
	if err != nil {
		return attendance.Record{}, false, errors.Wrap(err, "inserting attendance record")
	}

	n, err := res.RowsAffected()
	if err != nil {
		return attendance.Record{}, false, errors.Wrap(err, "checking insert result")
	}
	if n > 0 {
		return rec, true, nil
	}

	var row recordRow
	err = repo.db.GetContext(ctx, &row,
		`SELECT id, student_id, class_id, ts, session_start, method, beacon_uuid, signal_strength, note, marked_by, created_at
		 FROM attendance_record
		 WHERE student_id = $1 AND class_id = $2 AND session_start = $3`,
		rec.StudentID, rec.ClassID, rec.SessionStart)
	if err != nil {
		return attendance.Record{}, false, errors.Wrap(err, "fetching existing attendance record")
	}
	return row.toRecord(), false, nil
}

func (repo attendanceRepository) QueryStudentRecords(ctx context.Context, studentID string, from, to time.Time) ([]attendance.Record, error) {
	var rows []recordRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT id, student_id, class_id, ts, session_start, method, beacon_uuid, signal_strength, note, marked_by, created_at
		 FROM attendance_record
		 WHERE student_id = $1 AND ts >= $2 AND ts <= $3
		 ORDER BY ts`, studentID, from, to)
	if err != nil {
		return nil, errors.Wrap(err, "querying attendance records")
	}
	records := make([]attendance.Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.toRecord())
	}
	return records, nil
}
