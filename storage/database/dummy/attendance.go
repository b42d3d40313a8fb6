package dummydb

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/abdulmaxwell/zetech-smart-attend/core/attendance"
)

type AttendanceRepository struct {
	db *attendanceTable
}

var _ attendance.Repository = (*AttendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db *DB) *AttendanceRepository {
	return &AttendanceRepository{db: db.attendance}
}

func (repo *AttendanceRepository) AddBeacon(b attendance.Beacon) attendance.Beacon {
	repo.db.Lock()
	defer repo.db.Unlock()

	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	// UUIDs match case-insensitively, as in the real store
	repo.db.beacons[strings.ToLower(b.UUID)] = &b
	return b
}

func (repo *AttendanceRepository) GetActiveBeacon(_ context.Context, buuid string) (attendance.Beacon, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if b, ok := repo.db.beacons[strings.ToLower(buuid)]; ok && b.IsActive {
		return *b, nil
	}
	return attendance.Beacon{}, attendance.ErrUnknownBeacon
}

func sessionKey(studentID, classID string, sessionStart time.Time) string {
	return studentID + "|" + classID + "|" + sessionStart.UTC().Format(time.RFC3339)
}

func (repo *AttendanceRepository) CreateRecordIfAbsent(_ context.Context, rec attendance.Record) (attendance.Record, bool, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	key := sessionKey(rec.StudentID, rec.ClassID, rec.SessionStart)
	if id, ok := repo.db.bySess[key]; ok {
		return *repo.db.records[id], false, nil
	}

	rec.ID = uuid.New().String()
	rec.CreatedAt = time.Now().UTC()
	repo.db.records[rec.ID] = &rec
	repo.db.bySess[key] = rec.ID
	return rec, true, nil
}

func (repo *AttendanceRepository) QueryStudentRecords(_ context.Context, studentID string, from, to time.Time) ([]attendance.Record, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var records []attendance.Record
	for _, rec := range repo.db.records {
		if rec.StudentID != studentID {
			continue
		}
		if rec.Timestamp.Before(from) || rec.Timestamp.After(to) {
			continue
		}
		records = append(records, *rec)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Timestamp.Before(records[j].Timestamp) })
	return records, nil
}
