package dummydb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/abdulmaxwell/zetech-smart-attend/core/report"
)

type ReportRepository struct {
	db *reportTable
}

var _ report.Repository = (*ReportRepository)(nil) // interface compliance check

func NewReportRepository(db *DB) *ReportRepository {
	return &ReportRepository{db: db.report}
}

func reportKey(studentID string, weekStart time.Time) string {
	return studentID + "|" + weekStart.UTC().Format("2006-01-02")
}

func (repo *ReportRepository) UpsertReport(_ context.Context, rep report.WeeklyReport) (report.WeeklyReport, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	key := reportKey(rep.StudentID, rep.WeekStart)
	if id, ok := repo.db.byKey[key]; ok {
		rep.ID = id
	} else {
		rep.ID = uuid.New().String()
		repo.db.byKey[key] = rep.ID
	}
	rep.DeliveredAt = nil
	rep.CreatedAt = time.Now().UTC()
	repo.db.reports[rep.ID] = &rep
	return rep, nil
}

func (repo *ReportRepository) GetReport(_ context.Context, studentID string, weekStart time.Time) (report.WeeklyReport, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if id, ok := repo.db.byKey[reportKey(studentID, weekStart)]; ok {
		return *repo.db.reports[id], nil
	}
	return report.WeeklyReport{}, report.ErrNotFound
}

func (repo *ReportRepository) QueryStudentReports(_ context.Context, studentID string) ([]report.WeeklyReport, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var reps []report.WeeklyReport
	for _, rep := range repo.db.reports {
		if rep.StudentID == studentID {
			reps = append(reps, *rep)
		}
	}
	sort.Slice(reps, func(i, j int) bool { return reps[i].WeekStart.After(reps[j].WeekStart) })
	return reps, nil
}

func (repo *ReportRepository) MarkDelivered(_ context.Context, id string, at time.Time) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if rep, ok := repo.db.reports[id]; ok {
		rep.DeliveredAt = &at
		return nil
	}
	return report.ErrNotFound
}

// Count reports the number of stored reports; test helper.
func (repo *ReportRepository) Count() int {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return len(repo.db.reports)
}
