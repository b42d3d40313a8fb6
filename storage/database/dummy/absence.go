package dummydb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/abdulmaxwell/zetech-smart-attend/core"
	"github.com/abdulmaxwell/zetech-smart-attend/core/absence"
)

type AbsenceRepository struct {
	db *absenceTable
}

var _ absence.Repository = (*AbsenceRepository)(nil) // interface compliance check

func NewAbsenceRepository(db *DB) *AbsenceRepository {
	return &AbsenceRepository{db: db.absence}
}

func (repo *AbsenceRepository) CreateRequest(_ context.Context, req absence.Request) (absence.Request, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	req.ID = uuid.New().String()
	repo.db.requests[req.ID] = &req
	return req, nil
}

func (repo *AbsenceRepository) GetRequest(_ context.Context, id string) (absence.Request, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if req, ok := repo.db.requests[id]; ok {
		return *req, nil
	}
	return absence.Request{}, absence.ErrNotFound
}

func (repo *AbsenceRepository) QueryStudentRequests(_ context.Context, studentID string) ([]absence.Request, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var reqs []absence.Request
	for _, req := range repo.db.requests {
		if req.StudentID == studentID {
			reqs = append(reqs, *req)
		}
	}
	sortRequests(reqs)
	return reqs, nil
}

func (repo *AbsenceRepository) QueryPendingRequests(_ context.Context, orderings ...core.DBOrdering) ([]absence.Request, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var reqs []absence.Request
	for _, req := range repo.db.requests {
		if req.Status == absence.StatusPending {
			reqs = append(reqs, *req)
		}
	}
	sortRequests(reqs)

	// only the urgency override matters in tests; everything else keeps
	// the created_at order
	for _, ord := range orderings {
		if ord.Field == "urgency" {
			rank := map[string]int{absence.UrgencyLow: 0, absence.UrgencyMedium: 1, absence.UrgencyHigh: 2}
			sort.SliceStable(reqs, func(i, j int) bool {
				if ord.Ascending {
					return rank[reqs[i].Urgency] < rank[reqs[j].Urgency]
				}
				return rank[reqs[i].Urgency] > rank[reqs[j].Urgency]
			})
		}
	}
	return reqs, nil
}

func (repo *AbsenceRepository) ReviewRequest(_ context.Context, id, reviewerID, decision, comment string, reviewedAt time.Time) (absence.Request, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	req, ok := repo.db.requests[id]
	if !ok {
		return absence.Request{}, absence.ErrNotFound
	}
	if req.Status != absence.StatusPending {
		return absence.Request{}, absence.ErrNotPending
	}

	req.Status = decision
	req.ReviewedBy = reviewerID
	req.ReviewedAt = &reviewedAt
	req.AdminComment = comment
	req.UpdatedAt = reviewedAt
	return *req, nil
}

func sortRequests(reqs []absence.Request) {
	sort.Slice(reqs, func(i, j int) bool { return reqs[i].CreatedAt.Before(reqs[j].CreatedAt) })
}
