package absence

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/abdulmaxwell/zetech-smart-attend/core"
	"github.com/abdulmaxwell/zetech-smart-attend/core/school"
)

type Service struct {
	repo       Repository
	schoolRepo school.Repository
	minWords   int
}

func NewService(repo Repository, schoolRepo school.Repository, minWords int) *Service {
	return &Service{repo: repo, schoolRepo: schoolRepo, minWords: minWords}
}

// Submit creates a pending Request after gating on the justification's
// word count and the student's enrollment. The word minimum is deliberate
// friction against low-effort submissions.
func (svc *Service) Submit(ctx context.Context, nr NewRequest) (Request, error) {
	if err := core.Validate.Struct(nr); err != nil {
		return Request{}, err
	}

	if n := core.WordCount(nr.Reason); n < svc.minWords {
		return Request{}, core.NewValidationError(
			errors.New("justification too short"),
			core.FieldError{
				Field: "reason",
				Error: fmt.Sprintf("reason must be at least %d words, you provided %d", svc.minWords, n),
			},
		)
	}

	enrolled, err := svc.schoolRepo.IsEnrolled(ctx, nr.StudentID, nr.ClassID)
	if err != nil {
		return Request{}, errors.Wrap(err, "checking enrollment")
	}
	if !enrolled {
		return Request{}, core.NewValidationError(
			errors.New("invalid class"),
			core.FieldError{Field: "class_id", Error: "you are not enrolled in this class"},
		)
	}

	now := time.Now().UTC()
	req := Request{
		StudentID:      nr.StudentID,
		ClassID:        nr.ClassID,
		Reason:         nr.Reason,
		Urgency:        nr.Urgency,
		Status:         StatusPending,
		SupportingDocs: nr.SupportingDocs,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	return svc.repo.CreateRequest(ctx, req)
}

// Review moves a pending request to a terminal state, stamping reviewer
// identity and time. Reviewing an already-reviewed request fails with
// ErrNotPending and leaves the stored state untouched; a stale UI must
// not silently double-apply a decision.
func (svc *Service) Review(ctx context.Context, rr ReviewRequest) (Request, error) {
	if err := core.Validate.Struct(rr); err != nil {
		return Request{}, err
	}

	req, err := svc.repo.ReviewRequest(ctx, rr.ID, rr.ReviewerID, rr.Decision, rr.Comment, time.Now().UTC())
	if err != nil {
		switch errors.Cause(err) {
		case ErrNotFound:
			return Request{}, err
		case ErrNotPending:
			return Request{}, core.NewConflictError(ErrNotPending)
		}
		return Request{}, errors.Wrap(err, "reviewing absence request")
	}
	return req, nil
}

func (svc *Service) Get(ctx context.Context, id string) (Request, error) {
	return svc.repo.GetRequest(ctx, id)
}

func (svc *Service) QueryByStudent(ctx context.Context, studentID string) ([]Request, error) {
	return svc.repo.QueryStudentRequests(ctx, studentID)
}

func (svc *Service) QueryPending(ctx context.Context, orderings ...core.DBOrdering) ([]Request, error) {
	return svc.repo.QueryPendingRequests(ctx, orderings...)
}
