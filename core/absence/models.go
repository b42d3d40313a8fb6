package absence

import (
	"context"
	"errors"
	"time"

	"github.com/abdulmaxwell/zetech-smart-attend/core"
)

var (
	// errors
	ErrNotFound   = errors.New("absence request not found")
	ErrNotPending = errors.New("absence request has already been reviewed")
)

// Lifecycle statuses. pending is initial; approved and rejected are
// terminal and never reversed.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Urgency tiers
const (
	UrgencyLow    = "low"
	UrgencyMedium = "medium"
	UrgencyHigh   = "high"
)

type (
	// Request is a student-initiated absence justification. Created by the
	// student, mutated only by a reviewer moving pending to a terminal
	// state, never deleted.
	Request struct {
		ID             string     `json:"id"`
		StudentID      string     `json:"student_id"`
		ClassID        string     `json:"class_id"`
		Reason         string     `json:"reason"`
		Urgency        string     `json:"urgency"`
		Status         string     `json:"status"`
		SupportingDocs []string   `json:"supporting_docs,omitempty"`
		ReviewedBy     string     `json:"reviewed_by,omitempty"`
		ReviewedAt     *time.Time `json:"reviewed_at,omitempty"` // UTC
		AdminComment   string     `json:"admin_comment,omitempty"`
		CreatedAt      time.Time  `json:"created_at"` // UTC
		UpdatedAt      time.Time  `json:"updated_at"` // UTC
	}

	NewRequest struct {
		StudentID      string   `json:"-"`
		ClassID        string   `json:"class_id" validate:"required"`
		Reason         string   `json:"reason" validate:"required"`
		Urgency        string   `json:"urgency" validate:"required,oneof=low medium high"`
		SupportingDocs []string `json:"supporting_docs"`
	}

	ReviewRequest struct {
		ID         string `json:"-"`
		ReviewerID string `json:"-"`
		Decision   string `json:"decision" validate:"required,oneof=approved rejected"`
		Comment    string `json:"comment"`
	}

	Repository interface {
		CreateRequest(ctx context.Context, req Request) (Request, error)
		GetRequest(ctx context.Context, id string) (Request, error)
		QueryStudentRequests(ctx context.Context, studentID string) ([]Request, error)

		// QueryPendingRequests lists the review queue, oldest first unless
		// overridden by orderings.
		QueryPendingRequests(ctx context.Context, orderings ...core.DBOrdering) ([]Request, error)

		// ReviewRequest applies the terminal transition iff the stored
		// request is still pending (compare-and-set on status); it returns
		// ErrNotPending otherwise. This is the guard against double-review
		// races from stale UIs.
		ReviewRequest(ctx context.Context, id, reviewerID, decision, comment string, reviewedAt time.Time) (Request, error)
	}
)

func (r Request) IsTerminal() bool {
	return r.Status == StatusApproved || r.Status == StatusRejected
}
