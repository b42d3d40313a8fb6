package absence_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/abdulmaxwell/zetech-smart-attend/core"
	"github.com/abdulmaxwell/zetech-smart-attend/core/absence"
	"github.com/abdulmaxwell/zetech-smart-attend/core/school"
	dummydb "github.com/abdulmaxwell/zetech-smart-attend/storage/database/dummy"
)

const minWords = 300

type fixtures struct {
	svc     *absence.Service
	student school.Student
	class   school.Class
}

func setup(t *testing.T) fixtures {
	t.Helper()

	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open(): %v", err)
	}
	schoolRepo := dummydb.NewSchoolRepository(db)

	student := schoolRepo.AddStudent(school.Student{
		FirstName: "Brian",
		LastName:  "Mwangi",
		Email:     "brian@test.test",
	})
	class := schoolRepo.AddClass(school.Class{Name: "Databases", Code: "CS-305"})
	schoolRepo.Enroll(student.ID, class.ID)

	return fixtures{
		svc:     absence.NewService(dummydb.NewAbsenceRepository(db), schoolRepo, minWords),
		student: student,
		class:   class,
	}
}

func nWords(n int) string {
	return strings.TrimSpace(strings.Repeat("word ", n))
}

func fieldError(t *testing.T, err error, field string) {
	t.Helper()
	vErr, ok := errors.Cause(err).(*core.ValidationError)
	if !ok {
		t.Fatalf("error = %v, want ValidationError", err)
	}
	for _, fld := range vErr.Fields {
		if fld.Field == field {
			return
		}
	}
	t.Errorf("ValidationError fields = %v, want one for %q", vErr.Fields, field)
}

func TestService_Submit(t *testing.T) {
	ctx := context.Background()

	t.Run("ok", func(t *testing.T) {
		fx := setup(t)
		req, err := fx.svc.Submit(ctx, absence.NewRequest{
			StudentID:      fx.student.ID,
			ClassID:        fx.class.ID,
			Reason:         nWords(minWords),
			Urgency:        absence.UrgencyHigh,
			SupportingDocs: []string{"https://docs.test/medical-note.pdf"},
		})
		if err != nil {
			t.Fatalf("Submit(): %v", err)
		}
		if req.Status != absence.StatusPending {
			t.Errorf("request status = %q, want %q", req.Status, absence.StatusPending)
		}
		if req.ID == "" || req.CreatedAt.IsZero() {
			t.Errorf("request not fully populated: %+v", req)
		}
	})

	t.Run("one word short", func(t *testing.T) {
		fx := setup(t)
		_, err := fx.svc.Submit(ctx, absence.NewRequest{
			StudentID: fx.student.ID,
			ClassID:   fx.class.ID,
			Reason:    nWords(minWords - 1),
			Urgency:   absence.UrgencyLow,
		})
		fieldError(t, err, "reason")
		if !strings.Contains(err.Error(), "too short") {
			t.Errorf("Submit() error = %q, want word-count message", err)
		}
	})

	t.Run("unknown urgency", func(t *testing.T) {
		fx := setup(t)
		_, err := fx.svc.Submit(ctx, absence.NewRequest{
			StudentID: fx.student.ID,
			ClassID:   fx.class.ID,
			Reason:    nWords(minWords),
			Urgency:   "yesterday",
		})
		if err == nil {
			t.Error("Submit() error = nil, want validation failure")
		}
	})

	t.Run("not enrolled", func(t *testing.T) {
		fx := setup(t)
		_, err := fx.svc.Submit(ctx, absence.NewRequest{
			StudentID: fx.student.ID,
			ClassID:   "other-class",
			Reason:    nWords(minWords),
			Urgency:   absence.UrgencyMedium,
		})
		fieldError(t, err, "class_id")
	})
}

func submit(t *testing.T, fx fixtures, urgency string) absence.Request {
	t.Helper()
	req, err := fx.svc.Submit(context.Background(), absence.NewRequest{
		StudentID: fx.student.ID,
		ClassID:   fx.class.ID,
		Reason:    nWords(minWords),
		Urgency:   urgency,
	})
	if err != nil {
		t.Fatalf("Submit(): %v", err)
	}
	return req
}

func TestService_Review(t *testing.T) {
	ctx := context.Background()

	t.Run("ok", func(t *testing.T) {
		fx := setup(t)
		req := submit(t, fx, absence.UrgencyMedium)

		reviewed, err := fx.svc.Review(ctx, absence.ReviewRequest{
			ID:         req.ID,
			ReviewerID: "admin-1",
			Decision:   absence.StatusApproved,
			Comment:    "medical note verified",
		})
		if err != nil {
			t.Fatalf("Review(): %v", err)
		}
		if reviewed.Status != absence.StatusApproved || reviewed.ReviewedBy != "admin-1" || reviewed.ReviewedAt == nil {
			t.Errorf("reviewed request = %+v, want approved by admin-1", reviewed)
		}
		if !reviewed.IsTerminal() {
			t.Error("reviewed request is not terminal")
		}
	})

	t.Run("not found", func(t *testing.T) {
		fx := setup(t)
		_, err := fx.svc.Review(ctx, absence.ReviewRequest{ID: "nope", ReviewerID: "admin-1", Decision: absence.StatusRejected})
		if errors.Cause(err) != absence.ErrNotFound {
			t.Errorf("Review() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("double review conflicts and keeps first decision", func(t *testing.T) {
		fx := setup(t)
		req := submit(t, fx, absence.UrgencyHigh)

		if _, err := fx.svc.Review(ctx, absence.ReviewRequest{
			ID: req.ID, ReviewerID: "admin-1", Decision: absence.StatusApproved,
		}); err != nil {
			t.Fatalf("first Review(): %v", err)
		}

		_, err := fx.svc.Review(ctx, absence.ReviewRequest{
			ID: req.ID, ReviewerID: "admin-2", Decision: absence.StatusRejected, Comment: "late to the party",
		})
		if !core.IsConflict(err) {
			t.Fatalf("second Review() error = %v, want conflict", err)
		}

		stored, err := fx.svc.Get(ctx, req.ID)
		if err != nil {
			t.Fatalf("Get(): %v", err)
		}
		if stored.Status != absence.StatusApproved || stored.ReviewedBy != "admin-1" || stored.AdminComment != "" {
			t.Errorf("stored request mutated by losing review: %+v", stored)
		}
	})

	t.Run("bad decision", func(t *testing.T) {
		fx := setup(t)
		req := submit(t, fx, absence.UrgencyLow)
		if _, err := fx.svc.Review(ctx, absence.ReviewRequest{ID: req.ID, ReviewerID: "admin-1", Decision: "maybe"}); err == nil {
			t.Error("Review() error = nil, want validation failure")
		}
	})
}

func TestService_QueryPending(t *testing.T) {
	fx := setup(t)
	ctx := context.Background()

	low := submit(t, fx, absence.UrgencyLow)
	time.Sleep(time.Millisecond)
	high := submit(t, fx, absence.UrgencyHigh)

	// default order is oldest first
	reqs, err := fx.svc.QueryPending(ctx)
	if err != nil {
		t.Fatalf("QueryPending(): %v", err)
	}
	if len(reqs) != 2 || reqs[0].ID != low.ID {
		t.Fatalf("QueryPending() = %v, want [low high]", reqs)
	}

	// urgency override puts the high-priority request first
	reqs, err = fx.svc.QueryPending(ctx, core.DBOrdering{Field: "urgency"})
	if err != nil {
		t.Fatalf("QueryPending(ordering): %v", err)
	}
	if len(reqs) != 2 || reqs[0].ID != high.ID {
		t.Errorf("QueryPending(urgency desc) first = %v, want high-urgency request", reqs[0].ID)
	}
}
