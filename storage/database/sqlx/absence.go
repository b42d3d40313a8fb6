package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/abdulmaxwell/zetech-smart-attend/core"
	"github.com/abdulmaxwell/zetech-smart-attend/core/absence"
)

type absenceRepository struct {
	db *sqlx.DB
}

var _ absence.Repository = (*absenceRepository)(nil) // interface compliance check

func NewAbsenceRepository(db *sqlx.DB) *absenceRepository {
	return &absenceRepository{db: db}
}

type requestRow struct {
	ID             string         `db:"id"`
	StudentID      string         `db:"student_id"`
	ClassID        string         `db:"class_id"`
	Reason         string         `db:"reason"`
	Urgency        string         `db:"urgency"`
	Status         string         `db:"status"`
	SupportingDocs pq.StringArray `db:"supporting_docs"`
	ReviewedBy     null.String    `db:"reviewed_by"`
	ReviewedAt     null.Time      `db:"reviewed_at"`
	AdminComment   null.String    `db:"admin_comment"`
	CreatedAt      time.Time      `db:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at"`
}

const requestColumns = `id, student_id, class_id, reason, urgency, status, supporting_docs,
	reviewed_by, reviewed_at, admin_comment, created_at, updated_at`

func (row requestRow) toRequest() absence.Request {
	req := absence.Request{
		ID:             row.ID,
		StudentID:      row.StudentID,
		ClassID:        row.ClassID,
		Reason:         row.Reason,
		Urgency:        row.Urgency,
		Status:         row.Status,
		SupportingDocs: row.SupportingDocs,
		ReviewedBy:     row.ReviewedBy.String,
		AdminComment:   row.AdminComment.String,
		CreatedAt:      row.CreatedAt,
		UpdatedAt:      row.UpdatedAt,
	}
	if row.ReviewedAt.Valid {
		at := row.ReviewedAt.Time
		req.ReviewedAt = &at
	}
	return req
}

func (repo absenceRepository) CreateRequest(ctx context.Context, req absence.Request) (absence.Request, error) {
	req.ID = uuid.New().String()
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO absence_request
		   (id, student_id, class_id, reason, urgency, status, supporting_docs, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		req.ID, req.StudentID, req.ClassID, req.Reason, req.Urgency, req.Status,
		pq.StringArray(req.SupportingDocs), req.CreatedAt, req.UpdatedAt)
	if err != nil {
		return absence.Request{}, errors.Wrap(err, "inserting absence request")
	}
	return req, nil
}

func (repo absenceRepository) GetRequest(ctx context.Context, id string) (absence.Request, error) {
	var row requestRow
	err := repo.db.GetContext(ctx, &row,
		`SELECT `+requestColumns+` FROM absence_request WHERE id = $1`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return absence.Request{}, absence.ErrNotFound
		}
		return absence.Request{}, errors.Wrap(err, "getting absence request")
	}
	return row.toRequest(), nil
}

func (repo absenceRepository) QueryStudentRequests(ctx context.Context, studentID string) ([]absence.Request, error) {
	var rows []requestRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT `+requestColumns+` FROM absence_request WHERE student_id = $1 ORDER BY created_at DESC`,
		studentID)
	if err != nil {
		return nil, errors.Wrap(err, "querying student absence requests")
	}
	return rowsToRequests(rows), nil
}

// pendingOrderFields whitelists the sortable review-queue columns, mapped
// to their ORDER BY expressions. Urgency is stored as text and must rank by
// tier; a bare column sort would be lexicographic (high < low < medium).
var pendingOrderFields = map[string]string{
	"created_at": "created_at",
	"student_id": "student_id",
	"urgency": "CASE urgency" +
		" WHEN '" + absence.UrgencyLow + "' THEN 0" +
		" WHEN '" + absence.UrgencyMedium + "' THEN 1" +
		" WHEN '" + absence.UrgencyHigh + "' THEN 2" +
		" ELSE 3 END",
}

func pendingOrderBy(orderings []core.DBOrdering) string {
	clauses := make([]string, 0, len(orderings))
	for _, ord := range orderings {
		expr, ok := pendingOrderFields[ord.Field]
		if !ok {
			continue
		}
		dir := "DESC"
		if ord.Ascending {
			dir = "ASC"
		}
		clauses = append(clauses, expr+" "+dir)
	}
	if len(clauses) == 0 {
		return "created_at ASC"
	}
	return strings.Join(clauses, ", ")
}

func (repo absenceRepository) QueryPendingRequests(ctx context.Context, orderings ...core.DBOrdering) ([]absence.Request, error) {
	orderBy := pendingOrderBy(orderings)

	var rows []requestRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT `+requestColumns+` FROM absence_request WHERE status = $1 ORDER BY `+orderBy,
		absence.StatusPending)
	if err != nil {
		return nil, errors.Wrap(err, "querying pending absence requests")
	}
	return rowsToRequests(rows), nil
}

// ReviewRequest is a compare-and-set on status: the WHERE clause only hits
// a request that is still pending, so a lost double-review race surfaces
// as ErrNotPending instead of overwriting the first decision.
func (repo absenceRepository) ReviewRequest(ctx context.Context, id, reviewerID, decision, comment string, reviewedAt time.Time) (absence.Request, error) {
	var row requestRow
	err := repo.db.GetContext(ctx, &row,
		`UPDATE absence_request
		 SET status = $2, reviewed_by = $3, reviewed_at = $4, admin_comment = $5, updated_at = $4
		 WHERE id = $1 AND status = '`+absence.StatusPending+`'
		 RETURNING `+requestColumns,
		id, decision, reviewerID, reviewedAt, null.NewString(comment, comment != ""))
	if err == nil {
		return row.toRequest(), nil
	}
	if err != sql.ErrNoRows {
		return absence.Request{}, errors.Wrap(err, "reviewing absence request")
	}

	// either the request does not exist, or it is already terminal
	if _, gerr := repo.GetRequest(ctx, id); gerr != nil {
		return absence.Request{}, gerr
	}
	return absence.Request{}, absence.ErrNotPending
}

func rowsToRequests(rows []requestRow) []absence.Request {
	reqs := make([]absence.Request, 0, len(rows))
	for _, row := range rows {
		reqs = append(reqs, row.toRequest())
	}
	return reqs
}
