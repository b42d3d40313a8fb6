package sqlxrepos

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/abdulmaxwell/zetech-smart-attend/core/report"
)

type reportRepository struct {
	db *sqlx.DB
}

var _ report.Repository = (*reportRepository)(nil) // interface compliance check

func NewReportRepository(db *sqlx.DB) *reportRepository {
	return &reportRepository{db: db}
}

type reportRow struct {
	ID                   string         `db:"id"`
	StudentID            string         `db:"student_id"`
	WeekStart            time.Time      `db:"week_start"`
	WeekEnd              time.Time      `db:"week_end"`
	TotalSessions        int            `db:"total_sessions"`
	AttendedSessions     int            `db:"attended_sessions"`
	AttendancePercentage float64        `db:"attendance_percentage"`
	Insight              string         `db:"insight"`
	Content              types.JSONText `db:"content"`
	DeliveredAt          null.Time      `db:"delivered_at"`
	CreatedAt            time.Time      `db:"created_at"`
}

const reportColumns = `id, student_id, week_start, week_end, total_sessions, attended_sessions,
	attendance_percentage, insight, content, delivered_at, created_at`

func (row reportRow) toReport() (report.WeeklyReport, error) {
	var content report.Content
	if len(row.Content) > 0 {
		if err := json.Unmarshal(row.Content, &content); err != nil {
			return report.WeeklyReport{}, errors.Wrap(err, "unmarshalling report content")
		}
	}
	rep := report.WeeklyReport{
		ID:                   row.ID,
		StudentID:            row.StudentID,
		WeekStart:            row.WeekStart,
		WeekEnd:              row.WeekEnd,
		TotalSessions:        row.TotalSessions,
		AttendedSessions:     row.AttendedSessions,
		AttendancePercentage: row.AttendancePercentage,
		Insight:              row.Insight,
		Content:              content,
		CreatedAt:            row.CreatedAt,
	}
	if row.DeliveredAt.Valid {
		at := row.DeliveredAt.Time
		rep.DeliveredAt = &at
	}
	return rep, nil
}

// UpsertReport writes by the (student_id, week_start) natural key. An
// overwrite replaces every computed field and clears delivered_at since
// the new content has not been sent.
func (repo reportRepository) UpsertReport(ctx context.Context, rep report.WeeklyReport) (report.WeeklyReport, error) {
	content, err := json.Marshal(rep.Content)
	if err != nil {
		return report.WeeklyReport{}, errors.Wrap(err, "marshalling report content")
	}

	var row reportRow
	err = repo.db.GetContext(ctx, &row,
		`INSERT INTO weekly_report
		   (id, student_id, week_start, week_end, total_sessions, attended_sessions,
		    attendance_percentage, insight, content, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT (student_id, week_start) DO UPDATE
		 SET week_end              = EXCLUDED.week_end,
		     total_sessions        = EXCLUDED.total_sessions,
		     attended_sessions     = EXCLUDED.attended_sessions,
		     attendance_percentage = EXCLUDED.attendance_percentage,
		     insight               = EXCLUDED.insight,
		     content               = EXCLUDED.content,
		     delivered_at          = NULL,
		     created_at            = EXCLUDED.created_at
		 RETURNING `+reportColumns,
		uuid.New().String(), rep.StudentID, rep.WeekStart, rep.WeekEnd,
		rep.TotalSessions, rep.AttendedSessions, rep.AttendancePercentage,
		rep.Insight, types.JSONText(content), time.Now().UTC())
	if err != nil {
		return report.WeeklyReport{}, errors.Wrap(err, "upserting weekly report")
	}
	return row.toReport()
}

func (repo reportRepository) GetReport(ctx context.Context, studentID string, weekStart time.Time) (report.WeeklyReport, error) {
	var row reportRow
	err := repo.db.GetContext(ctx, &row,
		`SELECT `+reportColumns+` FROM weekly_report WHERE student_id = $1 AND week_start = $2`,
		studentID, weekStart)
	if err != nil {
		if err == sql.ErrNoRows {
			return report.WeeklyReport{}, report.ErrNotFound
		}
		return report.WeeklyReport{}, errors.Wrap(err, "getting weekly report")
	}
	return row.toReport()
}

func (repo reportRepository) QueryStudentReports(ctx context.Context, studentID string) ([]report.WeeklyReport, error) {
	var rows []reportRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT `+reportColumns+` FROM weekly_report WHERE student_id = $1 ORDER BY week_start DESC`,
		studentID)
	if err != nil {
		return nil, errors.Wrap(err, "querying weekly reports")
	}
	reps := make([]report.WeeklyReport, 0, len(rows))
	for _, row := range rows {
		rep, err := row.toReport()
		if err != nil {
			return nil, err
		}
		reps = append(reps, rep)
	}
	return reps, nil
}

func (repo reportRepository) MarkDelivered(ctx context.Context, id string, at time.Time) error {
	_, err := repo.db.ExecContext(ctx,
		`UPDATE weekly_report SET delivered_at = $2 WHERE id = $1`, id, at)
	return errors.Wrap(err, "marking report delivered")
}
