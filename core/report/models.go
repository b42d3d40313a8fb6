package report

import (
	"context"
	"errors"
	"time"

	"github.com/abdulmaxwell/zetech-smart-attend/core/attendance"
)

var (
	// errors
	ErrNotFound = errors.New("weekly report not found")
)

type (
	// WeeklyReport aggregates one student's attendance over a 7-day window.
	// Exactly one report exists per (student, week start); re-running the
	// job for a processed week overwrites it.
	WeeklyReport struct {
		ID                   string     `json:"id"`
		StudentID            string     `json:"student_id"`
		WeekStart            time.Time  `json:"week_start"` // UTC midnight
		WeekEnd              time.Time  `json:"week_end"`   // UTC, inclusive end of day 6
		TotalSessions        int        `json:"total_sessions"`
		AttendedSessions     int        `json:"attended_sessions"`
		AttendancePercentage float64    `json:"attendance_percentage"` // 0-100, two decimals
		Insight              string     `json:"insight"`
		Content              Content    `json:"content"`
		DeliveredAt          *time.Time `json:"delivered_at,omitempty"` // UTC, set on hand-off to the mail service
		CreatedAt            time.Time  `json:"created_at"`             // UTC
	}

	// Content is the structured snapshot embedded in a report: the data the
	// numbers were computed from, frozen at generation time.
	Content struct {
		StudentName string              `json:"student_name"`
		Classes     []ClassSnapshot     `json:"classes"`
		Records     []attendance.Record `json:"attendance_records"`
	}

	ClassSnapshot struct {
		ID   string `json:"id"`
		Name string `json:"name"`
		Code string `json:"code"`
	}

	Repository interface {
		// UpsertReport writes rep by its natural key (StudentID, WeekStart):
		// overwrite when present, insert when absent.
		UpsertReport(ctx context.Context, rep WeeklyReport) (WeeklyReport, error)
		GetReport(ctx context.Context, studentID string, weekStart time.Time) (WeeklyReport, error)
		QueryStudentReports(ctx context.Context, studentID string) ([]WeeklyReport, error)
		MarkDelivered(ctx context.Context, id string, at time.Time) error
	}
)
