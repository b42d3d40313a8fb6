package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/abdulmaxwell/zetech-smart-attend/core/school"
)

type schoolRepository struct {
	db *sqlx.DB
}

var _ school.Repository = (*schoolRepository)(nil) // interface compliance check

func NewSchoolRepository(db *sqlx.DB) *schoolRepository {
	return &schoolRepository{db: db}
}

type classRow struct {
	ID         string         `db:"id"`
	Name       string         `db:"name"`
	Code       string         `db:"code"`
	LecturerID null.String    `db:"lecturer_id"`
	Location   string         `db:"location"`
	Schedule   types.JSONText `db:"schedule"`
	CreatedAt  time.Time      `db:"created_at"`
}

type studentRow struct {
	ID              string      `db:"id"`
	FirstName       string      `db:"first_name"`
	LastName        string      `db:"last_name"`
	Email           string      `db:"email"`
	ParentEmail     null.String `db:"parent_email"`
	AdmissionNumber null.String `db:"admission_number"`
	CreatedAt       time.Time   `db:"created_at"`
}

func (row classRow) toClass() school.Class {
	// a malformed stored schedule fails closed: the class simply has no
	// scheduled sessions, it never aborts a batch
	sched, err := school.ParseSchedule(row.Schedule)
	if err != nil {
		sched = nil
	}
	return school.Class{
		ID:         row.ID,
		Name:       row.Name,
		Code:       row.Code,
		LecturerID: row.LecturerID.String,
		Location:   row.Location,
		Schedule:   sched,
		CreatedAt:  row.CreatedAt,
	}
}

func (row studentRow) toStudent() school.Student {
	return school.Student{
		ID:              row.ID,
		FirstName:       row.FirstName,
		LastName:        row.LastName,
		Email:           row.Email,
		ParentEmail:     row.ParentEmail.String,
		AdmissionNumber: row.AdmissionNumber.String,
		CreatedAt:       row.CreatedAt,
	}
}

func (repo schoolRepository) GetClass(ctx context.Context, id string) (school.Class, error) {
	var row classRow
	err := repo.db.GetContext(ctx, &row,
		`SELECT id, name, code, lecturer_id, location, schedule, created_at FROM class WHERE id = $1`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return school.Class{}, school.ErrClassNotFound
		}
		return school.Class{}, errors.Wrap(err, "getting class")
	}
	return row.toClass(), nil
}

func (repo schoolRepository) QueryStudents(ctx context.Context) ([]school.Student, error) {
	var rows []studentRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT id, first_name, last_name, email, parent_email, admission_number, created_at
		 FROM student ORDER BY last_name, first_name`)
	if err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	students := make([]school.Student, 0, len(rows))
	for _, row := range rows {
		students = append(students, row.toStudent())
	}
	return students, nil
}

func (repo schoolRepository) QueryStudentClasses(ctx context.Context, studentID string) ([]school.Class, error) {
	var rows []classRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT c.id, c.name, c.code, c.lecturer_id, c.location, c.schedule, c.created_at
		 FROM class c
		 JOIN student_class sc ON sc.class_id = c.id
		 WHERE sc.student_id = $1
		 ORDER BY c.code`, studentID)
	if err != nil {
		return nil, errors.Wrap(err, "querying student classes")
	}
	classes := make([]school.Class, 0, len(rows))
	for _, row := range rows {
		classes = append(classes, row.toClass())
	}
	return classes, nil
}

func (repo schoolRepository) IsEnrolled(ctx context.Context, studentID, classID string) (bool, error) {
	var enrolled bool
	err := repo.db.GetContext(ctx, &enrolled,
		`SELECT EXISTS(SELECT 1 FROM student_class WHERE student_id = $1 AND class_id = $2)`,
		studentID, classID)
	if err != nil {
		return false, errors.Wrap(err, "checking enrollment")
	}
	return enrolled, nil
}
