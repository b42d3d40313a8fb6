package school

import (
	"context"
	"errors"
	"time"
)

var (
	// errors
	ErrClassNotFound   = errors.New("class not found")
	ErrStudentNotFound = errors.New("student not found")
)

type (
	// Class is a taught unit students enroll in. Its recurring weekly
	// Schedule drives both proximity matching and expected-session counts.
	Class struct {
		ID         string    `json:"id"`
		Name       string    `json:"name"`
		Code       string    `json:"code"`
		LecturerID string    `json:"lecturer_id"`
		Location   string    `json:"location"`
		Schedule   Schedule  `json:"schedule"`
		CreatedAt  time.Time `json:"created_at"` // UTC
	}

	Student struct {
		ID              string    `json:"id"`
		FirstName       string    `json:"first_name"`
		LastName        string    `json:"last_name"`
		Email           string    `json:"email"`
		ParentEmail     string    `json:"parent_email,omitempty"`
		AdmissionNumber string    `json:"admission_number,omitempty"`
		CreatedAt       time.Time `json:"created_at"` // UTC
	}

	// Repository provides read access to enrollment and class-schedule data.
	Repository interface {
		GetClass(ctx context.Context, id string) (Class, error)
		QueryStudents(ctx context.Context) ([]Student, error)
		// QueryStudentClasses returns the classes the student is enrolled in.
		QueryStudentClasses(ctx context.Context, studentID string) ([]Class, error)
		IsEnrolled(ctx context.Context, studentID, classID string) (bool, error)
	}
)

func (s Student) FullName() string {
	if s.FirstName == "" {
		return s.LastName
	}
	if s.LastName == "" {
		return s.FirstName
	}
	return s.FirstName + " " + s.LastName
}
