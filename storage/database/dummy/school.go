package dummydb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/abdulmaxwell/zetech-smart-attend/core/school"
)

type SchoolRepository struct {
	db *schoolTable
}

var _ school.Repository = (*SchoolRepository)(nil) // interface compliance check

func NewSchoolRepository(db *DB) *SchoolRepository {
	return &SchoolRepository{db: db.school}
}

// Fixture helpers; the real store seeds these out of band.

func (repo *SchoolRepository) AddStudent(st school.Student) school.Student {
	repo.db.Lock()
	defer repo.db.Unlock()

	if st.ID == "" {
		st.ID = uuid.New().String()
	}
	repo.db.students[st.ID] = &st
	return st
}

func (repo *SchoolRepository) AddClass(c school.Class) school.Class {
	repo.db.Lock()
	defer repo.db.Unlock()

	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	repo.db.classes[c.ID] = &c
	return c
}

func (repo *SchoolRepository) Enroll(studentID, classID string) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if repo.db.enrollments[studentID] == nil {
		repo.db.enrollments[studentID] = make(map[string]bool)
	}
	repo.db.enrollments[studentID][classID] = true
}

func (repo *SchoolRepository) GetClass(_ context.Context, id string) (school.Class, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if c, ok := repo.db.classes[id]; ok {
		return *c, nil
	}
	return school.Class{}, school.ErrClassNotFound
}

func (repo *SchoolRepository) QueryStudents(_ context.Context) ([]school.Student, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	students := make([]school.Student, 0, len(repo.db.students))
	for _, st := range repo.db.students {
		students = append(students, *st)
	}
	sort.Slice(students, func(i, j int) bool { return students[i].ID < students[j].ID })
	return students, nil
}

func (repo *SchoolRepository) QueryStudentClasses(_ context.Context, studentID string) ([]school.Class, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var classes []school.Class
	for classID := range repo.db.enrollments[studentID] {
		if c, ok := repo.db.classes[classID]; ok {
			classes = append(classes, *c)
		}
	}
	sort.Slice(classes, func(i, j int) bool { return classes[i].Code < classes[j].Code })
	return classes, nil
}

func (repo *SchoolRepository) IsEnrolled(_ context.Context, studentID, classID string) (bool, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.db.enrollments[studentID][classID], nil
}
