package dummydb

import (
	"sync"

	"github.com/abdulmaxwell/zetech-smart-attend/core/absence"
	"github.com/abdulmaxwell/zetech-smart-attend/core/attendance"
	"github.com/abdulmaxwell/zetech-smart-attend/core/report"
	"github.com/abdulmaxwell/zetech-smart-attend/core/school"
)

type (
	DB struct {
		school     *schoolTable
		attendance *attendanceTable
		absence    *absenceTable
		report     *reportTable
	}

	schoolTable struct {
		sync.RWMutex
		students    map[string]*school.Student
		classes     map[string]*school.Class
		enrollments map[string]map[string]bool // studentID -> classID set
	}

	attendanceTable struct {
		sync.RWMutex
		beacons map[string]*attendance.Beacon // keyed by broadcast uuid
		records map[string]*attendance.Record // keyed by record id
		bySess  map[string]string             // student|class|session -> record id
	}

	absenceTable struct {
		sync.RWMutex
		requests map[string]*absence.Request
	}

	reportTable struct {
		sync.RWMutex
		reports map[string]*report.WeeklyReport // keyed by report id
		byKey   map[string]string               // student|weekStart -> report id
	}
)

func Open() (*DB, error) {
	return &DB{
		school: &schoolTable{
			students:    make(map[string]*school.Student),
			classes:     make(map[string]*school.Class),
			enrollments: make(map[string]map[string]bool),
		},
		attendance: &attendanceTable{
			beacons: make(map[string]*attendance.Beacon),
			records: make(map[string]*attendance.Record),
			bySess:  make(map[string]string),
		},
		absence: &absenceTable{requests: make(map[string]*absence.Request)},
		report: &reportTable{
			reports: make(map[string]*report.WeeklyReport),
			byKey:   make(map[string]string),
		},
	}, nil
}
