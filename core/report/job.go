package report

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/abdulmaxwell/zetech-smart-attend/core"
	"github.com/abdulmaxwell/zetech-smart-attend/core/attendance"
	"github.com/abdulmaxwell/zetech-smart-attend/core/school"
)

type (
	// Service runs the weekly aggregation. The job is pure given the
	// invocation instant and the storage snapshot, and safely re-invocable
	// for the same period: reports are upserted by natural key, never
	// duplicated.
	Service struct {
		repo       Repository
		schoolRepo school.Repository
		attRepo    attendance.Repository
		mailer     *Mailer // optional; nil disables notification
		conf       core.AttendanceConfig
		logger     core.Logger
	}

	// Summary is the job's batch result. Per-student failures are counted
	// here and logged; they never abort the batch.
	Summary struct {
		WeekStart time.Time `json:"week_start"`
		WeekEnd   time.Time `json:"week_end"`
		Succeeded int       `json:"succeeded"`
		Failed    int       `json:"failed"`
	}
)

func NewService(
	repo Repository,
	schoolRepo school.Repository,
	attRepo attendance.Repository,
	mailer *Mailer,
	conf core.AttendanceConfig,
	logger core.Logger,
) *Service {
	return &Service{
		repo:       repo,
		schoolRepo: schoolRepo,
		attRepo:    attRepo,
		mailer:     mailer,
		conf:       conf,
		logger:     logger,
	}
}

// WeekWindow computes the canonical report window containing now: the most
// recent WeekStartDay midnight (UTC) and the inclusive end of day six days
// later. All students in one invocation share this window.
func (svc *Service) WeekWindow(now time.Time) (time.Time, time.Time) {
	now = now.UTC()
	daysBack := int(now.Weekday()-svc.conf.WeekStartDay+7) % 7
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, -daysBack)
	end := start.AddDate(0, 0, 7).Add(-time.Nanosecond)
	return start, end
}

// Run generates a WeeklyReport for every student for the week containing
// now. Students are processed independently on a bounded worker pool; a
// cancelled ctx stops new units from starting while in-flight units run to
// completion (each unit's upsert is atomic).
func (svc *Service) Run(ctx context.Context, now time.Time) (Summary, error) {
	weekStart, weekEnd := svc.WeekWindow(now)
	summary := Summary{WeekStart: weekStart, WeekEnd: weekEnd}

	listCtx, cancel := context.WithTimeout(ctx, svc.conf.StorageTimeout)
	defer cancel()
	students, err := svc.schoolRepo.QueryStudents(listCtx)
	if err != nil {
		return summary, errors.Wrap(err, "listing students")
	}

	var (
		mu   sync.Mutex
		pool errgroup.Group
	)
	limit := svc.conf.ReportConcurrency
	if limit < 1 {
		limit = 1
	}
	pool.SetLimit(limit)

	for _, student := range students {
		if ctx.Err() != nil {
			svc.logger.Warn("weekly report run cancelled; in-flight units finishing")
			break
		}
		student := student
		pool.Go(func() error {
			// the unit gets its own deadline so one slow student cannot
			// stall the batch, and an external cancel does not cut off an
			// in-flight upsert
			unitCtx, cancel := context.WithTimeout(context.Background(), svc.conf.StorageTimeout)
			defer cancel()

			err := svc.processStudent(unitCtx, student, weekStart, weekEnd)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				summary.Failed++
				svc.logger.Error(fmt.Sprintf("weekly report failed for student %s: %v", student.ID, err), err)
			} else {
				summary.Succeeded++
			}
			return nil
		})
	}
	_ = pool.Wait()

	svc.logger.Info(fmt.Sprintf(
		"weekly report run done: window=%s..%s succeeded=%d failed=%d",
		weekStart.Format("2006-01-02"), weekEnd.Format("2006-01-02"),
		summary.Succeeded, summary.Failed))
	return summary, nil
}

// QueryStudentReports exposes the read side for the student dashboard.
func (svc *Service) QueryStudentReports(ctx context.Context, studentID string) ([]WeeklyReport, error) {
	return svc.repo.QueryStudentReports(ctx, studentID)
}

func (svc *Service) Get(ctx context.Context, studentID string, weekStart time.Time) (WeeklyReport, error) {
	return svc.repo.GetReport(ctx, studentID, weekStart)
}

func (svc *Service) processStudent(ctx context.Context, student school.Student, weekStart, weekEnd time.Time) error {
	classes, err := svc.schoolRepo.QueryStudentClasses(ctx, student.ID)
	if err != nil {
		return errors.Wrap(err, "fetching enrollments")
	}

	// expected sessions = scheduled occurrences inside the window, summed
	// over enrolled classes; a class with a malformed schedule contributes 0
	var expected int
	snapshots := make([]ClassSnapshot, 0, len(classes))
	for _, class := range classes {
		expected += len(class.Schedule.Occurrences(weekStart, weekEnd))
		snapshots = append(snapshots, ClassSnapshot{ID: class.ID, Name: class.Name, Code: class.Code})
	}

	records, err := svc.attRepo.QueryStudentRecords(ctx, student.ID, weekStart, weekEnd)
	if err != nil {
		return errors.Wrap(err, "fetching attendance records")
	}
	attended := len(records)

	// zero expected sessions is a quiet week, not a division error
	var pct float64
	if expected > 0 {
		pct = math.Round(float64(attended)/float64(expected)*100*100) / 100
	}

	rep := WeeklyReport{
		StudentID:            student.ID,
		WeekStart:            weekStart,
		WeekEnd:              weekEnd,
		TotalSessions:        expected,
		AttendedSessions:     attended,
		AttendancePercentage: pct,
		Insight:              InsightFor(pct),
		Content: Content{
			StudentName: student.FullName(),
			Classes:     snapshots,
			Records:     records,
		},
	}
	rep, err = svc.repo.UpsertReport(ctx, rep)
	if err != nil {
		return errors.Wrap(err, "upserting report")
	}

	// notification is best-effort; a failure never rolls back the report.
	// delivered_at records the hand-off to the mail service (missing
	// address and render failures keep it NULL, so a re-run retries);
	// transport failures past that point are logged by the service itself
	if svc.mailer != nil {
		if err := svc.mailer.SendReport(student, rep); err != nil {
			svc.logger.Warn(fmt.Sprintf("report notification failed for student %s: %v", student.ID, err))
			return nil
		}
		if err := svc.repo.MarkDelivered(ctx, rep.ID, time.Now().UTC()); err != nil {
			svc.logger.Warn(fmt.Sprintf("marking report %s delivered: %v", rep.ID, err))
		}
	}
	return nil
}
