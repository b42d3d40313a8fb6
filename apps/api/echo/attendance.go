package echoapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/abdulmaxwell/zetech-smart-attend/core"
	"github.com/abdulmaxwell/zetech-smart-attend/core/attendance"
)

type attendanceApi struct {
	svc *attendance.Service
}

func registerAttendanceAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *attendance.Service) {
	api := attendanceApi{svc: svc}

	ag := g.Group("/attendance", jwt)
	ag.POST("/readings", api.ingestReading)
	ag.POST("/scan", api.scan)
	ag.POST("/manual", api.markManual, staffMiddleware())
	ag.GET("/records", api.queryRecords)
}

// Handlers

func (api *attendanceApi) ingestReading(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var data ReadingRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ReadingRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	reading := attendance.BeaconReading{
		BeaconID:       data.BeaconID,
		StudentID:      claims.Subject,
		SignalStrength: data.SignalStrength,
		ObservedAt:     data.ObservedAt,
	}
	rec, created, err := api.svc.Match(ctx.Request().Context(), reading)
	if err != nil {
		return errors.Wrap(err, "matching reading")
	}

	if !created {
		// discarded or already recorded; either way the device needs no retry
		return ctx.JSON(http.StatusOK, ReadingResponse{Recorded: false})
	}
	return ctx.JSON(http.StatusCreated, ReadingResponse{Recorded: true, Record: &rec})
}

func (api *attendanceApi) scan(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var data ScanRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ScanRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}
	if data.Timestamp.IsZero() {
		data.Timestamp = time.Now().UTC()
	}

	rec, err := api.svc.MarkCodeScan(ctx.Request().Context(), claims.Subject, data.ClassID, data.Timestamp)
	if err != nil {
		if errors.Cause(err) == attendance.ErrNotEnrolled {
			return errHttpForbidden
		}
		return errors.Wrap(err, "marking code-scan attendance")
	}
	return ctx.JSON(http.StatusCreated, rec)
}

func (api *attendanceApi) markManual(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var data ManualMarkRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ManualMarkRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	rec, err := api.svc.MarkManual(
		ctx.Request().Context(), claims.Subject, data.StudentID, data.ClassID, data.Timestamp, data.Note)
	if err != nil {
		if errors.Cause(err) == attendance.ErrNotEnrolled {
			return core.NewValidationError(
				errors.New("invalid enrollment"),
				core.FieldError{Field: "student_id", Error: "student is not enrolled in this class"},
			)
		}
		return errors.Wrap(err, "marking manual attendance")
	}
	return ctx.JSON(http.StatusCreated, rec)
}

func (api *attendanceApi) queryRecords(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	// staff may inspect any student; students only themselves
	studentID := claims.Subject
	if id := ctx.QueryParam("student_id"); id != "" && claims.isStaff() {
		studentID = id
	}

	from, to, err := bindTimeRange(ctx)
	if err != nil {
		return err
	}

	recs, err := api.svc.QueryStudentRecords(ctx.Request().Context(), studentID, from, to)
	if err != nil {
		return errors.Wrap(err, "querying attendance records")
	}
	if recs == nil {
		recs = []attendance.Record{}
	}
	return ctx.JSON(http.StatusOK, recs)
}

type (
	ReadingRequest struct {
		BeaconID       string    `json:"beacon_id" validate:"required"`
		SignalStrength int       `json:"signal_strength" validate:"required,lt=0"`
		ObservedAt     time.Time `json:"observed_at" validate:"required"`
	}

	ReadingResponse struct {
		Recorded bool               `json:"recorded"`
		Record   *attendance.Record `json:"record,omitempty"`
	}

	ScanRequest struct {
		ClassID   string    `json:"class_id" validate:"required"`
		Timestamp time.Time `json:"timestamp"`
	}

	ManualMarkRequest struct {
		StudentID string    `json:"student_id" validate:"required"`
		ClassID   string    `json:"class_id" validate:"required"`
		Timestamp time.Time `json:"timestamp" validate:"required"`
		Note      string    `json:"note"`
	}
)

func (r *ReadingRequest) Validate() error {
	r.BeaconID = core.CleanString(r.BeaconID, true /* lower */)
	return core.Validate.Struct(r)
}

func (r *ScanRequest) Validate() error {
	return core.Validate.Struct(r)
}

func (r *ManualMarkRequest) Validate() error {
	r.Note = core.CleanString(r.Note)
	return core.Validate.Struct(r)
}
