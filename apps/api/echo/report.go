package echoapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/abdulmaxwell/zetech-smart-attend/core/report"
)

type reportApi struct {
	svc *report.Service
}

func registerReportAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *report.Service) {
	api := reportApi{svc: svc}

	rg := g.Group("/reports", jwt)
	rg.POST("/run", api.run, adminMiddleware())
	rg.GET("", api.query)
}

// Handlers

// run triggers the weekly aggregation for the week containing now. Safe to
// call repeatedly; reports are upserted, never duplicated.
func (api *reportApi) run(ctx echo.Context) error {
	summary, err := api.svc.Run(ctx.Request().Context(), time.Now().UTC())
	if err != nil {
		return errors.Wrap(err, "running weekly report job")
	}
	return ctx.JSON(http.StatusOK, summary)
}

func (api *reportApi) query(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	// staff may inspect any student; students only themselves
	studentID := claims.Subject
	if id := ctx.QueryParam("student_id"); id != "" && claims.isStaff() {
		studentID = id
	}

	reps, err := api.svc.QueryStudentReports(ctx.Request().Context(), studentID)
	if err != nil {
		return errors.Wrap(err, "querying weekly reports")
	}
	if reps == nil {
		reps = []report.WeeklyReport{}
	}
	return ctx.JSON(http.StatusOK, reps)
}
