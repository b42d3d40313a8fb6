package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/abdulmaxwell/zetech-smart-attend/core"
	"github.com/abdulmaxwell/zetech-smart-attend/core/absence"
)

type absenceApi struct {
	svc *absence.Service
}

func registerAbsenceAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *absence.Service) {
	api := absenceApi{svc: svc}

	ag := g.Group("/absences", jwt)
	ag.POST("", api.submit)
	ag.GET("", api.query)
	ag.GET("/:id", api.retrieve)
	ag.POST("/:id/review", api.review, adminMiddleware())
}

// Handlers

func (api *absenceApi) submit(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var data absence.NewRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewRequest")
	}
	data.StudentID = claims.Subject
	data.Reason = core.CleanString(data.Reason)

	req, err := api.svc.Submit(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "submitting absence request")
	}
	return ctx.JSON(http.StatusCreated, req)
}

// query returns the caller's own requests, or the pending review queue for
// staff (sortable via ?ordering=).
func (api *absenceApi) query(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var reqs []absence.Request
	if claims.isStaff() {
		ordering := new(Ordering)
		ordering.Bind(ctx)
		reqs, err = api.svc.QueryPending(ctx.Request().Context(), ordering.Orderings...)
	} else {
		reqs, err = api.svc.QueryByStudent(ctx.Request().Context(), claims.Subject)
	}
	if err != nil {
		return errors.Wrap(err, "querying absence requests")
	}
	if reqs == nil {
		reqs = []absence.Request{}
	}
	return ctx.JSON(http.StatusOK, reqs)
}

func (api *absenceApi) retrieve(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	req, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting absence request")
	}
	// students only see their own; pretend the rest do not exist
	if !claims.isStaff() && req.StudentID != claims.Subject {
		return errHttpNotFound
	}
	return ctx.JSON(http.StatusOK, req)
}

func (api *absenceApi) review(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var data absence.ReviewRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ReviewRequest")
	}
	data.ID = ctx.Param("id")
	data.ReviewerID = claims.Subject
	data.Comment = core.CleanString(data.Comment)

	req, err := api.svc.Review(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "reviewing absence request")
	}
	return ctx.JSON(http.StatusOK, req)
}
