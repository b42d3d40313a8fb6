package echoapi

import (
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/abdulmaxwell/zetech-smart-attend/core"
)

var orderingParam = "ordering"

type Ordering struct {
	Orderings []core.DBOrdering
}

func (ord *Ordering) Bind(ctx echo.Context) {
	data := ctx.QueryParams()
	if len(data) == 0 {
		return
	}
	val, ok := data[orderingParam]
	if !ok || len(val) == 0 || val[0] == "" {
		return
	}

	for _, field := range strings.Split(val[0], ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
}

// bindTimeRange reads the optional `from` and `to` RFC3339 query params,
// defaulting to the trailing 7 days.
func bindTimeRange(ctx echo.Context) (time.Time, time.Time, error) {
	now := time.Now().UTC()
	from, to := now.AddDate(0, 0, -7), now

	if raw := ctx.QueryParam("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return from, to, core.NewValidationError(
				errors.New("invalid time range"),
				core.FieldError{Field: "from", Error: "must be a valid RFC3339 timestamp"},
			)
		}
		from = t.UTC()
	}
	if raw := ctx.QueryParam("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return from, to, core.NewValidationError(
				errors.New("invalid time range"),
				core.FieldError{Field: "to", Error: "must be a valid RFC3339 timestamp"},
			)
		}
		to = t.UTC()
	}
	return from, to, nil
}
