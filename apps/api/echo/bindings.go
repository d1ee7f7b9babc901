package echoapi

import (
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/fee"
)

const (
	termParam   = "term_id"
	statusParam = "status"
	filterParam = "filter"
	classParam  = "class_id"
)

// ReportQuery holds the query params of the fee report.
type ReportQuery struct {
	TermID string
	Status fee.Status
}

func (q *ReportQuery) Bind(ctx echo.Context) error {
	q.TermID = strings.TrimSpace(ctx.QueryParam(termParam))
	status, err := fee.ParseStatus(ctx.QueryParam(statusParam))
	if err != nil {
		return core.NewValidationError(err, core.FieldError{Field: statusParam, Error: errors.Cause(err).Error()})
	}
	q.Status = status
	return nil
}

func bindReminderQuery(ctx echo.Context) fee.ReminderQuery {
	return fee.ReminderQuery{
		TermID:  strings.TrimSpace(ctx.QueryParam(termParam)),
		ClassID: strings.TrimSpace(ctx.QueryParam(classParam)),
		Filter:  strings.TrimSpace(ctx.QueryParam(filterParam)),
	}
}

// bind decodes the request body into `data`, reporting malformed bodies as validation errors.
func bind(ctx echo.Context, data interface{}, name string) error {
	if err := ctx.Bind(data); err != nil {
		var herr *echo.HTTPError
		if errors.As(err, &herr) && herr.Code < 500 {
			return core.NewValidationError(errors.Wrapf(err, "binding to %s", name))
		}
		return errors.Wrapf(err, "binding to %s", name)
	}
	return nil
}
