package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/shule/core/fee"
)

type feeApi struct {
	svc *fee.Service
}

func registerFeeAPI(g *echo.Group, svc *fee.Service) {
	api := feeApi{svc: svc}

	g.GET("/learners/:id/statement", api.statement)
	g.POST("/payments", api.recordPayment)

	fg := g.Group("/fees")
	fg.PUT("/classes", api.setClassFee)
	fg.PUT("/custom", api.setCustomFee)
	fg.DELETE("/custom/:learnerId", api.removeCustomFee)

	g.GET("/reports/fees", api.report)
	g.GET("/reminders", api.reminders)
}

// Handlers

func (api *feeApi) statement(ctx echo.Context) error {
	st, err := api.svc.Statement(ctx.Request().Context(), ctx.Param("id"), ctx.QueryParam(termParam))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, st)
}

func (api *feeApi) recordPayment(ctx echo.Context) error {
	var data fee.NewPayment
	if err := bind(ctx, &data, "NewPayment"); err != nil {
		return err
	}
	pmt, err := api.svc.RecordPayment(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, pmt)
}

func (api *feeApi) setClassFee(ctx echo.Context) error {
	var data fee.NewClassFee
	if err := bind(ctx, &data, "NewClassFee"); err != nil {
		return err
	}
	cf, err := api.svc.SetClassFee(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, cf)
}

func (api *feeApi) setCustomFee(ctx echo.Context) error {
	var data fee.NewCustomFee
	if err := bind(ctx, &data, "NewCustomFee"); err != nil {
		return err
	}
	cf, err := api.svc.SetCustomFee(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, cf)
}

func (api *feeApi) removeCustomFee(ctx echo.Context) error {
	err := api.svc.RemoveCustomFee(ctx.Request().Context(), ctx.Param("learnerId"), ctx.QueryParam(termParam))
	if err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *feeApi) report(ctx echo.Context) error {
	var q ReportQuery
	if err := q.Bind(ctx); err != nil {
		return err
	}
	report, err := api.svc.TermReport(ctx.Request().Context(), q.TermID, q.Status)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, report)
}

func (api *feeApi) reminders(ctx echo.Context) error {
	reminders, err := api.svc.Reminders(ctx.Request().Context(), bindReminderQuery(ctx))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, reminders)
}
