package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/promotion"
)

type promotionApi struct {
	svc *promotion.Service
}

type planResponse struct {
	promotion.Plan
	Error string `json:"error,omitempty"`
}

// PromoteRequest carries the plans returned by GET /promotions/:classId/plan, as reviewed.
type PromoteRequest struct {
	Plans []promotion.Plan `json:"plans"`
}

func registerPromotionAPI(g *echo.Group, svc *promotion.Service) {
	api := promotionApi{svc: svc}

	pg := g.Group("/promotions/:classId")
	pg.GET("/plan", api.plan)
	pg.POST("", api.promote)
}

// Handlers

func (api *promotionApi) plan(ctx echo.Context) error {
	plans, err := api.svc.Preview(ctx.Request().Context(), ctx.Param("classId"))
	if err != nil {
		return err
	}
	resp := make([]planResponse, 0, len(plans))
	for _, p := range plans {
		pr := planResponse{Plan: p}
		if p.Err != nil {
			pr.Error = p.Err.Error()
		}
		resp = append(resp, pr)
	}
	return ctx.JSON(http.StatusOK, resp)
}

func (api *promotionApi) promote(ctx echo.Context) error {
	var data PromoteRequest
	if err := bind(ctx, &data, "PromoteRequest"); err != nil {
		return err
	}
	if len(data.Plans) == 0 {
		return core.NewValidationError(nil, core.FieldError{Field: "plans", Error: "the previewed plans are required"})
	}
	report, err := api.svc.Apply(ctx.Request().Context(), ctx.Param("classId"), data.Plans)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, report)
}
