package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/shule/core/school"
)

type schoolApi struct {
	svc *school.Service
}

func registerSchoolAPI(g *echo.Group, svc *school.Service) {
	api := schoolApi{svc: svc}

	g.GET("/classes", api.classes)

	tg := g.Group("/terms")
	tg.GET("/active", api.activeTerm)
	tg.PUT("/active", api.setActiveTerm)

	lg := g.Group("/learners")
	lg.GET("", api.learners)
	lg.POST("", api.register)
	lg.GET("/:id", api.retrieve)
	lg.DELETE("/:id", api.archive)
}

// Handlers

func (api *schoolApi) classes(ctx echo.Context) error {
	classes, err := api.svc.Classes(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, classes)
}

func (api *schoolApi) activeTerm(ctx echo.Context) error {
	term, err := api.svc.ActiveTerm(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, term)
}

func (api *schoolApi) setActiveTerm(ctx echo.Context) error {
	var data school.SetTerm
	if err := bind(ctx, &data, "SetTerm"); err != nil {
		return err
	}
	term, err := api.svc.SetActiveTerm(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, term)
}

func (api *schoolApi) learners(ctx echo.Context) error {
	filter := school.LearnerFilter{
		ClassID:         ctx.QueryParam("class_id"),
		IncludeInactive: ctx.QueryParam("include_inactive") == "true",
	}
	learners, err := api.svc.Learners(ctx.Request().Context(), filter)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, learners)
}

func (api *schoolApi) register(ctx echo.Context) error {
	var data school.NewLearner
	if err := bind(ctx, &data, "NewLearner"); err != nil {
		return err
	}
	lrn, err := api.svc.RegisterLearner(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, lrn)
}

func (api *schoolApi) retrieve(ctx echo.Context) error {
	lrn, err := api.svc.GetLearner(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, lrn)
}

func (api *schoolApi) archive(ctx echo.Context) error {
	if err := api.svc.ArchiveLearner(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}
