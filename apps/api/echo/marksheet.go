package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/paramedico/console/core/marksheet"
)

type marksheetApi struct {
	svc marksheet.Service
}

func registerMarksheetAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := marksheetApi{svc: deps.MarksheetSvc}

	// public result lookup
	g.GET("/results/:serialNo", api.result)

	mg := g.Group("/marksheets", jwt)
	mg.POST("/total", api.total)
	mg.POST("/check-subject", api.checkSubject)
	mg.POST("", api.create)
	mg.GET("", api.query)
	mg.DELETE("", api.destroyMultiple, adminMiddleware())

	dg := mg.Group("/:id", objectMiddleware(api.loadMarksheet))
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.DELETE("", api.destroy, adminMiddleware())
}

type (
	TotalRequest struct {
		Marks    string `json:"marks"`
		Internal string `json:"internal"`
	}

	TotalResponse struct {
		Total string `json:"total"`
	}

	CheckSubjectRequest struct {
		Subject  marksheet.SubjectDraft    `json:"subject"`
		Subjects []marksheet.SubjectRecord `json:"subjects"` // already in the form
	}
)

func (api *marksheetApi) total(ctx echo.Context) error {
	var data TotalRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to TotalRequest")
	}
	return ctx.JSON(http.StatusOK, TotalResponse{Total: api.svc.CalculateTotal(data.Marks, data.Internal)})
}

func (api *marksheetApi) checkSubject(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context actor")
	}
	var data CheckSubjectRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CheckSubjectRequest")
	}
	return ctx.JSON(http.StatusOK, api.svc.ValidateDraft(actor, data.Subject, data.Subjects))
}

func (api *marksheetApi) create(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context actor")
	}
	var data marksheet.NewMarksheet
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewMarksheet")
	}

	ms, err := api.svc.Create(ctx.Request().Context(), actor, data)
	if err != nil {
		return errors.Wrap(err, "creating marksheet")
	}
	return ctx.JSON(http.StatusCreated, ms)
}

func (api *marksheetApi) query(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context actor")
	}

	var filter marksheet.QueryFilter
	if err = ctx.Bind(&filter); err != nil {
		return ctx.JSON(http.StatusOK, []marksheet.Marksheet{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	sheets, err := api.svc.Query(ctx.Request().Context(), actor, filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying marksheets")
	}
	if sheets == nil {
		sheets = []marksheet.Marksheet{}
	}
	return ctx.JSON(http.StatusOK, sheets)
}

func (api *marksheetApi) retrieve(ctx echo.Context) error {
	ms, err := contextObject[marksheet.Marksheet](ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, ms)
}

func (api *marksheetApi) update(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context actor")
	}
	ms, err := contextObject[marksheet.Marksheet](ctx)
	if err != nil {
		return err
	}

	var data marksheet.UpdateMarksheet
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateMarksheet")
	}

	ms, err = api.svc.Update(ctx.Request().Context(), actor, ms, data)
	if err != nil {
		return errors.Wrap(err, "updating marksheet")
	}
	return ctx.JSON(http.StatusOK, ms)
}

func (api *marksheetApi) destroy(ctx echo.Context) error {
	ms, err := contextObject[marksheet.Marksheet](ctx)
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), ms.ID); err != nil {
		return errors.Wrap(err, "deleting marksheet")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *marksheetApi) destroyMultiple(ctx echo.Context) error {
	var query DestroyMultipleRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to DestroyMultipleRequest")
	}
	if query.IDs == nil {
		return ctx.NoContent(http.StatusNoContent)
	}
	if err := api.svc.Delete(ctx.Request().Context(), query.IDs...); err != nil {
		return errors.Wrap(err, "deleting marksheets")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *marksheetApi) result(ctx echo.Context) error {
	res, err := api.svc.GetResult(ctx.Request().Context(), ctx.Param("serialNo"))
	if err != nil {
		return errors.Wrap(err, "finding marksheet result")
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *marksheetApi) loadMarksheet(ctx echo.Context, id string) (marksheet.Marksheet, error) {
	actor, err := getContextActor(ctx)
	if err != nil {
		return marksheet.Marksheet{}, errors.Wrap(err, "getting context actor")
	}
	ms, err := api.svc.Get(ctx.Request().Context(), actor, id)
	if err != nil {
		return marksheet.Marksheet{}, errors.Wrap(err, "finding marksheet by ID")
	}
	return ms, nil
}
