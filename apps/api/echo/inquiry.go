package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/paramedico/console/core/inquiry"
)

type inquiryApi struct {
	svc      inquiry.Service
	validate *validator.Validate
}

func registerInquiryAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := inquiryApi{svc: deps.InquirySvc, validate: deps.Validate}

	ig := g.Group("/inquiries")

	// admin endpoints; the group catch-all routes must be registered before the public ones
	ag := ig.Group("", jwt, adminMiddleware())
	ag.GET("", api.query)
	ag.DELETE("", api.destroyMultiple)

	dg := ag.Group("/:id", objectMiddleware(api.loadInquiry))
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.DELETE("", api.destroy)

	// public website forms
	ig.POST("", api.submit)
}

func (api *inquiryApi) submit(ctx echo.Context) error {
	var data inquiry.NewInquiry
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewInquiry")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	inq, err := api.svc.Submit(ctx.Request().Context(), ctx.RealIP(), data)
	if err != nil {
		return errors.Wrap(err, "submitting inquiry")
	}
	return ctx.JSON(http.StatusCreated, inq)
}

func (api *inquiryApi) query(ctx echo.Context) error {
	var filter inquiry.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return ctx.JSON(http.StatusOK, []inquiry.Inquiry{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	inquiries, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying inquiries")
	}
	if inquiries == nil {
		inquiries = []inquiry.Inquiry{}
	}
	return ctx.JSON(http.StatusOK, inquiries)
}

func (api *inquiryApi) retrieve(ctx echo.Context) error {
	inq, err := contextObject[inquiry.Inquiry](ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, inq)
}

func (api *inquiryApi) update(ctx echo.Context) error {
	inq, err := contextObject[inquiry.Inquiry](ctx)
	if err != nil {
		return err
	}

	var data inquiry.UpdateInquiry
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateInquiry")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	inq, err = api.svc.Update(ctx.Request().Context(), inq, data)
	if err != nil {
		return errors.Wrap(err, "updating inquiry")
	}
	return ctx.JSON(http.StatusOK, inq)
}

func (api *inquiryApi) destroy(ctx echo.Context) error {
	inq, err := contextObject[inquiry.Inquiry](ctx)
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), inq.ID); err != nil {
		return errors.Wrap(err, "deleting inquiry")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *inquiryApi) destroyMultiple(ctx echo.Context) error {
	var query DestroyMultipleRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to DestroyMultipleRequest")
	}
	if query.IDs == nil {
		return ctx.NoContent(http.StatusNoContent)
	}
	if err := api.svc.Delete(ctx.Request().Context(), query.IDs...); err != nil {
		return errors.Wrap(err, "deleting inquiries")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *inquiryApi) loadInquiry(ctx echo.Context, id string) (inquiry.Inquiry, error) {
	inq, err := api.svc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		return inquiry.Inquiry{}, errors.Wrap(err, "finding inquiry by ID")
	}
	return inq, nil
}
