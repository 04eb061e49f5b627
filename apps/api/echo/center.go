package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/paramedico/console/core/center"
	"github.com/paramedico/console/core/user"
)

type centerApi struct {
	svc      center.Service
	validate *validator.Validate
}

func registerCenterAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := centerApi{svc: deps.CenterSvc, validate: deps.Validate}

	cg := g.Group("/centers", jwt)
	cg.POST("", api.create, adminMiddleware())
	cg.GET("", api.query, adminMiddleware())
	cg.DELETE("", api.destroyMultiple, adminMiddleware())

	// detail endpoints: admins, or the center's own account
	dg := cg.Group("/:id", objectMiddleware(api.loadCenter))
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.DELETE("", api.destroy, adminMiddleware())
}

func (api *centerApi) create(ctx echo.Context) error {
	var data center.NewCenter
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCenter")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	c, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating center")
	}
	return ctx.JSON(http.StatusCreated, c)
}

func (api *centerApi) query(ctx echo.Context) error {
	var filter center.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return ctx.JSON(http.StatusOK, []center.Center{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	centers, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying centers")
	}
	if centers == nil {
		centers = []center.Center{}
	}
	return ctx.JSON(http.StatusOK, centers)
}

func (api *centerApi) retrieve(ctx echo.Context) error {
	c, err := contextObject[center.Center](ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *centerApi) update(ctx echo.Context) error {
	c, err := contextObject[center.Center](ctx)
	if err != nil {
		return err
	}

	var data center.UpdateCenter
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateCenter")
	}
	if data.IsActive != nil && !contextHasAnyRole(ctx, []string{user.RoleAdmin}) {
		return errHttpForbidden
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	c, err = api.svc.Update(ctx.Request().Context(), c, data)
	if err != nil {
		return errors.Wrap(err, "updating center")
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *centerApi) destroy(ctx echo.Context) error {
	c, err := contextObject[center.Center](ctx)
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), c.ID); err != nil {
		return errors.Wrap(err, "deleting center")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *centerApi) destroyMultiple(ctx echo.Context) error {
	var query DestroyMultipleRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to DestroyMultipleRequest")
	}
	if query.IDs == nil {
		return ctx.NoContent(http.StatusNoContent)
	}
	if err := api.svc.Delete(ctx.Request().Context(), query.IDs...); err != nil {
		return errors.Wrap(err, "deleting centers")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *centerApi) loadCenter(ctx echo.Context, id string) (center.Center, error) {
	actor, err := getContextActor(ctx)
	if err != nil {
		return center.Center{}, errors.Wrap(err, "getting context actor")
	}
	if !actor.CanAccessCenter(id) {
		return center.Center{}, center.ErrNotFound
	}
	c, err := api.svc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		return center.Center{}, errors.Wrap(err, "finding center by ID")
	}
	return c, nil
}
