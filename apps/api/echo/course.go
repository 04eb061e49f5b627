package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/paramedico/console/core"
	"github.com/paramedico/console/core/course"
)

type courseApi struct {
	svc      course.Service
	validate *validator.Validate
}

func registerCourseAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := courseApi{svc: deps.CourseSvc, validate: deps.Validate}

	cg := g.Group("/courses")

	// admin endpoints; the group catch-all routes must be registered before the public ones
	ag := cg.Group("", jwt, adminMiddleware())
	ag.POST("", api.create)
	ag.DELETE("", api.destroyMultiple)

	dg := ag.Group("/:id", objectMiddleware(api.loadCourse))
	dg.PUT("", api.update)
	dg.DELETE("", api.destroy)
	dg.POST("/subjects", api.addSubject)
	dg.DELETE("/subjects/:subjectId", api.removeSubject)

	// public endpoints (website program pages)
	cg.GET("", api.query)
	cg.GET("/suggest", api.suggest)
	cg.GET("/:id", api.retrieve, objectMiddleware(api.loadCourse))
}

func (api *courseApi) create(ctx echo.Context) error {
	var data course.NewCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCourse")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	c, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating course")
	}
	return ctx.JSON(http.StatusCreated, c)
}

func (api *courseApi) query(ctx echo.Context) error {
	var filter course.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return ctx.JSON(http.StatusOK, []course.Course{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	courses, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	if courses == nil {
		courses = []course.Course{}
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (api *courseApi) suggest(ctx echo.Context) error {
	var sq SuggestQuery
	sq.Bind(ctx)

	opts, err := api.svc.Suggest(ctx.Request().Context(), sq.Query, sq.Limit)
	if err != nil {
		return errors.Wrap(err, "suggesting courses")
	}
	return ctx.JSON(http.StatusOK, opts)
}

func (api *courseApi) retrieve(ctx echo.Context) error {
	c, err := contextObject[course.Course](ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *courseApi) update(ctx echo.Context) error {
	c, err := contextObject[course.Course](ctx)
	if err != nil {
		return err
	}

	var data course.UpdateCourse
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateCourse")
	}
	if err = data.Validate(c, api.validate); err != nil {
		return err
	}

	c, err = api.svc.Update(ctx.Request().Context(), c, data)
	if err != nil {
		return errors.Wrap(err, "updating course")
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *courseApi) addSubject(ctx echo.Context) error {
	c, err := contextObject[course.Course](ctx)
	if err != nil {
		return err
	}

	var data course.CatalogueSubject
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CatalogueSubject")
	}
	data.ID = ""
	data.Name = core.CleanString(data.Name)
	if err = api.validate.Struct(data); err != nil {
		return err
	}

	c, err = api.svc.AddSubject(ctx.Request().Context(), c, data)
	if err != nil {
		return errors.Wrap(err, "adding course subject")
	}
	return ctx.JSON(http.StatusCreated, c)
}

func (api *courseApi) removeSubject(ctx echo.Context) error {
	c, err := contextObject[course.Course](ctx)
	if err != nil {
		return err
	}
	c, err = api.svc.RemoveSubject(ctx.Request().Context(), c, ctx.Param("subjectId"))
	if err != nil {
		return errors.Wrap(err, "removing course subject")
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *courseApi) destroy(ctx echo.Context) error {
	c, err := contextObject[course.Course](ctx)
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), c.ID); err != nil {
		return errors.Wrap(err, "deleting course")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *courseApi) destroyMultiple(ctx echo.Context) error {
	var query DestroyMultipleRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to DestroyMultipleRequest")
	}
	if query.IDs == nil {
		return ctx.NoContent(http.StatusNoContent)
	}
	if err := api.svc.Delete(ctx.Request().Context(), query.IDs...); err != nil {
		return errors.Wrap(err, "deleting courses")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *courseApi) loadCourse(ctx echo.Context, id string) (course.Course, error) {
	c, err := api.svc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		return course.Course{}, errors.Wrap(err, "finding course by ID")
	}
	return c, nil
}
