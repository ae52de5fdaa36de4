package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/LestlinRobins/skilldom-BitnBuild/core"
	"github.com/LestlinRobins/skilldom-BitnBuild/core/course"
)

var errCrsNotFoundInCtx = errors.New("course object not found in echo.Context")

type courseApi struct {
	svc  course.Service
	conf *core.Config
}

func registerCourseAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc course.Service, conf *core.Config) {
	api := courseApi{svc: svc, conf: conf}

	cg := g.Group("/courses", jwt)
	cg.POST("", api.create)
	cg.GET("", api.query)
	cg.GET("/:id", api.retrieve)
	cg.POST("/:id/enroll", api.enroll)
	cg.POST("/:id/complete", api.complete)

	// teacher-only endpoints
	og := cg.Group("/:id", courseOwnerMiddleware(svc))
	og.PUT("", api.update)
	og.DELETE("", api.destroy)
}

// Handlers

func (api *courseApi) create(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var data course.NewCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCourse")
	}
	data.TeacherID = claims.Subject // the caller teaches their own courses
	if err := data.Validate(); err != nil {
		return err
	}

	crs, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating course")
	}
	return ctx.JSON(http.StatusCreated, crs)
}

func (api *courseApi) query(ctx echo.Context) error {
	filter := new(course.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
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

func (api *courseApi) retrieve(ctx echo.Context) error {
	crs, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, crs)
}

func (api *courseApi) update(ctx echo.Context) error {
	crs, ok := ctx.Get("object").(course.Course)
	if !ok {
		return errors.Wrap(errCrsNotFoundInCtx, "retrieving object from context")
	}

	var data course.UpdateCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateCourse")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	crs, err := api.svc.Update(ctx.Request().Context(), crs.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating course")
	}
	return ctx.JSON(http.StatusOK, crs)
}

func (api *courseApi) destroy(ctx echo.Context) error {
	crs, ok := ctx.Get("object").(course.Course)
	if !ok {
		return errors.Wrap(errCrsNotFoundInCtx, "retrieving object from context")
	}

	if err := api.svc.Delete(ctx.Request().Context(), crs.ID); err != nil {
		return errors.Wrap(err, "deleting course")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// enroll debits the caller with the course price and registers the enrollment.
func (api *courseApi) enroll(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	crs, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}

	learner, err := api.svc.Enroll(ctx.Request().Context(), claims.Subject, crs.ID, crs.SVCValue)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, learner)
}

// complete settles the caller's enrollment: the flat reward goes to the
// learner, the course price to the teacher.
func (api *courseApi) complete(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	learner, err := api.svc.Complete(ctx.Request().Context(), claims.Subject, ctx.Param("id"), api.conf.SVC.DefaultReward)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, learner)
}
