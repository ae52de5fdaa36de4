package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/LestlinRobins/skilldom-BitnBuild/core/project"
)

var errPrjNotFoundInCtx = errors.New("project object not found in echo.Context")

type projectApi struct {
	svc project.Service
}

func registerProjectAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc project.Service) {
	api := projectApi{svc: svc}

	pg := g.Group("/projects", jwt)
	pg.POST("", api.create)
	pg.GET("", api.query)
	pg.GET("/:id", api.retrieve)
	pg.POST("/:id/join", api.join)
	pg.POST("/:id/leave", api.leave)
	pg.POST("/:id/applications", api.apply)

	// creator-only endpoints
	og := pg.Group("/:id", projectCreatorMiddleware(svc))
	og.PUT("", api.update)
	og.DELETE("", api.destroy)
	og.PUT("/status", api.setStatus)
	og.GET("/applications", api.queryApplications)
	og.PUT("/applications/:appID", api.reviewApplication)
}

// Handlers

func (api *projectApi) create(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var data project.NewProject
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewProject")
	}
	data.CreatorID = claims.Subject
	if err := data.Validate(); err != nil {
		return err
	}

	prj, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating project")
	}
	return ctx.JSON(http.StatusCreated, prj)
}

func (api *projectApi) query(ctx echo.Context) error {
	filter := new(project.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []project.Project{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	projects, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying projects")
	}
	if projects == nil {
		projects = []project.Project{}
	}
	return ctx.JSON(http.StatusOK, projects)
}

func (api *projectApi) retrieve(ctx echo.Context) error {
	prj, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, prj)
}

func (api *projectApi) update(ctx echo.Context) error {
	prj, ok := ctx.Get("object").(project.Project)
	if !ok {
		return errors.Wrap(errPrjNotFoundInCtx, "retrieving object from context")
	}

	var data project.UpdateProject
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateProject")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	prj, err := api.svc.Update(ctx.Request().Context(), prj.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating project")
	}
	return ctx.JSON(http.StatusOK, prj)
}

func (api *projectApi) destroy(ctx echo.Context) error {
	prj, ok := ctx.Get("object").(project.Project)
	if !ok {
		return errors.Wrap(errPrjNotFoundInCtx, "retrieving object from context")
	}

	if err := api.svc.Delete(ctx.Request().Context(), prj.ID); err != nil {
		return errors.Wrap(err, "deleting project")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *projectApi) setStatus(ctx echo.Context) error {
	prj, ok := ctx.Get("object").(project.Project)
	if !ok {
		return errors.Wrap(errPrjNotFoundInCtx, "retrieving object from context")
	}

	var data StatusRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to StatusRequest")
	}

	prj, err := api.svc.SetStatus(ctx.Request().Context(), prj.ID, data.Status)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, prj)
}

func (api *projectApi) join(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	prj, err := api.svc.Join(ctx.Request().Context(), ctx.Param("id"), claims.Subject)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, prj)
}

func (api *projectApi) leave(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	prj, err := api.svc.Leave(ctx.Request().Context(), ctx.Param("id"), claims.Subject)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, prj)
}

func (api *projectApi) apply(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var data project.NewApplication
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewApplication")
	}
	data.ProjectID = ctx.Param("id")
	data.ApplicantID = claims.Subject
	if err := data.Validate(); err != nil {
		return err
	}

	app, err := api.svc.Apply(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, app)
}

func (api *projectApi) queryApplications(ctx echo.Context) error {
	prj, ok := ctx.Get("object").(project.Project)
	if !ok {
		return errors.Wrap(errPrjNotFoundInCtx, "retrieving object from context")
	}

	apps, err := api.svc.QueryApplications(ctx.Request().Context(), prj.ID)
	if err != nil {
		return errors.Wrap(err, "querying applications")
	}
	if apps == nil {
		apps = []project.Application{}
	}
	return ctx.JSON(http.StatusOK, apps)
}

func (api *projectApi) reviewApplication(ctx echo.Context) error {
	if _, ok := ctx.Get("object").(project.Project); !ok {
		return errors.Wrap(errPrjNotFoundInCtx, "retrieving object from context")
	}

	var data StatusRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to StatusRequest")
	}

	app, err := api.svc.ReviewApplication(ctx.Request().Context(), ctx.Param("appID"), data.Status)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, app)
}

type StatusRequest struct {
	Status string `json:"status"`
}
