package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/LestlinRobins/skilldom-BitnBuild/core"
)

type fileApi struct {
	svc core.FileService
}

func registerFileAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc core.FileService) {
	api := fileApi{svc: svc}

	fg := g.Group("/files", jwt)
	fg.POST("", api.upload)
	fg.DELETE("", api.destroy)
}

// Handlers

func (api *fileApi) upload(ctx echo.Context) error {
	fh, err := ctx.FormFile("file")
	if err != nil {
		return core.NewValidationError(nil, core.FieldError{Field: "file", Error: "file is required"})
	}
	dir := ctx.FormValue("dir")
	if dir == "" {
		dir = "media"
	}

	src, err := fh.Open()
	if err != nil {
		return errors.Wrap(err, "opening upload")
	}
	defer func() { _ = src.Close() }()

	url, err := api.svc.Upload(ctx.Request().Context(), dir, fh.Filename, src)
	if err != nil {
		return errors.Wrap(err, "storing upload")
	}
	return ctx.JSON(http.StatusCreated, FileResponse{URL: url})
}

func (api *fileApi) destroy(ctx echo.Context) error {
	url := ctx.QueryParam("url")
	if url == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "url", Error: "url is required"})
	}

	if err := api.svc.Delete(ctx.Request().Context(), url); err != nil {
		return errors.Wrap(err, "deleting upload")
	}
	return ctx.NoContent(http.StatusNoContent)
}

type FileResponse struct {
	URL string `json:"url"`
}
