package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/LestlinRobins/skilldom-BitnBuild/core/course"
	"github.com/LestlinRobins/skilldom-BitnBuild/core/project"
)

// courseOwnerMiddleware loads the course under :id into the context and lets
// only its teacher through.
func courseOwnerMiddleware(svc course.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}

			crs, err := svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
			if err != nil {
				if errors.Cause(err) == course.ErrNotFound {
					return errHttpNotFound
				}
				return errors.Wrap(err, "finding course by ID")
			}
			if crs.TeacherID != claims.Subject {
				return errHttpForbidden
			}
			ctx.Set("object", crs)
			return next(ctx)
		}
	}
}

// projectCreatorMiddleware loads the project under :id into the context and
// lets only its creator through.
func projectCreatorMiddleware(svc project.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}

			prj, err := svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
			if err != nil {
				if errors.Cause(err) == project.ErrNotFound {
					return errHttpNotFound
				}
				return errors.Wrap(err, "finding project by ID")
			}
			if prj.CreatorID != claims.Subject {
				return errHttpForbidden
			}
			ctx.Set("object", prj)
			return next(ctx)
		}
	}
}
