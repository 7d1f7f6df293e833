package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/lpg-distribution/internal/middleware"
	"github.com/iliyamo/lpg-distribution/internal/model"
	"github.com/iliyamo/lpg-distribution/internal/repository"
)

// dbTimeout bounds every handler-initiated database call.
const dbTimeout = 5 * time.Second

func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), dbTimeout)
}

func okJSON(c echo.Context, status int, data any) error {
	return c.JSON(status, echo.Map{"success": true, "data": data})
}

func okMessage(c echo.Context, status int, msg string) error {
	return c.JSON(status, echo.Map{"success": true, "message": msg})
}

func failJSON(c echo.Context, status int, msg string) error {
	return c.JSON(status, echo.Map{"success": false, "error": msg})
}

// mustActor pulls the resolved identity out of the context.  Routes behind
// JWTAuth always have one; a miss means the route was wired wrong.
func mustActor(c echo.Context) (model.Actor, bool) {
	return middleware.ActorFrom(c)
}

// failRepo maps repository and workflow errors onto HTTP responses so every
// handler reports the same shapes for the same failures.
func failRepo(c echo.Context, err error, fallback string) error {
	var decided *model.AlreadyDecidedError
	var missing *model.MissingFieldError
	switch {
	case errors.Is(err, sql.ErrNoRows), errors.Is(err, repository.ErrNotFound):
		return failJSON(c, http.StatusNotFound, "not found")
	case errors.Is(err, repository.ErrForbidden):
		return failJSON(c, http.StatusForbidden, "forbidden")
	case errors.Is(err, repository.ErrConflict), errors.Is(err, repository.ErrEmailExists):
		return failJSON(c, http.StatusConflict, err.Error())
	case errors.As(err, &decided):
		return failJSON(c, http.StatusConflict, decided.Error())
	case errors.As(err, &missing):
		return failJSON(c, http.StatusUnprocessableEntity, missing.Error())
	case errors.Is(err, model.ErrInsufficientStock), errors.Is(err, model.ErrStockInvariant):
		return failJSON(c, http.StatusUnprocessableEntity, err.Error())
	default:
		return failJSON(c, http.StatusInternalServerError, fallback)
	}
}

// pageParams reads ?limit= and ?offset= with sane caps.
func pageParams(c echo.Context) (limit, offset int) {
	limit = 50
	if v, err := strconv.Atoi(c.QueryParam("limit")); err == nil && v > 0 && v <= 200 {
		limit = v
	}
	if v, err := strconv.Atoi(c.QueryParam("offset")); err == nil && v >= 0 {
		offset = v
	}
	return limit, offset
}

func pathID(c echo.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	return id, err == nil && id > 0
}
