package echoapi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/zawadi/chekechea/core"
	"github.com/zawadi/chekechea/core/menu"
)

// Menus change rarely; let clients cache reads for a bit.
const menuCacheMaxAge = time.Hour

type menuApi struct {
	svc menu.ServiceInterface
}

func registerMenuAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc menu.ServiceInterface) {
	api := menuApi{svc: svc}

	mg := g.Group("/menus", jwt)
	mg.PUT("", api.upsert, staffMiddleware())
	mg.GET("", api.query)
	mg.GET("/today", api.retrieveToday)
}

func (api *menuApi) upsert(ctx echo.Context) error {
	var data menu.UpsertMenu
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpsertMenu")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	m, err := api.svc.Upsert(ctx.Request().Context(), claims.OrgID, data)
	if err != nil {
		return errors.Wrap(err, "upserting menu")
	}
	return ctx.JSON(http.StatusOK, m)
}

// query returns the menu for ?date=, or the menus in [?from, ?to].
func (api *menuApi) query(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	if raw := ctx.QueryParam("date"); raw != "" {
		date, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return core.NewValidationError(nil, core.FieldError{Field: "date", Error: "must be formatted as YYYY-MM-DD"})
		}
		m, err := api.svc.GetByDate(ctx.Request().Context(), claims.OrgID, date)
		if err != nil {
			return err
		}
		setMenuCacheHeader(ctx)
		return ctx.JSON(http.StatusOK, m)
	}

	filter := new(menu.QueryFilter)
	if raw := ctx.QueryParam("from"); raw != "" {
		if filter.From, err = time.Parse("2006-01-02", raw); err != nil {
			return core.NewValidationError(nil, core.FieldError{Field: "from", Error: "must be formatted as YYYY-MM-DD"})
		}
	}
	if raw := ctx.QueryParam("to"); raw != "" {
		if filter.To, err = time.Parse("2006-01-02", raw); err != nil {
			return core.NewValidationError(nil, core.FieldError{Field: "to", Error: "must be formatted as YYYY-MM-DD"})
		}
	}

	menus, err := api.svc.Query(ctx.Request().Context(), claims.OrgID, filter)
	if err != nil {
		return errors.Wrap(err, "querying menus")
	}
	if menus == nil {
		menus = []menu.Menu{}
	}
	setMenuCacheHeader(ctx)
	return ctx.JSON(http.StatusOK, menus)
}

func (api *menuApi) retrieveToday(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	m, err := api.svc.GetByDate(ctx.Request().Context(), claims.OrgID, time.Now())
	if err != nil {
		return err
	}
	setMenuCacheHeader(ctx)
	return ctx.JSON(http.StatusOK, m)
}

func setMenuCacheHeader(ctx echo.Context) {
	ctx.Response().Header().Set("Cache-Control", fmt.Sprintf("private, max-age=%d", int(menuCacheMaxAge.Seconds())))
}
