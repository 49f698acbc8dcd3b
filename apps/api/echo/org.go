package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/zawadi/chekechea/core/org"
	"github.com/zawadi/chekechea/core/user"
)

type orgApi struct {
	svc    org.ServiceInterface
	usrSvc user.ServiceInterface
}

// registerOrgAPI exposes the caller's own org. Creation happens through the
// admin CLI.
func registerOrgAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc org.ServiceInterface, usrSvc user.ServiceInterface) {
	api := orgApi{svc: svc, usrSvc: usrSvc}

	og := g.Group("/org", jwt)
	og.GET("", api.retrieve)
	og.PUT("", api.update, principalMiddleware())
}

func (api *orgApi) retrieve(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	o, err := api.svc.GetByID(ctx.Request().Context(), claims.OrgID)
	if err != nil {
		return errors.Wrap(err, "getting org")
	}
	return ctx.JSON(http.StatusOK, o)
}

func (api *orgApi) update(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	o, err := api.svc.GetByID(ctx.Request().Context(), claims.OrgID)
	if err != nil {
		return errors.Wrap(err, "getting org")
	}

	var data org.UpdateOrg
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateOrg")
	}
	if err := data.Validate(o); err != nil {
		return err
	}

	o, err = api.svc.Update(ctx.Request().Context(), o, data)
	if err != nil {
		return errors.Wrap(err, "updating org")
	}
	return ctx.JSON(http.StatusOK, o)
}
