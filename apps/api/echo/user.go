package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/zawadi/chekechea/core"
	"github.com/zawadi/chekechea/core/user"
)

var (
	errNoPermsToSetRoles = "not enough rights to set these roles"
	errNoSelfDelete      = "cannot delete own account"
)

type userApi struct {
	svc user.ServiceInterface
}

func registerUserAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc user.ServiceInterface) {
	api := userApi{svc: svc}

	ug := g.Group("/users")

	// un-authed endpoint: invited users activate their account with the
	// emailed token.
	ug.POST("/accept-invite", api.acceptInvite)

	// authed endpoints
	ag := ug.Group("", jwt)
	ag.POST("/invite", api.invite, staffMiddleware())
	ag.GET("", api.query, staffMiddleware())
	ag.DELETE("", api.destroyMultiple, principalMiddleware())
	ag.GET("/roles", api.queryRoles, staffMiddleware())
	ag.GET("/me", api.retrieveSelf)

	dg := ag.Group("/:id")
	dg.GET("", api.retrieve, staffMiddleware())
	dg.PUT("", api.update)
	dg.DELETE("", api.destroy, principalMiddleware())
}

// Handlers

func (api *userApi) invite(ctx echo.Context) error {
	var data user.NewUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}

	ctxUsr, err := getContextUser(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if err := data.Validate(api.svc, ctxUsr.OrgID); err != nil {
		return err
	}
	// ctxUser cannot set a role > their own max role
	if user.MaxRolePriority(data.Roles) > user.MaxRolePriority(ctxUsr.Roles) {
		return core.NewValidationError(nil, core.FieldError{Field: "roles", Error: errNoPermsToSetRoles})
	}

	usr, err := api.svc.Invite(ctx.Request().Context(), ctxUsr.OrgID, data)
	if err != nil {
		return errors.Wrap(err, "inviting user")
	}
	return ctx.JSON(http.StatusCreated, usr)
}

func (api *userApi) acceptInvite(ctx echo.Context) error {
	var data user.AcceptInvite
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AcceptInvite")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	usr, err := api.svc.AcceptInvite(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "accepting invite")
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userApi) query(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	filter := new(user.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []user.User{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	users, err := api.svc.Query(ctx.Request().Context(), ctxUsr.OrgID, filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying users")
	}
	if users == nil {
		users = []user.User{}
	}
	return ctx.JSON(http.StatusOK, users)
}

func (api *userApi) queryRoles(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, user.Roles)
}

func (api *userApi) retrieveSelf(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	usr, err = api.svc.SetLastSeen(ctx.Request().Context(), usr)
	if err != nil {
		return errors.Wrap(err, "setting lastSeen")
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userApi) retrieve(ctx echo.Context) error {
	usr, err := api.getObject(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userApi) update(ctx echo.Context) error {
	usr, err := api.getObject(ctx)
	if err != nil {
		return err
	}

	var data user.UpdateUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateUser")
	}

	ctxUsr, err := getContextUser(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if !ctxUsr.IsPrincipal() {
		// only principals may touch other users, roles or activation
		if ctxUsr.ID != usr.ID || data.IsActive != nil || data.Roles != nil {
			return errHttpForbidden
		}
	}
	if user.MaxRolePriority(data.Roles) > user.MaxRolePriority(ctxUsr.Roles) {
		return core.NewValidationError(nil, core.FieldError{Field: "roles", Error: errNoPermsToSetRoles})
	}

	if err := data.Validate(usr, api.svc); err != nil {
		return err
	}
	usr, err = api.svc.Update(ctx.Request().Context(), usr, data)
	if err != nil {
		return errors.Wrap(err, "updating user")
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userApi) destroy(ctx echo.Context) error {
	usr, err := api.getObject(ctx)
	if err != nil {
		return err
	}
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	if usr.ID == claims.Subject {
		return core.NewValidationError(nil, core.FieldError{Field: "id", Error: errNoSelfDelete})
	}
	if err := api.svc.Delete(ctx.Request().Context(), usr.OrgID, usr.ID); err != nil {
		return errors.Wrap(err, "deleting user")
	}
	return ctx.NoContent(http.StatusNoContent)
}

type destroyMultipleRequest struct {
	IDs []string `json:"ids" validate:"required,min=1"`
}

func (api *userApi) destroyMultiple(ctx echo.Context) error {
	var data destroyMultipleRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to destroyMultipleRequest")
	}
	if err := core.Validate.Struct(&data); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	for _, id := range data.IDs {
		if id == ctxUsr.ID {
			return core.NewValidationError(nil, core.FieldError{Field: "ids", Error: errNoSelfDelete})
		}
	}
	if err := api.svc.Delete(ctx.Request().Context(), ctxUsr.OrgID, data.IDs...); err != nil {
		return errors.Wrap(err, "deleting users")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// getObject fetches the :id user, scoped to the caller's org.
func (api *userApi) getObject(ctx echo.Context) (user.User, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return user.User{}, err
	}
	usr, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return user.User{}, err
	}
	if usr.OrgID != claims.OrgID {
		return user.User{}, errHttpNotFound
	}
	return usr, nil
}
