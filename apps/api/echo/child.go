package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/zawadi/chekechea/core/child"
	"github.com/zawadi/chekechea/core/user"
)

type childApi struct {
	svc    child.ServiceInterface
	usrSvc user.ServiceInterface
}

func registerChildAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc child.ServiceInterface, usrSvc user.ServiceInterface) {
	api := childApi{svc: svc, usrSvc: usrSvc}

	rg := g.Group("/rooms", jwt)
	rg.POST("", api.createRoom, principalMiddleware())
	rg.GET("", api.queryRooms, staffMiddleware())
	rg.GET("/:id", api.retrieveRoom, staffMiddleware())
	rg.PUT("/:id", api.renameRoom, principalMiddleware())
	rg.DELETE("/:id", api.destroyRoom, principalMiddleware())

	cg := g.Group("/children", jwt)
	cg.POST("", api.create, staffMiddleware())
	cg.GET("", api.query)
	cg.GET("/:id", api.retrieve)
	cg.PUT("/:id", api.update, staffMiddleware())
	cg.DELETE("/:id", api.destroy, principalMiddleware())

	// guardian links
	cg.GET("/:id/guardians", api.queryGuardians, staffMiddleware())
	cg.PUT("/:id/guardians/:guardianID", api.linkGuardian, staffMiddleware(user.RoleStaffPrincipal))
	cg.DELETE("/:id/guardians/:guardianID", api.unlinkGuardian, staffMiddleware(user.RoleStaffPrincipal))
}

// Room handlers

func (api *childApi) createRoom(ctx echo.Context) error {
	var data child.NewRoom
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewRoom")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	r, err := api.svc.CreateRoom(ctx.Request().Context(), claims.OrgID, data)
	if err != nil {
		return errors.Wrap(err, "creating room")
	}
	return ctx.JSON(http.StatusCreated, r)
}

func (api *childApi) queryRooms(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	rooms, err := api.svc.QueryRooms(ctx.Request().Context(), claims.OrgID)
	if err != nil {
		return errors.Wrap(err, "querying rooms")
	}
	if rooms == nil {
		rooms = []child.Room{}
	}
	return ctx.JSON(http.StatusOK, rooms)
}

func (api *childApi) retrieveRoom(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	r, err := api.svc.GetRoom(ctx.Request().Context(), claims.OrgID, ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, r)
}

func (api *childApi) renameRoom(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	r, err := api.svc.GetRoom(ctx.Request().Context(), claims.OrgID, ctx.Param("id"))
	if err != nil {
		return err
	}

	var data child.NewRoom
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewRoom")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	r, err = api.svc.RenameRoom(ctx.Request().Context(), r, data)
	if err != nil {
		return errors.Wrap(err, "renaming room")
	}
	return ctx.JSON(http.StatusOK, r)
}

func (api *childApi) destroyRoom(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	if err := api.svc.DeleteRoom(ctx.Request().Context(), claims.OrgID, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting room")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Child handlers

func (api *childApi) create(ctx echo.Context) error {
	var data child.NewChild
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewChild")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	c, err := api.svc.Create(ctx.Request().Context(), claims.OrgID, data)
	if err != nil {
		return errors.Wrap(err, "creating child")
	}
	return ctx.JSON(http.StatusCreated, c)
}

// query returns the org roster for staff; guardians only see their own
// children.
func (api *childApi) query(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	if usr.IsGuardian() && !usr.IsStaff() {
		children, err := api.svc.ChildrenOfGuardian(ctx.Request().Context(), usr.ID)
		if err != nil {
			return errors.Wrap(err, "querying guardian children")
		}
		if children == nil {
			children = []child.Child{}
		}
		return ctx.JSON(http.StatusOK, children)
	}

	filter := new(child.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []child.Child{})
	}
	filter.Clean()

	children, err := api.svc.Query(ctx.Request().Context(), usr.OrgID, filter)
	if err != nil {
		return errors.Wrap(err, "querying children")
	}
	if children == nil {
		children = []child.Child{}
	}
	return ctx.JSON(http.StatusOK, children)
}

func (api *childApi) retrieve(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	c, err := api.svc.GetByID(ctx.Request().Context(), usr.OrgID, ctx.Param("id"))
	if err != nil {
		return err
	}

	// guardians only see their own children
	if usr.IsGuardian() && !usr.IsStaff() {
		guardianIDs, err := api.svc.GuardianIDs(ctx.Request().Context(), c.ID)
		if err != nil {
			return errors.Wrap(err, "querying guardians")
		}
		var linked bool
		for _, id := range guardianIDs {
			if id == usr.ID {
				linked = true
				break
			}
		}
		if !linked {
			return errHttpNotFound
		}
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *childApi) update(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	c, err := api.svc.GetByID(ctx.Request().Context(), claims.OrgID, ctx.Param("id"))
	if err != nil {
		return err
	}

	var data child.UpdateChild
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateChild")
	}
	if err := data.Validate(c); err != nil {
		return err
	}

	c, err = api.svc.Update(ctx.Request().Context(), c, data)
	if err != nil {
		return errors.Wrap(err, "updating child")
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *childApi) destroy(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	c, err := api.svc.GetByID(ctx.Request().Context(), claims.OrgID, ctx.Param("id"))
	if err != nil {
		return err
	}
	if err := api.svc.SoftDelete(ctx.Request().Context(), c); err != nil {
		return errors.Wrap(err, "deleting child")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Guardian link handlers

func (api *childApi) queryGuardians(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	c, err := api.svc.GetByID(ctx.Request().Context(), claims.OrgID, ctx.Param("id"))
	if err != nil {
		return err
	}

	ids, err := api.svc.GuardianIDs(ctx.Request().Context(), c.ID)
	if err != nil {
		return errors.Wrap(err, "querying guardians")
	}
	guardians := make([]user.User, 0, len(ids))
	for _, id := range ids {
		usr, err := api.usrSvc.GetByID(ctx.Request().Context(), id)
		if err != nil {
			if errors.Cause(err) == user.ErrNotFound {
				continue
			}
			return errors.Wrap(err, "getting guardian")
		}
		guardians = append(guardians, usr)
	}
	return ctx.JSON(http.StatusOK, guardians)
}

func (api *childApi) linkGuardian(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	c, err := api.svc.GetByID(ctx.Request().Context(), claims.OrgID, ctx.Param("id"))
	if err != nil {
		return err
	}

	guardian, err := api.usrSvc.GetByID(ctx.Request().Context(), ctx.Param("guardianID"))
	if err != nil {
		return err
	}
	if guardian.OrgID != claims.OrgID || !guardian.IsGuardian() {
		return errHttpNotFound
	}

	var data child.NewGuardianLink
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewGuardianLink")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	if err := api.svc.LinkGuardian(ctx.Request().Context(), c.ID, guardian.ID, data); err != nil {
		return errors.Wrap(err, "linking guardian")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *childApi) unlinkGuardian(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	c, err := api.svc.GetByID(ctx.Request().Context(), claims.OrgID, ctx.Param("id"))
	if err != nil {
		return err
	}
	if err := api.svc.UnlinkGuardian(ctx.Request().Context(), c.ID, ctx.Param("guardianID")); err != nil {
		return errors.Wrap(err, "unlinking guardian")
	}
	return ctx.NoContent(http.StatusNoContent)
}
