package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/zawadi/chekechea/core/announce"
	"github.com/zawadi/chekechea/core/child"
	"github.com/zawadi/chekechea/core/user"
)

type announcementApi struct {
	svc    announce.ServiceInterface
	usrSvc user.ServiceInterface
	chdSvc child.ServiceInterface
}

func registerAnnouncementAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc announce.ServiceInterface,
	usrSvc user.ServiceInterface,
	chdSvc child.ServiceInterface,
) {
	api := announcementApi{svc: svc, usrSvc: usrSvc, chdSvc: chdSvc}

	ag := g.Group("/announcements", jwt)
	ag.POST("", api.create, staffMiddleware())
	ag.GET("", api.query)
	ag.GET("/:id", api.retrieve)
	ag.PUT("/:id", api.update, staffMiddleware())
	ag.POST("/:id/publish", api.publish, staffMiddleware())
	ag.POST("/:id/pin", api.pin, staffMiddleware(user.RoleStaffPrincipal))
	ag.DELETE("/:id/pin", api.unpin, staffMiddleware(user.RoleStaffPrincipal))
	ag.DELETE("/:id", api.destroy, staffMiddleware())
}

func (api *announcementApi) create(ctx echo.Context) error {
	var data announce.NewAnnouncement
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAnnouncement")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	a, err := api.svc.Create(ctx.Request().Context(), claims.OrgID, claims.Subject, data)
	if err != nil {
		return errors.Wrap(err, "creating announcement")
	}
	return ctx.JSON(http.StatusCreated, a)
}

func (api *announcementApi) query(ctx echo.Context) error {
	viewer, err := getContextViewer(ctx, api.usrSvc, api.chdSvc)
	if err != nil {
		return err
	}

	filter := new(announce.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []announce.Announcement{})
	}
	filter.Clean()

	anns, err := api.svc.Query(ctx.Request().Context(), viewer, filter)
	if err != nil {
		return errors.Wrap(err, "querying announcements")
	}
	if anns == nil {
		anns = []announce.Announcement{}
	}
	return ctx.JSON(http.StatusOK, anns)
}

func (api *announcementApi) retrieve(ctx echo.Context) error {
	viewer, err := getContextViewer(ctx, api.usrSvc, api.chdSvc)
	if err != nil {
		return err
	}
	a, err := api.svc.GetByID(ctx.Request().Context(), viewer, ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, a)
}

func (api *announcementApi) update(ctx echo.Context) error {
	a, err := api.getOwnedObject(ctx)
	if err != nil {
		return err
	}

	var data announce.UpdateAnnouncement
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateAnnouncement")
	}
	if err := data.Validate(a); err != nil {
		return err
	}

	a, err = api.svc.Update(ctx.Request().Context(), a, data)
	if err != nil {
		return errors.Wrap(err, "updating announcement")
	}
	return ctx.JSON(http.StatusOK, a)
}

func (api *announcementApi) publish(ctx echo.Context) error {
	a, err := api.getOwnedObject(ctx)
	if err != nil {
		return err
	}
	a, err = api.svc.Publish(ctx.Request().Context(), a)
	if err != nil {
		if errors.Cause(err) == announce.ErrAlreadyPublished {
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return errors.Wrap(err, "publishing announcement")
	}
	return ctx.JSON(http.StatusOK, a)
}

func (api *announcementApi) pin(ctx echo.Context) error {
	return api.setPinned(ctx, true)
}

func (api *announcementApi) unpin(ctx echo.Context) error {
	return api.setPinned(ctx, false)
}

func (api *announcementApi) setPinned(ctx echo.Context, pinned bool) error {
	a, err := api.getObject(ctx)
	if err != nil {
		return err
	}
	a, err = api.svc.SetPinned(ctx.Request().Context(), a, pinned)
	if err != nil {
		return errors.Wrap(err, "pinning announcement")
	}
	return ctx.JSON(http.StatusOK, a)
}

func (api *announcementApi) destroy(ctx echo.Context) error {
	a, err := api.getOwnedObject(ctx)
	if err != nil {
		return err
	}
	if err := api.svc.SoftDelete(ctx.Request().Context(), a); err != nil {
		return errors.Wrap(err, "deleting announcement")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// getObject fetches the :id announcement through the caller's viewer.
func (api *announcementApi) getObject(ctx echo.Context) (announce.Announcement, error) {
	viewer, err := getContextViewer(ctx, api.usrSvc, api.chdSvc)
	if err != nil {
		return announce.Announcement{}, err
	}
	return api.svc.GetByID(ctx.Request().Context(), viewer, ctx.Param("id"))
}

// getOwnedObject additionally requires the caller to be the author or a
// principal; any staff may create, only these may mutate.
func (api *announcementApi) getOwnedObject(ctx echo.Context) (announce.Announcement, error) {
	viewer, err := getContextViewer(ctx, api.usrSvc, api.chdSvc)
	if err != nil {
		return announce.Announcement{}, err
	}
	a, err := api.svc.GetByID(ctx.Request().Context(), viewer, ctx.Param("id"))
	if err != nil {
		return announce.Announcement{}, err
	}
	if a.AuthorID != viewer.UserID && !viewer.IsPrincipal {
		return announce.Announcement{}, errHttpForbidden
	}
	return a, nil
}
