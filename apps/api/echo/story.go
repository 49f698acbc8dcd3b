package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/zawadi/chekechea/core/child"
	"github.com/zawadi/chekechea/core/story"
	"github.com/zawadi/chekechea/core/user"
)

type storyApi struct {
	svc    story.ServiceInterface
	usrSvc user.ServiceInterface
	chdSvc child.ServiceInterface
}

func registerStoryAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc story.ServiceInterface,
	usrSvc user.ServiceInterface,
	chdSvc child.ServiceInterface,
) {
	api := storyApi{svc: svc, usrSvc: usrSvc, chdSvc: chdSvc}

	sg := g.Group("/stories", jwt)
	sg.POST("", api.create, staffMiddleware())
	sg.GET("", api.query)
	sg.GET("/:id", api.retrieve)
	sg.PUT("/:id", api.update, staffMiddleware())
	sg.DELETE("/:id", api.destroy, staffMiddleware())
}

func (api *storyApi) create(ctx echo.Context) error {
	var data story.NewStory
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStory")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	s, err := api.svc.Create(ctx.Request().Context(), claims.OrgID, claims.Subject, data)
	if err != nil {
		return errors.Wrap(err, "creating story")
	}
	return ctx.JSON(http.StatusCreated, s)
}

func (api *storyApi) query(ctx echo.Context) error {
	viewer, err := getContextViewer(ctx, api.usrSvc, api.chdSvc)
	if err != nil {
		return err
	}

	filter := new(story.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []story.Story{})
	}
	filter.Clean()
	paging := new(Paging)
	paging.Bind(ctx)

	stories, err := api.svc.Query(ctx.Request().Context(), viewer, filter, paging.Paging)
	if err != nil {
		return errors.Wrap(err, "querying stories")
	}
	if stories == nil {
		stories = []story.Story{}
	}
	return ctx.JSON(http.StatusOK, stories)
}

func (api *storyApi) retrieve(ctx echo.Context) error {
	viewer, err := getContextViewer(ctx, api.usrSvc, api.chdSvc)
	if err != nil {
		return err
	}
	s, err := api.svc.GetByID(ctx.Request().Context(), viewer, ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *storyApi) update(ctx echo.Context) error {
	viewer, err := getContextViewer(ctx, api.usrSvc, api.chdSvc)
	if err != nil {
		return err
	}
	s, err := api.svc.GetByID(ctx.Request().Context(), viewer, ctx.Param("id"))
	if err != nil {
		return err
	}
	// authors edit their own stories; principals edit any
	if s.AuthorID != viewer.UserID && !viewer.IsPrincipal {
		return errHttpForbidden
	}

	var data story.UpdateStory
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateStory")
	}
	if err := data.Validate(s); err != nil {
		return err
	}

	s, err = api.svc.Update(ctx.Request().Context(), s, data)
	if err != nil {
		return errors.Wrap(err, "updating story")
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *storyApi) destroy(ctx echo.Context) error {
	viewer, err := getContextViewer(ctx, api.usrSvc, api.chdSvc)
	if err != nil {
		return err
	}
	s, err := api.svc.GetByID(ctx.Request().Context(), viewer, ctx.Param("id"))
	if err != nil {
		return err
	}
	if s.AuthorID != viewer.UserID && !viewer.IsPrincipal {
		return errHttpForbidden
	}
	if err := api.svc.SoftDelete(ctx.Request().Context(), s); err != nil {
		return errors.Wrap(err, "deleting story")
	}
	return ctx.NoContent(http.StatusNoContent)
}
