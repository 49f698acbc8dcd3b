package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/zawadi/chekechea/core/message"
	"github.com/zawadi/chekechea/core/user"
)

type messageApi struct {
	svc    message.ServiceInterface
	usrSvc user.ServiceInterface
}

func registerMessageAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc message.ServiceInterface, usrSvc user.ServiceInterface) {
	api := messageApi{svc: svc, usrSvc: usrSvc}

	tg := g.Group("/threads", jwt)
	tg.POST("", api.startThread)
	tg.GET("", api.queryThreads)
	tg.GET("/:id", api.retrieveThread)
	tg.GET("/:id/messages", api.queryMessages)
	tg.POST("/:id/messages", api.post)
	tg.POST("/:id/read", api.markRead)
	tg.DELETE("/:id/messages/:messageID", api.destroyMessage)
}

func (api *messageApi) startThread(ctx echo.Context) error {
	var data message.NewThread
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewThread")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	sender, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	participants := make([]user.User, 0, len(data.ParticipantIDs))
	for _, id := range data.ParticipantIDs {
		usr, err := api.usrSvc.GetByID(ctx.Request().Context(), id)
		if err != nil {
			return err
		}
		participants = append(participants, usr)
	}

	t, err := api.svc.StartThread(ctx.Request().Context(), sender, data, participants)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, t)
}

func (api *messageApi) queryThreads(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	threads, err := api.svc.QueryThreads(ctx.Request().Context(), claims.OrgID, claims.Subject)
	if err != nil {
		return errors.Wrap(err, "querying threads")
	}
	if threads == nil {
		threads = []message.Thread{}
	}
	return ctx.JSON(http.StatusOK, threads)
}

func (api *messageApi) retrieveThread(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	t, err := api.svc.GetThread(ctx.Request().Context(), claims.OrgID, claims.Subject, ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, t)
}

func (api *messageApi) queryMessages(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	paging := new(Paging)
	paging.Bind(ctx)

	msgs, err := api.svc.QueryMessages(ctx.Request().Context(), claims.OrgID, claims.Subject, ctx.Param("id"), paging.Paging)
	if err != nil {
		return err
	}
	if msgs == nil {
		msgs = []message.Message{}
	}
	return ctx.JSON(http.StatusOK, msgs)
}

func (api *messageApi) post(ctx echo.Context) error {
	var data message.NewMessage
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewMessage")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	sender, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	m, err := api.svc.Post(ctx.Request().Context(), sender, ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, m)
}

func (api *messageApi) markRead(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	if err := api.svc.MarkRead(ctx.Request().Context(), claims.OrgID, claims.Subject, ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *messageApi) destroyMessage(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	if err := api.svc.SoftDeleteMessage(ctx.Request().Context(), claims.OrgID, claims.Subject, ctx.Param("messageID")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}
