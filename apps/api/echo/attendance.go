package echoapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/zawadi/chekechea/core/attendance"
	"github.com/zawadi/chekechea/core/child"
	"github.com/zawadi/chekechea/core/user"
)

type attendanceApi struct {
	svc    attendance.ServiceInterface
	chdSvc child.ServiceInterface
	usrSvc user.ServiceInterface
}

func registerAttendanceAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc attendance.ServiceInterface,
	chdSvc child.ServiceInterface,
	usrSvc user.ServiceInterface,
) {
	api := attendanceApi{svc: svc, chdSvc: chdSvc, usrSvc: usrSvc}

	ag := g.Group("/attendance", jwt)
	ag.POST("/check-in", api.checkIn, staffMiddleware())
	ag.POST("/check-out", api.checkOut, staffMiddleware())
	ag.POST("/absence", api.markAbsent, staffMiddleware())
	ag.GET("", api.query, staffMiddleware())
	ag.GET("/summary", api.summary, staffMiddleware())
	ag.GET("/history/:childID", api.history)
}

func (api *attendanceApi) checkIn(ctx echo.Context) error {
	var data attendance.CheckInRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CheckInRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	if _, err := api.chdSvc.GetByID(ctx.Request().Context(), claims.OrgID, data.ChildID); err != nil {
		return err
	}

	rec, err := api.svc.CheckIn(ctx.Request().Context(), claims.OrgID, claims.Subject, data)
	if err != nil {
		return errors.Wrap(err, "checking in")
	}
	return ctx.JSON(http.StatusOK, rec)
}

func (api *attendanceApi) checkOut(ctx echo.Context) error {
	var data attendance.CheckOutRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CheckOutRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	rec, err := api.svc.CheckOut(ctx.Request().Context(), claims.OrgID, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, rec)
}

func (api *attendanceApi) markAbsent(ctx echo.Context) error {
	var data attendance.AbsenceRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AbsenceRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	if _, err := api.chdSvc.GetByID(ctx.Request().Context(), claims.OrgID, data.ChildID); err != nil {
		return err
	}

	rec, err := api.svc.MarkAbsent(ctx.Request().Context(), claims.OrgID, claims.Subject, data)
	if err != nil {
		return errors.Wrap(err, "marking absent")
	}
	return ctx.JSON(http.StatusOK, rec)
}

func (api *attendanceApi) query(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	filter := new(attendance.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []attendance.Record{})
	}

	recs, err := api.svc.Query(ctx.Request().Context(), claims.OrgID, filter)
	if err != nil {
		return errors.Wrap(err, "querying attendance")
	}
	if recs == nil {
		recs = []attendance.Record{}
	}
	return ctx.JSON(http.StatusOK, recs)
}

func (api *attendanceApi) summary(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	date := time.Now()
	if raw := ctx.QueryParam("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid date; expected YYYY-MM-DD")
		}
		date = parsed
	}

	summary, err := api.svc.Summary(ctx.Request().Context(), claims.OrgID, date)
	if err != nil {
		return errors.Wrap(err, "summarizing attendance")
	}
	return ctx.JSON(http.StatusOK, summary)
}

// history serves staff and the child's own guardians.
func (api *attendanceApi) history(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	c, err := api.chdSvc.GetByID(ctx.Request().Context(), usr.OrgID, ctx.Param("childID"))
	if err != nil {
		return err
	}

	if usr.IsGuardian() && !usr.IsStaff() {
		guardianIDs, err := api.chdSvc.GuardianIDs(ctx.Request().Context(), c.ID)
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

	var from, to time.Time
	if raw := ctx.QueryParam("from"); raw != "" {
		if from, err = time.Parse("2006-01-02", raw); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid from; expected YYYY-MM-DD")
		}
	}
	if raw := ctx.QueryParam("to"); raw != "" {
		if to, err = time.Parse("2006-01-02", raw); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid to; expected YYYY-MM-DD")
		}
	}

	recs, err := api.svc.History(ctx.Request().Context(), usr.OrgID, c.ID, from, to)
	if err != nil {
		return errors.Wrap(err, "querying attendance history")
	}
	if recs == nil {
		recs = []attendance.Record{}
	}
	return ctx.JSON(http.StatusOK, recs)
}
