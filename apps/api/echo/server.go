package echoapi

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/zawadi/chekechea/core"
	"github.com/zawadi/chekechea/core/announce"
	"github.com/zawadi/chekechea/core/attendance"
	"github.com/zawadi/chekechea/core/child"
	"github.com/zawadi/chekechea/core/menu"
	"github.com/zawadi/chekechea/core/message"
	"github.com/zawadi/chekechea/core/org"
	"github.com/zawadi/chekechea/core/story"
	"github.com/zawadi/chekechea/core/user"
)

type (
	Options struct {
		Address        string
		DisableReqLogs bool
		Logger         core.Logger
		// SignalShutdown is called when an unrecoverable error is caught;
		// main listens and stops the server.
		SignalShutdown func()

		OrgSvc        org.ServiceInterface
		UserSvc       user.ServiceInterface
		ChildSvc      child.ServiceInterface
		AttendanceSvc attendance.ServiceInterface
		StorySvc      story.ServiceInterface
		AnnounceSvc   announce.ServiceInterface
		MessageSvc    message.ServiceInterface
		MenuSvc       menu.ServiceInterface
	}

	Server interface {
		http.Handler
		Start()
		Stop(context.Context) error
	}

	server struct {
		opts *Options
		app  *echo.Echo
	}
)

var _ Server = (*server)(nil)

func NewServer(opts *Options) Server {
	s := &server{
		opts: opts,
		app:  echo.New(),
	}
	s.setup()
	return s
}

func (s *server) setup() {
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(core.Conf.Debug || core.Conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.opts.Logger, s.opts.SignalShutdown)
	s.app.Debug = core.Conf.Debug

	s.app.GET("/", home)

	v1 := s.app.Group("/v1")
	jwt := middleware.JWTWithConfig(appJWTConfig)

	registerOrgAPI(v1, jwt, s.opts.OrgSvc, s.opts.UserSvc)
	registerUserAPI(v1, jwt, s.opts.UserSvc)
	registerChildAPI(v1, jwt, s.opts.ChildSvc, s.opts.UserSvc)
	registerAttendanceAPI(v1, jwt, s.opts.AttendanceSvc, s.opts.ChildSvc, s.opts.UserSvc)
	registerStoryAPI(v1, jwt, s.opts.StorySvc, s.opts.UserSvc, s.opts.ChildSvc)
	registerAnnouncementAPI(v1, jwt, s.opts.AnnounceSvc, s.opts.UserSvc, s.opts.ChildSvc)
	registerMessageAPI(v1, jwt, s.opts.MessageSvc, s.opts.UserSvc)
	registerMenuAPI(v1, jwt, s.opts.MenuSvc)
}

func (s *server) Start() {
	s.app.Logger.Fatal(s.app.Start(s.opts.Address))
}

func (s *server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to the Chekechea API!")
}
