package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	echoapi "github.com/zawadi/chekechea/apps/api/echo"
	"github.com/zawadi/chekechea/core"
	"github.com/zawadi/chekechea/core/announce"
	"github.com/zawadi/chekechea/core/attendance"
	"github.com/zawadi/chekechea/core/child"
	"github.com/zawadi/chekechea/core/menu"
	"github.com/zawadi/chekechea/core/message"
	"github.com/zawadi/chekechea/core/notif"
	"github.com/zawadi/chekechea/core/org"
	"github.com/zawadi/chekechea/core/story"
	"github.com/zawadi/chekechea/core/user"
	emailsvc "github.com/zawadi/chekechea/services/email"
	logsvc "github.com/zawadi/chekechea/services/logger"
	"github.com/zawadi/chekechea/storage/database"
	sqlxrepos "github.com/zawadi/chekechea/storage/database/sqlx"
)

const shutdownTimeout = 20 * time.Second

func main() {
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		core.Conf,
	)
	logger.Enable(!core.Conf.Debug)

	// set up DB
	db, err := setUpDB()
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() { _ = db.Close() }()

	// set up services
	var mailSvc core.EmailService
	if core.Conf.Debug {
		mailSvc = emailsvc.NewConsoleService()
	} else {
		mailSvc = emailsvc.NewSendgridService(logger)
	}

	orgSvc := org.NewService(db, sqlxrepos.NewOrgRepository(db))
	usrSvc := user.NewService(db, sqlxrepos.NewUserRepository(db), mailSvc, logger)
	chdSvc := child.NewService(db, sqlxrepos.NewChildRepository(db))
	attSvc := attendance.NewService(db, sqlxrepos.NewAttendanceRepository(db))

	notifSvc := notif.NewService(usrSvc, chdSvc, mailSvc, logger)
	stySvc := story.NewService(db, sqlxrepos.NewStoryRepository(db), notifSvc)
	annSvc := announce.NewService(db, sqlxrepos.NewAnnouncementRepository(db), notifSvc)
	msgSvc := message.NewService(db, sqlxrepos.NewMessageRepository(db), notifSvc)
	mnuSvc := menu.NewService(db, sqlxrepos.NewMenuRepository(db))

	logger.Info(fmt.Sprintf("Application initializing : version %q", core.Conf.Build))
	defer logger.Info("Application stopped")

	// start API server
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	app := echoapi.NewServer(
		&echoapi.Options{
			Address:        core.Conf.Server.Address(),
			Logger:         logger,
			SignalShutdown: func() { shutdown <- syscall.SIGTERM },

			OrgSvc:        orgSvc,
			UserSvc:       usrSvc,
			ChildSvc:      chdSvc,
			AttendanceSvc: attSvc,
			StorySvc:      stySvc,
			AnnounceSvc:   annSvc,
			MessageSvc:    msgSvc,
			MenuSvc:       mnuSvc,
		},
	)
	go app.Start()

	sig := <-shutdown
	logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

	// give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := app.Stop(ctx); err != nil {
		logger.Fatal(fmt.Sprintf("could not stop server gracefully: %v", err), err)
	}
}

func setUpDB() (*sqlx.DB, error) {
	if err := database.CreateIfNotExist(core.Conf); err != nil {
		return nil, err
	}

	db, err := database.Open(core.Conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db.DB); err != nil {
		return nil, err
	}
	return db, nil
}
