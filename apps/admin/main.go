package main

import (
	"log"
	"os"

	"github.com/zawadi/chekechea/core"
	"github.com/zawadi/chekechea/core/org"
	"github.com/zawadi/chekechea/core/user"
	emailsvc "github.com/zawadi/chekechea/services/email"
	logsvc "github.com/zawadi/chekechea/services/logger"
	"github.com/zawadi/chekechea/storage/database"
	sqlxrepos "github.com/zawadi/chekechea/storage/database/sqlx"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	// set up DB
	db, err := database.Open(core.Conf)
	errAndDie(err)
	defer db.Close()
	errAndDie(db.Ping())

	appLogger := logsvc.NewRollbarLogger(logger, core.Conf)
	appLogger.Enable(!core.Conf.Debug)

	var mailSvc core.EmailService
	if core.Conf.Debug {
		mailSvc = emailsvc.NewConsoleService()
	} else {
		mailSvc = emailsvc.NewSendgridService(appLogger)
	}

	// start CLI
	cli := commandLine{
		db:     db.DB,
		orgSvc: org.NewService(db, sqlxrepos.NewOrgRepository(db)),
		usrSvc: user.NewService(db, sqlxrepos.NewUserRepository(db), mailSvc, appLogger),
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
