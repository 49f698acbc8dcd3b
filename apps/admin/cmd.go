package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"

	"github.com/zawadi/chekechea/core/org"
	"github.com/zawadi/chekechea/core/user"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	db     *sql.DB
	orgSvc org.ServiceInterface
	usrSvc user.ServiceInterface
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  createorg -name NAME -slug SLUG [-timezone TZ] - create an organization")
	fmt.Println("  listorgs - list all organizations")
	fmt.Println("  inviteprincipal -org SLUG -name NAME -email EMAIL - invite a principal to an org")
	fmt.Println("  migrate up|down|status [ARGS...] - run database migrations")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	createOrgCmd := flag.NewFlagSet("createorg", flag.ExitOnError)
	createOrgName := createOrgCmd.String("name", "", "The organization's display name.")
	createOrgSlug := createOrgCmd.String("slug", "", "A unique, URL-safe identifier.")
	createOrgTz := createOrgCmd.String("timezone", "UTC", "IANA timezone, eg. Africa/Dar_es_Salaam.")

	inviteCmd := flag.NewFlagSet("inviteprincipal", flag.ExitOnError)
	inviteOrg := inviteCmd.String("org", "", "The organization's slug.")
	inviteName := inviteCmd.String("name", "", "The principal's full name.")
	inviteEmail := inviteCmd.String("email", "", "The invite is emailed to this address.")

	switch args[1] {
	case "createorg":
		if err := createOrgCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *createOrgName == "" || *createOrgSlug == "" {
			createOrgCmd.Usage()
			return errHelp
		}
		return cli.createOrg(*createOrgName, *createOrgSlug, *createOrgTz)
	case "listorgs":
		return cli.listOrgs()
	case "inviteprincipal":
		if err := inviteCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *inviteOrg == "" || *inviteName == "" || *inviteEmail == "" {
			inviteCmd.Usage()
			return errHelp
		}
		return cli.invitePrincipal(*inviteOrg, *inviteName, *inviteEmail)
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	default:
		cli.printUsage()
		return errHelp
	}
}
