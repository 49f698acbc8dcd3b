package main

import (
	"context"
	"fmt"

	"github.com/zawadi/chekechea/core/org"
	"github.com/zawadi/chekechea/core/user"
)

func (cli *commandLine) createOrg(name, slug, timezone string) error {
	ctx := context.Background()

	no := org.NewOrg{Name: name, Slug: slug, Timezone: timezone}
	if err := no.Validate(cli.orgSvc); err != nil {
		return err
	}
	o, err := cli.orgSvc.Create(ctx, no)
	if err != nil {
		return err
	}
	fmt.Printf("created org %q (%s)\n", o.Name, o.ID)
	return nil
}

func (cli *commandLine) listOrgs() error {
	orgs, err := cli.orgSvc.QueryAll(context.Background())
	if err != nil {
		return err
	}
	for _, o := range orgs {
		fmt.Printf("%s  %s (%s, %s)\n", o.ID, o.Name, o.Slug, o.Timezone)
	}
	fmt.Printf("%d org(s)\n", len(orgs))
	return nil
}

// invitePrincipal bootstraps an org's first account; everyone else is
// invited through the API.
func (cli *commandLine) invitePrincipal(slug, name, email string) error {
	ctx := context.Background()

	o, err := cli.orgSvc.GetBySlug(ctx, slug)
	if err != nil {
		return err
	}

	nu := user.NewUser{Name: name, Email: email, Roles: []string{user.RoleStaffPrincipal}}
	if err := nu.Validate(cli.usrSvc, o.ID); err != nil {
		return err
	}
	usr, err := cli.usrSvc.Invite(ctx, o.ID, nu)
	if err != nil {
		return err
	}
	fmt.Printf("invited %s to %q (%s)\n", usr.Email, o.Name, usr.ID)
	return nil
}
