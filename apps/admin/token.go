package main

import (
	"fmt"

	echoapi "github.com/trezcool/masomo-resources/apps/api/echo"
)

// token prints a JWT accepted by the API server sharing this config's secret key.
// Admins get the resource manager role unless roles are given.
func (cli *commandLine) token(subject string, isAdmin bool, roles []string) error {
	if isAdmin && len(roles) == 0 {
		roles = []string{echoapi.RoleResourceManager}
	}
	token, err := echoapi.GenerateToken(cli.conf, subject, isAdmin, roles...)
	if err != nil {
		return err
	}
	fmt.Fprintln(cli.out, token)
	return nil
}
