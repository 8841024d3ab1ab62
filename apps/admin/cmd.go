package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/masomo-resources/core"
	"github.com/trezcool/masomo-resources/storage"
)

var (
	openFileFunc = func(path string) (io.ReadCloser, error) { return os.Open(path) } // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	conf       *core.Config
	store      storage.Store
	validate   *validator.Validate
	translator ut.Translator
	out        io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  put -file PATH [-name NAME]            - upload a resource (NAME defaults to the file's base name)")
	fmt.Fprintln(cli.out, "  rm -name NAME                          - delete a resource")
	fmt.Fprintln(cli.out, "  ls                                     - list resources")
	fmt.Fprintln(cli.out, "  token -subject SUBJECT [-admin] [-role ROLE,...] - sign an API token")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	putCmd := flag.NewFlagSet("put", flag.ContinueOnError)
	putFile := putCmd.String("file", "", "Path of the file to upload.")
	putName := putCmd.String("name", "", "Resource name. Defaults to the file's base name.")

	rmCmd := flag.NewFlagSet("rm", flag.ContinueOnError)
	rmName := rmCmd.String("name", "", "Name of the resource to delete.")

	lsCmd := flag.NewFlagSet("ls", flag.ContinueOnError)

	tokenCmd := flag.NewFlagSet("token", flag.ContinueOnError)
	tokenSubject := tokenCmd.String("subject", "", "Token subject (who the token is issued to).")
	tokenAdmin := tokenCmd.Bool("admin", false, "Grant access to the admin endpoints.")
	tokenRoles := tokenCmd.String("role", "", "Comma separated roles.")

	for _, fs := range []*flag.FlagSet{putCmd, rmCmd, lsCmd, tokenCmd} {
		fs.SetOutput(cli.out)
	}

	switch args[1] {
	case "put":
		if err := putCmd.Parse(args[2:]); err != nil {
			return parseError(err)
		}
		if *putFile == "" {
			putCmd.Usage()
			return errHelp
		}
		return cli.put(*putFile, *putName)
	case "rm":
		if err := rmCmd.Parse(args[2:]); err != nil {
			return parseError(err)
		}
		if *rmName == "" {
			rmCmd.Usage()
			return errHelp
		}
		return cli.remove(*rmName)
	case "ls":
		if err := lsCmd.Parse(args[2:]); err != nil {
			return parseError(err)
		}
		return cli.list()
	case "token":
		if err := tokenCmd.Parse(args[2:]); err != nil {
			return parseError(err)
		}
		if core.CleanString(*tokenSubject) == "" {
			tokenCmd.Usage()
			return errHelp
		}
		return cli.token(*tokenSubject, *tokenAdmin, splitRoles(*tokenRoles))
	default:
		cli.printUsage()
		return errHelp
	}
}

func parseError(err error) error {
	if errors.Is(err, flag.ErrHelp) {
		return errHelp
	}
	return err
}

func splitRoles(s string) []string {
	var roles []string
	for _, r := range strings.Split(s, ",") {
		if r = core.CleanString(r); r != "" {
			roles = append(roles, r)
		}
	}
	return roles
}
