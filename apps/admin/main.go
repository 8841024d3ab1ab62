package main

import (
	"log"
	"os"

	"github.com/pkg/errors"

	"github.com/trezcool/masomo-resources/core"
	"github.com/trezcool/masomo-resources/storage"
	diskstore "github.com/trezcool/masomo-resources/storage/disk"
	inmemstore "github.com/trezcool/masomo-resources/storage/inmem"
)

var logger *log.Logger

func main() {
	logger = log.New(os.Stderr, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf, err := core.NewConfig()
	errAndDie(err)

	store, err := openStore(conf)
	errAndDie(err)

	validate, translator := core.NewValidator()

	// start CLI
	cli := commandLine{
		conf:       conf,
		store:      store,
		validate:   validate,
		translator: translator,
		out:        os.Stdout,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func openStore(conf *core.Config) (storage.Store, error) {
	switch conf.Storage.Backend {
	case "disk", "":
		return diskstore.NewStore(conf.Storage.Root)
	case "inmem": // only useful for trying out the CLI
		return inmemstore.NewStore(), nil
	default:
		return nil, errors.Errorf("unknown storage backend %q", conf.Storage.Backend)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
