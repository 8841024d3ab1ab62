package dig_container

import (
	"log"
	"os"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/trezcool/masomo-resources/apps/api/echo"
	"github.com/trezcool/masomo-resources/core"
	logsvc "github.com/trezcool/masomo-resources/services/logger"
	"github.com/trezcool/masomo-resources/storage"
	diskstore "github.com/trezcool/masomo-resources/storage/disk"
	inmemstore "github.com/trezcool/masomo-resources/storage/inmem"
)

type StorageLoggerParam struct {
	dig.In
	Logger core.Logger `name:"storageLogger"`
}

type ServerParams struct {
	dig.In
	Conf       *core.Config
	Logger     core.Logger
	Store      storage.Store
	Validate   *validator.Validate
	Translator ut.Translator
}

func newLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "API : ", log.LstdFlags)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newStorageLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "STORAGE : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

// newStore picks the storage backend from the config.
func newStore(conf *core.Config, loggerParam StorageLoggerParam) (storage.Store, error) {
	switch conf.Storage.Backend {
	case "inmem":
		loggerParam.Logger.Info("using in-memory resource store")
		return inmemstore.NewStore(), nil
	case "disk", "":
		loggerParam.Logger.Info("using disk resource store", map[string]interface{}{"root": conf.Storage.Root})
		return diskstore.NewStore(conf.Storage.Root)
	default:
		return nil, errors.Errorf("unknown storage backend %q", conf.Storage.Backend)
	}
}

func newServer(p ServerParams) *echoapi.Server {
	return echoapi.NewServer(echoapi.Deps{
		Conf:       p.Conf,
		Logger:     p.Logger,
		Store:      p.Store,
		Validate:   p.Validate,
		Translator: p.Translator,
	})
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newStorageLogger, dig.Name("storageLogger")))
	must(c.Provide(newStore))
	must(c.Provide(core.NewValidator))
	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
