package core

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

type (
	ServerConfig struct {
		Host               string
		DebugHost          string
		ReadTimeout        time.Duration
		WriteTimeout       time.Duration
		ShutdownTimeout    time.Duration
		JWTExpirationDelta time.Duration
		RateLimit          float64 // requests per second per client IP; <= 0 disables
		RateBurst          int
		MaxUploadSize      int64
		DisableReqLogs     bool
	}

	StorageConfig struct {
		Backend string // disk | inmem
		Root    string
	}

	ClientConfig struct {
		BaseURL      string
		ResourcePath string
		Token        string
		Timeout      time.Duration
		DownloadDir  string
		AutoLoad     bool
		AutoCleanup  bool
	}

	Config struct {
		AppName      string
		Env          string
		Build        string
		Debug        bool
		TestMode     bool
		SecretKey    string
		RollbarToken string

		Server  ServerConfig
		Storage StorageConfig
		Client  ClientConfig
	}
)

// NewConfig loads the configuration from the environment.
// ENV selects the prefix (DEV (local; default), TEST, QA, PROD) and the optional
// dot-env file `config/.env.<env>` relative to the working directory.
func NewConfig() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	env := strings.ToUpper(os.Getenv("ENV"))
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	wd, err := os.Getwd()
	if err != nil {
		return nil, errors.Wrap(err, "getting working directory")
	}
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err = os.Stat(dotEnvPath); err == nil {
		if err = godotenv.Load(dotEnvPath); err != nil {
			return nil, errors.Wrapf(err, "loading %s", dotEnvPath)
		}
	} else if !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "checking %s", dotEnvPath)
	}
	v.AutomaticEnv()

	return configFrom(v, env), nil
}

func setDefaults(v *viper.Viper) {
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("testMode", false)
	v.SetDefault("appName", "Masomo")
	v.SetDefault("build", "develop")
	v.SetDefault("secretKey", "poq5-wer)enb$+57=dz&uoxh2(h!x)#*c2(#yg4h^$cegm2emy")
	v.SetDefault("rollbarToken", "")

	v.SetDefault("server.host", ":8000")
	v.SetDefault("server.debugHost", ":4000")
	v.SetDefault("server.readTimeout", 5*time.Second)
	v.SetDefault("server.writeTimeout", 30*time.Second)
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.jwtExpirationDelta", 7*24*time.Hour)
	v.SetDefault("server.rateLimit", 20.0)
	v.SetDefault("server.rateBurst", 40)
	v.SetDefault("server.maxUploadSize", int64(100<<20))
	v.SetDefault("server.disableReqLogs", false)

	v.SetDefault("storage.backend", "disk")
	v.SetDefault("storage.root", "data/resources")

	v.SetDefault("client.baseURL", "http://localhost:8000")
	v.SetDefault("client.resourcePath", "/resources")
	v.SetDefault("client.token", "")
	v.SetDefault("client.timeout", 2*time.Minute)
	v.SetDefault("client.downloadDir", ".")
	v.SetDefault("client.autoLoad", true)
	v.SetDefault("client.autoCleanup", true)
}

func configFrom(v *viper.Viper, env string) *Config {
	return &Config{
		AppName:      v.GetString("appName"),
		Env:          env,
		Build:        v.GetString("build"),
		Debug:        v.GetBool("debug"),
		TestMode:     v.GetBool("testMode"),
		SecretKey:    v.GetString("secretKey"),
		RollbarToken: v.GetString("rollbarToken"),
		Server: ServerConfig{
			Host:               v.GetString("server.host"),
			DebugHost:          v.GetString("server.debugHost"),
			ReadTimeout:        v.GetDuration("server.readTimeout"),
			WriteTimeout:       v.GetDuration("server.writeTimeout"),
			ShutdownTimeout:    v.GetDuration("server.shutdownTimeout"),
			JWTExpirationDelta: v.GetDuration("server.jwtExpirationDelta"),
			RateLimit:          v.GetFloat64("server.rateLimit"),
			RateBurst:          v.GetInt("server.rateBurst"),
			MaxUploadSize:      v.GetInt64("server.maxUploadSize"),
			DisableReqLogs:     v.GetBool("server.disableReqLogs"),
		},
		Storage: StorageConfig{
			Backend: v.GetString("storage.backend"),
			Root:    v.GetString("storage.root"),
		},
		Client: ClientConfig{
			BaseURL:      v.GetString("client.baseURL"),
			ResourcePath: v.GetString("client.resourcePath"),
			Token:        v.GetString("client.token"),
			Timeout:      v.GetDuration("client.timeout"),
			DownloadDir:  v.GetString("client.downloadDir"),
			AutoLoad:     v.GetBool("client.autoLoad"),
			AutoCleanup:  v.GetBool("client.autoCleanup"),
		},
	}
}
