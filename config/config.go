// Package config reads the process environment and builds the logger.
package config

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/carbocation/geofetch"
	"github.com/carbocation/pfx"
	"github.com/spf13/viper"
)

const (
	EnvLocal  = "LOCAL"
	EnvServer = "SERVER"
)

// Config is the environment a run executes in.
type Config struct {
	Env      string
	CacheDir string
	TmpDir   string
	LogFile  string

	// Mirror is a gs:// URL, or "".
	Mirror string

	// Settings is the default parameters file, or "".
	Settings string

	// Implicit is set when none of ENV, CACHE_DIR and TMP_DIR was given and
	// the working directory was assumed.
	Implicit bool
}

func newViper() *viper.Viper {
	v := viper.New()
	for _, key := range []string{"ENV", "CACHE_DIR", "TMP_DIR", "LOGFILE", "CACHE_MIRROR", "GEO_SETTINGS"} {
		// BindEnv only fails when given no key.
		_ = v.BindEnv(key)
	}
	v.SetDefault("LOGFILE", "geofetch.log")
	return v
}

// Load reads the configuration from the environment.
func Load() (Config, error) {
	v := newViper()

	cfg := Config{
		Env:      strings.ToUpper(v.GetString("ENV")),
		CacheDir: v.GetString("CACHE_DIR"),
		TmpDir:   v.GetString("TMP_DIR"),
		LogFile:  v.GetString("LOGFILE"),
		Mirror:   v.GetString("CACHE_MIRROR"),
		Settings: v.GetString("GEO_SETTINGS"),
	}

	cfg.Implicit = cfg.Env == "" && cfg.CacheDir == "" && cfg.TmpDir == ""
	if cfg.Env == "" {
		cfg.Env = EnvLocal
	}

	switch cfg.Env {
	case EnvLocal, EnvServer:
	default:
		return cfg, fmt.Errorf("ENV=%q: expected %s or %s", cfg.Env, EnvLocal, EnvServer)
	}

	if cfg.CacheDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return cfg, pfx.Err(err)
		}
		cfg.CacheDir = wd
	}

	for _, path := range []*string{&cfg.CacheDir, &cfg.TmpDir, &cfg.LogFile, &cfg.Settings} {
		expanded, err := geofetch.ExpandHome(*path)
		if err != nil {
			return cfg, err
		}
		*path = expanded
	}

	return cfg, nil
}

// NewLogger builds the run's logger: an append-only LogFile in SERVER mode,
// stderr otherwise. The returned closer releases the log file.
func (c Config) NewLogger() (*log.Logger, io.Closer, error) {
	if c.Env != EnvServer {
		return log.New(os.Stderr, "", log.LstdFlags|log.Lshortfile), nopCloser{}, nil
	}

	f, err := os.OpenFile(c.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, pfx.Err(err)
	}

	return log.New(f, "", log.LstdFlags|log.Lshortfile), f, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
