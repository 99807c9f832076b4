package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the resolved runtime configuration. It is built once at startup
// from defaults, ~/.a127/config.yaml, and A127_-prefixed environment
// variables (in that precedence order, later wins) and passed to components
// rather than consulted as global state.
type Config struct {
	Debug    bool     `mapstructure:"debug"`
	TmpDir   string   `mapstructure:"tmpdir"`
	Browser  string   `mapstructure:"browser"`
	Account  Account  `mapstructure:"account"`
	Services Services `mapstructure:"services"`
	Usergrid Usergrid `mapstructure:"usergrid"`
}

type Account struct {
	File string `mapstructure:"file"`
}

type Services struct {
	File string `mapstructure:"file"`
}

// Usergrid configures the local datastore supervisor.
type Usergrid struct {
	TmpDir        string        `mapstructure:"tmpdir"`
	OutLog        string        `mapstructure:"outlog"`
	ErrLog        string        `mapstructure:"errlog"`
	PidFile       string        `mapstructure:"pidfile"`
	JarFile       string        `mapstructure:"jarfile"`
	InitMarker    string        `mapstructure:"initmarker"`
	Port          int           `mapstructure:"port"`
	CassandraPort int           `mapstructure:"cassandraport"`
	StartOptions  []string      `mapstructure:"startoptions"`
	StartTimeout  time.Duration `mapstructure:"starttimeout"`
	StopInterval  time.Duration `mapstructure:"stopinterval"`
	DownloadURL   string        `mapstructure:"downloadurl"`
	PortalDir     string        `mapstructure:"portaldir"`
	PortalURL     string        `mapstructure:"portalurl"`
}

const envPrefix = "a127"

// Load builds the configuration. A missing user config file is fine;
// a malformed one is an error the user should see.
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolving home directory: %w", err)
	}
	return load(filepath.Join(home, ".a127"))
}

func load(tmpDir string) (*Config, error) {
	v := viper.New()

	usergridTmp := filepath.Join(tmpDir, "usergrid")
	v.SetDefault("debug", false)
	v.SetDefault("tmpdir", tmpDir)
	v.SetDefault("browser", "")
	v.SetDefault("account.file", filepath.Join(tmpDir, "accounts"))
	v.SetDefault("services.file", filepath.Join(tmpDir, "services"))
	v.SetDefault("usergrid.tmpdir", usergridTmp)
	v.SetDefault("usergrid.outlog", filepath.Join(usergridTmp, "usergrid.log"))
	v.SetDefault("usergrid.errlog", filepath.Join(usergridTmp, "usergrid.log"))
	v.SetDefault("usergrid.pidfile", filepath.Join(usergridTmp, "usergrid.pid"))
	v.SetDefault("usergrid.jarfile", filepath.Join(usergridTmp, "usergrid-standalone.jar"))
	v.SetDefault("usergrid.initmarker", filepath.Join(usergridTmp, "initialized"))
	v.SetDefault("usergrid.port", 8080)
	v.SetDefault("usergrid.cassandraport", 9160)
	v.SetDefault("usergrid.startoptions", []string{"-nogui", "-db"})
	v.SetDefault("usergrid.starttimeout", 20*time.Second)
	v.SetDefault("usergrid.stopinterval", time.Second)
	v.SetDefault("usergrid.downloadurl",
		"https://github.com/apache/usergrid/releases/download/v1.0/usergrid-standalone.jar")
	v.SetDefault("usergrid.portaldir", filepath.Join(usergridTmp, "portal"))
	v.SetDefault("usergrid.portalurl", "http://localhost:8080/portal")

	v.SetConfigFile(filepath.Join(tmpDir, "config.yaml"))
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	for _, dir := range []string{cfg.TmpDir, cfg.Usergrid.TmpDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	return &cfg, nil
}
