package config

import (
	"os"
	"path"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
	"gopkg.in/yaml.v2"
)

type SysConfig struct {
	Appid    string `yaml:"appid"`
	Location string `yaml:"location"`
	Workdir  string `yaml:"workdir"`
	Debug    bool   `yaml:"debug"`
}

type WebConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DBConfig struct {
	Type     string `yaml:"type"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Passwd   string `yaml:"passwd"`
	MaxConn  int    `yaml:"max_conn"`
	IdleConn int    `yaml:"idle_conn"`
	Debug    bool   `yaml:"debug"`
}

type LogConfig struct {
	Mode       string `yaml:"mode"`
	FileEnable bool   `yaml:"file_enable"`
	Filename   string `yaml:"filename"`
}

// StorageConfig locates the managed attachment directory and tunes the
// orphan sweep job.
type StorageConfig struct {
	Dir             string `yaml:"dir"`
	SweepCron       string `yaml:"sweep_cron"`
	SweepGraceHours int    `yaml:"sweep_grace_hours"`
}

type AppConfig struct {
	System   SysConfig     `yaml:"system"`
	Web      WebConfig     `yaml:"web"`
	Database DBConfig      `yaml:"database"`
	Logger   LogConfig     `yaml:"logger"`
	Storage  StorageConfig `yaml:"storage"`
}

var DefaultAppConfig = &AppConfig{
	System: SysConfig{
		Appid:    "commercedesk",
		Location: "Europe/Madrid",
		Workdir:  "/var/commercedesk",
		Debug:    true,
	},
	Web: WebConfig{
		Host: "0.0.0.0",
		Port: 1816,
	},
	Database: DBConfig{
		Type:     "postgres",
		Host:     "127.0.0.1",
		Port:     5432,
		Name:     "commercedesk",
		User:     "postgres",
		Passwd:   "",
		MaxConn:  100,
		IdleConn: 10,
	},
	Logger: LogConfig{
		Mode:       "development",
		FileEnable: true,
		Filename:   "/var/commercedesk/commercedesk.log",
	},
	Storage: StorageConfig{
		Dir:             "/var/commercedesk/attachments",
		SweepCron:       "@every 1h",
		SweepGraceHours: 24,
	},
}

func setEnvValue(name string, val *string) {
	if v := os.Getenv(name); v != "" {
		*val = v
	}
}

func setEnvBoolValue(name string, val *bool) {
	if v := os.Getenv(name); v != "" {
		*val = cast.ToBool(v)
	}
}

func setEnvIntValue(name string, val *int) {
	if v := os.Getenv(name); v != "" {
		*val = cast.ToInt(v)
	}
}

// LoadConfig reads the YAML configuration at cfile (falling back to
// defaults when absent) and applies environment overrides. A local
// .env file is honored when present.
func LoadConfig(cfile string) *AppConfig {
	_ = godotenv.Load()

	cfg := new(AppConfig)
	*cfg = *DefaultAppConfig
	if cfile != "" {
		if data, err := os.ReadFile(cfile); err == nil {
			_ = yaml.Unmarshal(data, cfg)
		}
	}

	setEnvValue("COMMERCEDESK_SYSTEM_WORKDIR", &cfg.System.Workdir)
	setEnvBoolValue("COMMERCEDESK_SYSTEM_DEBUG", &cfg.System.Debug)
	setEnvValue("COMMERCEDESK_WEB_HOST", &cfg.Web.Host)
	setEnvIntValue("COMMERCEDESK_WEB_PORT", &cfg.Web.Port)
	setEnvValue("COMMERCEDESK_DB_TYPE", &cfg.Database.Type)
	setEnvValue("COMMERCEDESK_DB_HOST", &cfg.Database.Host)
	setEnvIntValue("COMMERCEDESK_DB_PORT", &cfg.Database.Port)
	setEnvValue("COMMERCEDESK_DB_NAME", &cfg.Database.Name)
	setEnvValue("COMMERCEDESK_DB_USER", &cfg.Database.User)
	setEnvValue("COMMERCEDESK_DB_PWD", &cfg.Database.Passwd)
	setEnvBoolValue("COMMERCEDESK_DB_DEBUG", &cfg.Database.Debug)
	setEnvValue("COMMERCEDESK_LOGGER_MODE", &cfg.Logger.Mode)
	setEnvValue("COMMERCEDESK_STORAGE_DIR", &cfg.Storage.Dir)

	if cfg.Storage.Dir == "" {
		cfg.Storage.Dir = path.Join(cfg.System.Workdir, "attachments")
	}

	return cfg
}
