package config

import (
	"strings"
)

type EnvVars struct {
	Port       string `yaml:"port"        env:"PORT"        env-default:"8080"`
	AppName    string `yaml:"app_name"    env:"APP_NAME"    env-default:"BAFCC Admin"`
	DataFolder string `yaml:"data_folder" env:"FOLDER"      env-default:"./data"`
	LogLevel   string `yaml:"log_level"   env:"LOG_LEVEL"   env-default:"info"`
	Env        string `yaml:"env"         env:"ENV"         env-default:"DEV"`
}

var _ EnvConfig = EnvVars{}

func (e EnvVars) GetPort() string {
	port := strings.TrimSpace(e.Port)
	if port == "" {
		port = "8080"
	}
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}
	return port
}

func (e EnvVars) GetAppName() string {
	return e.AppName
}

func (e EnvVars) GetDataFolder() string {
	return e.DataFolder
}

func (e EnvVars) GetLogLevel() string {
	return e.LogLevel
}

func (e EnvVars) GetEnv() string {
	if e.Env == "" {
		return "DEV"
	}
	return e.Env
}

func (e EnvVars) IsDev() bool {
	return strings.EqualFold(e.GetEnv(), "DEV")
}
