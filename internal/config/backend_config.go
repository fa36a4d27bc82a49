package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// BackendConfig describes the REST backend the console talks to.
type BackendConfig interface {
	GetAPIURL() string
	GetLoginURL() string
	GetRefreshURL() string
	GetMeURL() string
	GetLogoutURL() string
	GetHTTPTimeout() time.Duration
}

type Backend struct {
	APIURL      string        `yaml:"api_url"      env:"API_URL"          env-default:"http://localhost:8000"`
	LoginPath   string        `yaml:"login_path"   env:"API_LOGIN_PATH"   env-default:"/api/v1/users/login"`
	RefreshPath string        `yaml:"refresh_path" env:"API_REFRESH_PATH" env-default:"/api/v1/users/refresh"`
	MePath      string        `yaml:"me_path"      env:"API_ME_PATH"      env-default:"/api/v1/users/me"`
	LogoutPath  string        `yaml:"logout_path"  env:"API_LOGOUT_PATH"  env-default:"/api/v1/users/logout"`
	HTTPTimeout time.Duration `yaml:"http_timeout" env:"HTTP_TIMEOUT"     env-default:"15s"`
}

var _ BackendConfig = Backend{}

func (b Backend) GetAPIURL() string {
	return strings.TrimRight(b.APIURL, "/")
}

func (b Backend) GetLoginURL() string {
	return b.GetAPIURL() + b.LoginPath
}

func (b Backend) GetRefreshURL() string {
	return b.GetAPIURL() + b.RefreshPath
}

func (b Backend) GetMeURL() string {
	return b.GetAPIURL() + b.MePath
}

func (b Backend) GetLogoutURL() string {
	return b.GetAPIURL() + b.LogoutPath
}

func (b Backend) GetHTTPTimeout() time.Duration {
	return b.HTTPTimeout
}

func (b Backend) validate() error {
	u, err := url.Parse(b.APIURL)
	if err != nil {
		return fmt.Errorf("API_URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("API_URL: unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("API_URL: missing host")
	}
	for name, p := range map[string]string{
		"API_LOGIN_PATH":   b.LoginPath,
		"API_REFRESH_PATH": b.RefreshPath,
		"API_ME_PATH":      b.MePath,
		"API_LOGOUT_PATH":  b.LogoutPath,
	} {
		if !strings.HasPrefix(p, "/") {
			return fmt.Errorf("%s must start with /", name)
		}
	}
	if b.HTTPTimeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive")
	}
	return nil
}
