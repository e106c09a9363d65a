package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Server struct {
	Addr           string `yaml:"addr"`
	ReadTimeoutMS  int    `yaml:"read_timeout_ms"`
	WriteTimeoutMS int    `yaml:"write_timeout_ms"`
	IdleTimeoutMS  int    `yaml:"idle_timeout_ms"`
	MaxBodyBytes   int64  `yaml:"max_body_bytes"`
}

type Observability struct {
	LogLevel       string `yaml:"log_level"`       // "debug","info","warn","error"
	PrometheusPath string `yaml:"prometheus_path"` // e.g. "/metrics"
}

type Session struct {
	Token string `yaml:"token"`
	ID    string `yaml:"id"`
	Email string `yaml:"email"`
}

type Security struct {
	// AdminEmails is the static allow-list. Membership is necessary but not
	// sufficient for admin access; the stored role must also be "admin".
	AdminEmails     []string  `yaml:"admin_emails"`
	AdminPathPrefix string    `yaml:"admin_path_prefix"`
	LoginPath       string    `yaml:"login_path"`
	HomePath        string    `yaml:"home_path"`
	SessionCookie   string    `yaml:"session_cookie"`
	Sessions        []Session `yaml:"sessions"`
}

type CategoryPolicy struct {
	MaxCalls int `yaml:"max_calls"`
	WindowMS int `yaml:"window_ms"`
}

func (p CategoryPolicy) Window() time.Duration {
	return time.Duration(p.WindowMS) * time.Millisecond
}

type Limits struct {
	Categories map[string]CategoryPolicy `yaml:"categories"`
}

type Redis struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

type Audit struct {
	Enabled  bool   `yaml:"enabled"`
	Prefix   string `yaml:"prefix"`
	TTLHours int    `yaml:"ttl_hours"`
}

type Root struct {
	Server        Server        `yaml:"server"`
	Observability Observability `yaml:"observability"`
	Security      Security      `yaml:"security"`
	Limits        Limits        `yaml:"limits"`
	Redis         Redis         `yaml:"redis"`
	Audit         Audit         `yaml:"audit"`
}

func (s Server) ReadTimeout() time.Duration {
	if s.ReadTimeoutMS == 0 {
		return 5 * time.Second
	}
	return time.Duration(s.ReadTimeoutMS) * time.Millisecond
}

func (s Server) WriteTimeout() time.Duration {
	if s.WriteTimeoutMS == 0 {
		return 10 * time.Second
	}
	return time.Duration(s.WriteTimeoutMS) * time.Millisecond
}

func (s Server) IdleTimeout() time.Duration {
	if s.IdleTimeoutMS == 0 {
		return 60 * time.Second
	}
	return time.Duration(s.IdleTimeoutMS) * time.Millisecond
}

func (s Server) MaxBody() int64 {
	if s.MaxBodyBytes == 0 {
		return 1 << 20
	}
	return s.MaxBodyBytes
} // default 1MB

// DefaultCategories is the built-in policy table. Every throttled operation
// belongs to exactly one of these categories; call sites never invent limits.
func DefaultCategories() map[string]CategoryPolicy {
	return map[string]CategoryPolicy{
		"firewall": {MaxCalls: 100, WindowMS: 60_000},
		"admin":    {MaxCalls: 30, WindowMS: 60_000},
		"payment":  {MaxCalls: 10, WindowMS: 60_000},
		"coupon":   {MaxCalls: 5, WindowMS: 60_000},
		"pricing":  {MaxCalls: 20, WindowMS: 60_000},
		"role":     {MaxCalls: 10, WindowMS: 60_000},
	}
}

func (a Audit) TTL() time.Duration {
	if a.TTLHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(a.TTLHours) * time.Hour
}

func Load(path string) (*Root, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Root
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, err
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Observability.LogLevel == "" {
		cfg.Observability.LogLevel = "info"
	}
	if cfg.Observability.PrometheusPath == "" {
		cfg.Observability.PrometheusPath = "/metrics"
	}
	if cfg.Security.AdminPathPrefix == "" {
		cfg.Security.AdminPathPrefix = "/admin"
	}
	if cfg.Security.LoginPath == "" {
		cfg.Security.LoginPath = "/login"
	}
	if cfg.Security.HomePath == "" {
		cfg.Security.HomePath = "/dashboard"
	}
	if cfg.Security.SessionCookie == "" {
		cfg.Security.SessionCookie = "session"
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = "127.0.0.1:6379"
	}
	if cfg.Redis.Prefix == "" {
		cfg.Redis.Prefix = "edgeguard"
	}
	if cfg.Audit.Prefix == "" {
		cfg.Audit.Prefix = "edgeguard:audit"
	}

	// merge configured categories over the defaults
	merged := DefaultCategories()
	for name, p := range cfg.Limits.Categories {
		if p.MaxCalls <= 0 || p.WindowMS <= 0 {
			return nil, fmt.Errorf("limits.categories.%s: max_calls and window_ms must be positive", name)
		}
		merged[name] = p
	}
	cfg.Limits.Categories = merged

	return &cfg, nil
}
