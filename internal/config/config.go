package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

const (
	FaultModeCrash = "crash" // let the runtime kill the process
	FaultModeTrap  = "trap"  // turn the fault into a recoverable panic
)

type Config struct {
	Label        string `yaml:"label"`   // prefix of every report line
	LogDir       string `yaml:"log_dir"` // logs directory
	Addr         string `yaml:"addr"`    // API bind address
	SlackWebhook string `yaml:"slack_webhook"`
	Probes       Probes `yaml:"probes"`
	API          API    `yaml:"api"`
}

type Probes struct {
	FSRoot         string        `yaml:"fs_root"`
	FSCleanup      bool          `yaml:"fs_cleanup"`
	TCPEndpoint    string        `yaml:"tcp_endpoint"`
	TCPDialTimeout time.Duration `yaml:"tcp_dial_timeout"`
	SwitchYields   int           `yaml:"switch_yields"`
	ThreadWorkers  int           `yaml:"thread_workers"`
	ThreadChildren int           `yaml:"thread_children"`
	ThreadPreempt  time.Duration `yaml:"thread_preempt"`
	ThreadShell    string        `yaml:"thread_shell"`
	FaultMode      string        `yaml:"fault_mode"`
}

type API struct {
	PublicAPIKeys  []string `yaml:"public_api_keys"`
	AdminAPIKeys   []string `yaml:"admin_api_keys"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	PublicRPM      int      `yaml:"public_rpm"`
	PublicBurst    int      `yaml:"public_burst"`
	AdminRPM       int      `yaml:"admin_rpm"`
	AdminBurst     int      `yaml:"admin_burst"`

	HistorySize      int           `yaml:"history_size"`
	ScheduleProbes   []string      `yaml:"schedule_probes"`
	ScheduleInterval time.Duration `yaml:"schedule_interval"`
}

func Default() Config {
	return Config{
		Label:  "BenGreen",
		LogDir: "logs",
		Addr:   "127.0.0.1:8080",
		Probes: Probes{
			FSRoot:         ".",
			FSCleanup:      true,
			TCPEndpoint:    "mirror.benchx.io:80",
			TCPDialTimeout: 10 * time.Second,
			SwitchYields:   500,
			ThreadWorkers:  10,
			ThreadChildren: 10,
			ThreadPreempt:  time.Second,
			ThreadShell:    "sh",
			FaultMode:      FaultModeCrash,
		},
		API: API{
			PublicRPM:   120,
			PublicBurst: 60,
			AdminRPM:    30,
			AdminBurst:  10,
			HistorySize: 1024,
		},
	}
}

// Load reads an optional YAML file, then applies env overrides and
// validates. A missing file is not an error. Env values that fail to parse
// keep the earlier value.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return Config{}, fmt.Errorf("reading config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
			}
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	setString(&c.Label, "BENGREEN_LABEL")
	setString(&c.LogDir, "LOG_DIR")
	setString(&c.Addr, "ADDR")
	setString(&c.Addr, "API_ADDR")
	setString(&c.SlackWebhook, "SLACK_WEBHOOK_URL")

	p := &c.Probes
	setString(&p.FSRoot, "FS_ROOT")
	setBool(&p.FSCleanup, "FS_CLEANUP")
	setString(&p.TCPEndpoint, "TCP_ENDPOINT")
	setMillis(&p.TCPDialTimeout, "TCP_DIAL_TIMEOUT_MS")
	setInt(&p.SwitchYields, "SWITCH_YIELDS")
	setInt(&p.ThreadWorkers, "THREAD_WORKERS")
	setInt(&p.ThreadChildren, "THREAD_CHILDREN")
	setMillis(&p.ThreadPreempt, "THREAD_PREEMPT_MS")
	setString(&p.ThreadShell, "THREAD_SHELL")
	setString(&p.FaultMode, "FAULT_MODE")

	a := &c.API
	setList(&a.PublicAPIKeys, "PUBLIC_API_KEYS")
	setList(&a.AdminAPIKeys, "ADMIN_API_KEYS")
	setList(&a.AllowedOrigins, "ALLOWED_ORIGINS")
	setInt(&a.PublicRPM, "PUBLIC_RPM")
	setInt(&a.PublicBurst, "PUBLIC_BURST")
	setInt(&a.AdminRPM, "ADMIN_RPM")
	setInt(&a.AdminBurst, "ADMIN_BURST")
	setInt(&a.HistorySize, "HISTORY_SIZE")
	setList(&a.ScheduleProbes, "SCHEDULE_PROBES")
	setMillis(&a.ScheduleInterval, "SCHEDULE_INTERVAL_MS")
}

// Validate reports every problem at once.
func (c Config) Validate() error {
	var err error
	if c.Label == "" {
		err = multierr.Append(err, errors.New("label is required"))
	}
	p := c.Probes
	if p.TCPEndpoint == "" {
		err = multierr.Append(err, errors.New("probes.tcp_endpoint is required"))
	}
	if p.SwitchYields < 0 {
		err = multierr.Append(err, errors.New("probes.switch_yields must be >= 0"))
	}
	if p.ThreadWorkers < 0 || p.ThreadChildren < 0 {
		err = multierr.Append(err, errors.New("probes.thread_workers and probes.thread_children must be >= 0"))
	}
	if p.ThreadShell == "" {
		err = multierr.Append(err, errors.New("probes.thread_shell is required"))
	}
	if p.FaultMode != FaultModeCrash && p.FaultMode != FaultModeTrap {
		err = multierr.Append(err, fmt.Errorf("probes.fault_mode must be %q or %q, got %q", FaultModeCrash, FaultModeTrap, p.FaultMode))
	}
	if slices.ContainsFunc(c.API.ScheduleProbes, p.Crashes) {
		err = multierr.Append(err, errors.New("api.schedule_probes cannot include page_fault unless probes.fault_mode is trap"))
	}
	return err
}

// Crashes reports whether running the named probe takes the process down.
// Long-running callers must refuse such probes.
func (p Probes) Crashes(name string) bool {
	return name == "page_fault" && p.FaultMode != FaultModeTrap
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			*dst = n
		}
	}
}

func setMillis(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms >= 0 {
			*dst = time.Duration(ms) * time.Millisecond
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

// setList splits a comma separated value, dropping empty items.
func setList(dst *[]string, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	*dst = out
}
