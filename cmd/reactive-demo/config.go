package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// Config is the demo configuration. It is read from an optional YAML file;
// flags given on the command line take precedence.
type Config struct {
	Log          LogConfig     `yaml:"log"`
	MetricsAddr  string        `yaml:"metrics_addr"`
	Buffer       int           `yaml:"buffer"`
	Readings     int           `yaml:"readings"`
	Target       int           `yaml:"target"`
	Interval     time.Duration `yaml:"interval"`
	MatchTimeout time.Duration `yaml:"match_timeout"`
	AlarmAbove   float64       `yaml:"alarm_above"`
	Redis        RedisConfig   `yaml:"redis"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text or json
}

// RedisConfig enables the Redis bridge when Addr is set.
type RedisConfig struct {
	Addr    string `yaml:"addr"`
	Channel string `yaml:"channel"`
}

func defaultConfig() Config {
	return Config{
		Log:          LogConfig{Level: "info", Format: "text"},
		Buffer:       16,
		Readings:     10,
		Target:       5,
		Interval:     20 * time.Millisecond,
		MatchTimeout: 2 * time.Second,
		AlarmAbove:   8,
		Redis:        RedisConfig{Channel: "reactive-demo"},
	}
}

func (c *Config) Read(src io.Reader) error {
	err := yaml.NewDecoder(src).Decode(c)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func (c *Config) ReadFromYaml(file string) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := c.Read(f); err != nil {
		return fmt.Errorf("parse %s: %w", file, err)
	}
	return nil
}

func (c *Config) Validate() error {
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}
	if c.Buffer <= 0 {
		return fmt.Errorf("buffer must be positive, got %d", c.Buffer)
	}
	if c.Readings <= 0 || c.Target <= 0 {
		return fmt.Errorf("readings and target must be positive")
	}
	if c.MatchTimeout <= 0 {
		return fmt.Errorf("match timeout must be positive")
	}
	if c.Redis.Addr != "" && c.Redis.Channel == "" {
		return fmt.Errorf("redis channel is required with a redis address")
	}
	return nil
}

// Logger builds the logrus logger described by the log section.
func (c *Config) Logger(out io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(out)
	if lvl, err := logrus.ParseLevel(c.Log.Level); err == nil {
		l.SetLevel(lvl)
	}
	if c.Log.Format == "json" {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return l
}

func newFlagSet(c *Config, configPath *string) *pflag.FlagSet {
	fs := pflag.NewFlagSet("reactive-demo", pflag.ContinueOnError)
	fs.StringVarP(configPath, "config", "c", "", "path to a YAML config file")
	fs.StringVar(&c.Log.Level, "log-level", c.Log.Level, "log level (trace, debug, info, warn, error)")
	fs.StringVar(&c.Log.Format, "log-format", c.Log.Format, "log format (text or json)")
	fs.StringVar(&c.MetricsAddr, "metrics-addr", c.MetricsAddr, "serve Prometheus metrics on this address")
	fs.IntVar(&c.Buffer, "buffer", c.Buffer, "per-subscriber feed buffer")
	fs.IntVar(&c.Readings, "readings", c.Readings, "number of readings to publish")
	fs.IntVar(&c.Target, "target", c.Target, "readings to wait for before the match resolves")
	fs.DurationVar(&c.Interval, "interval", c.Interval, "delay between readings")
	fs.DurationVar(&c.MatchTimeout, "match-timeout", c.MatchTimeout, "give up waiting for the match after this long")
	fs.Float64Var(&c.AlarmAbove, "alarm-above", c.AlarmAbove, "raise an alarm for readings above this value")
	fs.StringVar(&c.Redis.Addr, "redis-addr", c.Redis.Addr, "mirror events to Redis at this address")
	fs.StringVar(&c.Redis.Channel, "redis-channel", c.Redis.Channel, "Redis pub/sub channel")
	fs.BoolP("help", "h", false, "show help")
	return fs
}

// LoadConfig parses args. Values come from the defaults, then the file
// named by --config, then any flag set explicitly.
func LoadConfig(args []string) (Config, *pflag.FlagSet, error) {
	var (
		path  string
		flags = defaultConfig()
	)
	fs := newFlagSet(&flags, &path)
	if err := fs.Parse(args); err != nil {
		return Config{}, fs, err
	}

	cfg := defaultConfig()
	if path != "" {
		if err := cfg.ReadFromYaml(path); err != nil {
			return Config{}, fs, err
		}
	}

	// Flags only override the file when given.
	override := newFlagSet(&cfg, &path)
	fs.Visit(func(f *pflag.Flag) {
		if f.Name == "config" || f.Name == "help" {
			return
		}
		_ = override.Set(f.Name, f.Value.String())
	})

	if err := cfg.Validate(); err != nil {
		return Config{}, fs, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, fs, nil
}
