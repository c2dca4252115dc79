package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ubuntu/decorate"
	"gopkg.in/yaml.v3"
)

// DefaultSourceURL is the FBCV group listing the calendar was first built for.
const DefaultSourceURL = "https://esb.optimalwayconsulting.com/fbcv/1/btz38ZsZlAdaODiH2fGsnJC9mZgSNPeR/FCBQWeb/getAllGamesByGrupWithMatchRecords/1399"

type SourceConfig struct {
	Type      string        `yaml:"type"`   // http | file
	URL       string        `yaml:"url"`    // token is embedded in the path
	Path      string        `yaml:"path"`   // payload file for type=file
	Format    string        `yaml:"format"` // json | text
	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"user_agent"`
}

type CalendarConfig struct {
	Name          string        `yaml:"name"`     // X-WR-CALNAME
	ProdID        string        `yaml:"prod_id"`  // PRODID
	Timezone      string        `yaml:"timezone"` // IANA name, wall times are read in it
	UIDPrefix     string        `yaml:"uid_prefix"`
	UIDDomain     string        `yaml:"uid_domain"`
	EventDuration time.Duration `yaml:"event_duration"`
	Filename      string        `yaml:"filename"` // attachment name served over HTTP
}

// Location resolves Timezone.
func (c CalendarConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("calendar timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

type S3Config struct {
	Bucket string `yaml:"bucket"`
	Key    string `yaml:"key"`
	Region string `yaml:"region"`
}

type OutputConfig struct {
	Path string   `yaml:"path"`
	S3   S3Config `yaml:"s3"`
}

type Server struct {
	ListenAddress string        `yaml:"listen_address"`
	ReadTimeout   time.Duration `yaml:"read_timeout"`
	WriteTimeout  time.Duration `yaml:"write_timeout"`
	IdleTimeout   time.Duration `yaml:"idle_timeout"`
}

type DedupConfig struct {
	Enable  bool `yaml:"enable"`
	MaxKeys int  `yaml:"max_keys"` // cap to bound memory
}

type StateConfig struct {
	Path string `yaml:"path"` // run report file, disabled when empty
}

type MetricsConfig struct {
	Enable bool `yaml:"enable"`
}

type Config struct {
	Team     string         `yaml:"team"`
	Source   SourceConfig   `yaml:"source"`
	Calendar CalendarConfig `yaml:"calendar"`
	Output   OutputConfig   `yaml:"output"`
	Server   Server         `yaml:"server"`
	Dedup    DedupConfig    `yaml:"dedup"`
	State    StateConfig    `yaml:"state"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	c := Config{
		Dedup:   DedupConfig{Enable: true},
		Metrics: MetricsConfig{Enable: true},
	}
	c.applyDefaults()
	return c
}

// Load reads the YAML file at path on top of Default, fills unset values and
// applies BASQUET_* environment overrides. An empty path skips the file.
func Load(path string) (c *Config, err error) {
	defer decorate.OnError(&err, "load config %q", path)

	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Team == "" {
		c.Team = "XIRIVELLA"
	}
	if c.Source.Type == "" {
		c.Source.Type = "http"
	}
	if c.Source.Type == "http" && c.Source.URL == "" {
		c.Source.URL = DefaultSourceURL
	}
	if c.Source.Format == "" {
		c.Source.Format = "json"
	}
	if c.Source.Timeout == 0 {
		c.Source.Timeout = 30 * time.Second
	}
	if c.Calendar.Name == "" {
		c.Calendar.Name = "Partidos Xirivella"
	}
	if c.Calendar.ProdID == "" {
		c.Calendar.ProdID = "-//Xirivella FC//Calendar//EN"
	}
	if c.Calendar.Timezone == "" {
		c.Calendar.Timezone = "Europe/Madrid"
	}
	if c.Calendar.UIDPrefix == "" {
		c.Calendar.UIDPrefix = "xirivella"
	}
	if c.Calendar.UIDDomain == "" {
		c.Calendar.UIDDomain = "xirivella-calendar"
	}
	if c.Calendar.EventDuration == 0 {
		c.Calendar.EventDuration = 2 * time.Hour
	}
	if c.Calendar.Filename == "" {
		c.Calendar.Filename = "xirivella-partidos.ics"
	}
	if c.Output.Path == "" {
		c.Output.Path = "partidos_xirivella.ics"
	}
	if c.Output.S3.Key == "" {
		c.Output.S3.Key = c.Calendar.Filename
	}
	if c.Server.ListenAddress == "" {
		c.Server.ListenAddress = ":8080"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 5 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		// a request waits for the upstream fetch
		c.Server.WriteTimeout = c.Source.Timeout + 5*time.Second
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 60 * time.Second
	}
	if c.Dedup.MaxKeys <= 0 {
		c.Dedup.MaxKeys = 10000
	}
}

func (c *Config) applyEnv() {
	set := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	set("BASQUET_TEAM", &c.Team)
	set("BASQUET_SOURCE_URL", &c.Source.URL)
	set("BASQUET_SOURCE_FORMAT", &c.Source.Format)
	set("BASQUET_LISTEN_ADDRESS", &c.Server.ListenAddress)
	set("BASQUET_OUTPUT", &c.Output.Path)
}

// Validate reports every configuration problem at once.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Team) == "" {
		errs = append(errs, errors.New("team is empty"))
	}
	switch c.Source.Type {
	case "http":
		if strings.TrimSpace(c.Source.URL) == "" {
			errs = append(errs, errors.New("source.url is empty"))
		}
	case "file":
		if strings.TrimSpace(c.Source.Path) == "" {
			errs = append(errs, errors.New("source.path is empty"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown source.type %q", c.Source.Type))
	}
	switch strings.ToLower(c.Source.Format) {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("unknown source.format %q", c.Source.Format))
	}
	if c.Calendar.EventDuration <= 0 {
		errs = append(errs, fmt.Errorf("calendar.event_duration must be positive, got %s", c.Calendar.EventDuration))
	}
	if _, err := c.Calendar.Location(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
