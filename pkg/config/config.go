// Package config resolves application settings from defaults, a config
// file and PARTITION_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/gilchrisn/graph-partition-service/pkg/louvain"
	"github.com/gilchrisn/graph-partition-service/pkg/pipeline"
)

// EnvPrefix prefixes environment overrides, e.g. PARTITION_INPUT_HEADER_SKIP.
const EnvPrefix = "PARTITION"

var validate = validator.New()

// Config manages application configuration using Viper
type Config struct {
	v *viper.Viper
}

// NewConfig creates a new configuration with defaults. input.header_skip
// deliberately has none.
func NewConfig() *Config {
	v := viper.New()

	v.SetDefault("partitioning.type", pipeline.StrategyCommunity)
	v.SetDefault("partitioning.count", 0)
	v.SetDefault("partitioning.blocksize", 1)
	v.SetDefault("partitioning.distributor", "scan")
	v.SetDefault("detector.backend", louvain.BackendLouvain)

	v.SetDefault("output.format", "csv")
	v.SetDefault("output.dir", "")

	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)
	v.SetDefault("server.max_upload_bytes", int64(100*1024*1024))
	v.SetDefault("server.allowed_origins", []string{"*"})

	v.SetDefault("logging.level", "info")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &Config{v: v}
}

// LoadFromFile loads configuration from file
func (c *Config) LoadFromFile(path string) error {
	c.v.SetConfigFile(path)
	if err := c.v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return nil
}

// Set allows dynamic configuration changes
func (c *Config) Set(key string, value interface{}) {
	c.v.Set(key, value)
}

func (c *Config) LogLevel() string { return c.v.GetString("logging.level") }

// CreateLogger creates a zerolog logger based on config
func (c *Config) CreateLogger() zerolog.Logger {
	level, err := zerolog.ParseLevel(c.LogLevel())
	if err != nil {
		level = zerolog.InfoLevel
	}

	return zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: "15:04:05",
	}).Level(level).With().Timestamp().Str("service", "partition").Logger()
}

// LouvainConfig returns detector settings with every algorithm.* key set
// here copied over the detector defaults.
func (c *Config) LouvainConfig() *louvain.Config {
	lc := louvain.NewConfig()
	for _, key := range c.v.AllKeys() {
		if strings.HasPrefix(key, "algorithm.") {
			lc.Set(key, c.v.Get(key))
		}
	}
	lc.Set("logging.level", c.LogLevel())
	return lc
}

// Settings is the resolved and validated configuration.
type Settings struct {
	Input        InputSettings
	Partitioning PartitioningSettings
	Detector     DetectorSettings
	Output       OutputSettings
	Server       ServerSettings
}

// InputSettings describes the edge-list source. HeaderSkip is nil when
// unset.
type InputSettings struct {
	HeaderSkip *int `validate:"required,min=0"`
}

// PartitioningSettings selects the strategy. Count 0 means the caller
// supplies n per run.
type PartitioningSettings struct {
	Type        string    `validate:"oneof=community round-robin"`
	Count       int       `validate:"min=0"`
	Blocksize   int       `validate:"min=0"`
	Weights     []float64 `validate:"omitempty,dive,gt=0"`
	Distributor string    `validate:"oneof=scan heap"`
}

// DetectorSettings selects the community detection backend.
type DetectorSettings struct {
	Backend string `validate:"oneof=louvain gonum"`
}

// OutputSettings controls report serialisation.
type OutputSettings struct {
	Format string `validate:"oneof=csv json yaml"`
	Dir    string
}

// ServerSettings configures the HTTP API.
type ServerSettings struct {
	Address         string        `validate:"required"`
	ReadTimeout     time.Duration `validate:"gt=0"`
	WriteTimeout    time.Duration `validate:"gt=0"`
	ShutdownTimeout time.Duration `validate:"gt=0"`
	MaxUploadBytes  int64         `validate:"gt=0"`
	AllowedOrigins  []string      `validate:"min=1"`
}

// Settings resolves and validates the configuration.
func (c *Config) Settings() (*Settings, error) {
	s, err := c.resolve()
	if err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// ServerSettings is Settings for the HTTP server, where requests may carry
// their own header skip and input.header_skip may stay unset.
func (c *Config) ServerSettings() (*Settings, error) {
	s, err := c.resolve()
	if err != nil {
		return nil, err
	}
	if err := formatValidation(validate.StructExcept(s, "Input.HeaderSkip")); err != nil {
		return nil, err
	}
	if s.Input.HeaderSkip != nil && *s.Input.HeaderSkip < 0 {
		return nil, fmt.Errorf("invalid configuration: header skip must be >= 0, got %d", *s.Input.HeaderSkip)
	}
	return s, nil
}

func (c *Config) resolve() (*Settings, error) {
	weights, err := c.weights()
	if err != nil {
		return nil, err
	}

	s := &Settings{
		Partitioning: PartitioningSettings{
			Type:        c.v.GetString("partitioning.type"),
			Count:       c.v.GetInt("partitioning.count"),
			Blocksize:   c.v.GetInt("partitioning.blocksize"),
			Weights:     weights,
			Distributor: c.v.GetString("partitioning.distributor"),
		},
		Detector: DetectorSettings{
			Backend: c.v.GetString("detector.backend"),
		},
		Output: OutputSettings{
			Format: c.v.GetString("output.format"),
			Dir:    c.v.GetString("output.dir"),
		},
		Server: ServerSettings{
			Address:         c.v.GetString("server.address"),
			ReadTimeout:     c.v.GetDuration("server.read_timeout"),
			WriteTimeout:    c.v.GetDuration("server.write_timeout"),
			ShutdownTimeout: c.v.GetDuration("server.shutdown_timeout"),
			MaxUploadBytes:  c.v.GetInt64("server.max_upload_bytes"),
			AllowedOrigins:  c.v.GetStringSlice("server.allowed_origins"),
		},
	}
	if c.v.IsSet("input.header_skip") {
		skip := c.v.GetInt("input.header_skip")
		s.Input.HeaderSkip = &skip
	}
	return s, nil
}

func (c *Config) weights() ([]float64, error) {
	raw := c.v.Get("partitioning.weights")
	switch w := raw.(type) {
	case nil:
		return nil, nil
	case []float64:
		return w, nil
	case string:
		return ParseWeights(w)
	}

	values := c.v.GetStringSlice("partitioning.weights")
	return ParseWeights(strings.Join(values, ","))
}

// ParseWeights parses a comma- or space-separated list of fractions. An
// empty string yields nil.
func ParseWeights(s string) ([]float64, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' })
	if len(fields) == 0 {
		return nil, nil
	}

	weights := make([]float64, len(fields))
	for i, f := range fields {
		w, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid partition weight %q: %w", f, err)
		}
		weights[i] = w
	}
	return weights, nil
}

// Validate checks the struct tags and returns one error naming every
// failing field.
func (s *Settings) Validate() error {
	return formatValidation(validate.Struct(s))
}

func formatValidation(err error) error {
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed on '%s'", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
}

// PipelineOptions maps the settings onto pipeline options. Logger, metrics
// and detector config are left for the caller.
func (s *Settings) PipelineOptions() pipeline.Options {
	opts := pipeline.Options{
		Strategy:    s.Partitioning.Type,
		Backend:     s.Detector.Backend,
		Distributor: s.Partitioning.Distributor,
		Weights:     s.Partitioning.Weights,
		Blocksize:   s.Partitioning.Blocksize,
		Logger:      zerolog.Nop(),
	}
	if s.Input.HeaderSkip != nil {
		opts.HeaderSkip = *s.Input.HeaderSkip
	}
	return opts
}
