package internal

import (
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/failbook/internal/aggregate"
	"github.com/starford/failbook/internal/report"
)

// Config represents the application configuration.
type Config struct {
	App    ApplicationConfig `yaml:"app"`
	Scan   ScanConfig        `yaml:"scan"`
	Output OutputConfig      `yaml:"output"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Scan.Validate(); err != nil {
		return err
	}
	return c.Output.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// ScanConfig describes where run batches live and how runs are recognised.
type ScanConfig struct {
	BaseDir        string `yaml:"base_dir"`
	ResultsFile    string `yaml:"results_file"`
	TranscriptFile string `yaml:"transcript_file"`
}

// Validate validates the scan configuration.
func (c *ScanConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.BaseDir, validation.Required),
		validation.Field(&c.ResultsFile, validation.Required),
		validation.Field(&c.TranscriptFile, validation.Required),
	)
}

// OutputConfig names the artifacts written into each processed directory.
type OutputConfig struct {
	Combined string `yaml:"combined"`
	Cleaned  string `yaml:"cleaned"`
	HTML     string `yaml:"html"`
	Title    string `yaml:"title"`
}

// Validate validates the output configuration.
func (c *OutputConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Combined, validation.Required),
		validation.Field(&c.Cleaned, validation.Required),
		validation.Field(&c.HTML, validation.Required),
	); err != nil {
		return err
	}
	if c.Combined == c.Cleaned || c.Combined == c.HTML || c.Cleaned == c.HTML {
		return fmt.Errorf("output: artifact names must be distinct")
	}
	return nil
}

// Outputs converts the config to report output names.
func (c *OutputConfig) Outputs() report.Outputs {
	return report.Outputs{Combined: c.Combined, Cleaned: c.Cleaned, HTML: c.HTML}
}

// NewDefaultConfig returns a new Config with sensible default values.
// BaseDir has no default and must come from the command line or the file.
func NewDefaultConfig() *Config {
	out := report.DefaultOutputs()
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Host: "0.0.0.0",
				Port: 9999,
			},
		},
		Scan: ScanConfig{
			ResultsFile:    aggregate.DefaultResultsFile,
			TranscriptFile: aggregate.DefaultTranscriptFile,
		},
		Output: OutputConfig{
			Combined: out.Combined,
			Cleaned:  out.Cleaned,
			HTML:     out.HTML,
			Title:    "Failed runs",
		},
	}
}
