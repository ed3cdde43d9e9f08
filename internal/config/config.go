// Package config provides configuration loading and validation for the CLI.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	// ModeLocal renders and converts receipts on this machine.
	ModeLocal = "local"
	// ModeRemote asks the generation API to produce each receipt.
	ModeRemote = "remote"

	// SourceHTTP reads rows from the data API.
	SourceHTTP = "http"
	// SourceXLSX reads rows from a local spreadsheet export.
	SourceXLSX = "xlsx"
)

// Config is the full receipt generator configuration.
type Config struct {
	DataAPIURL       string `yaml:"data_api_url" mapstructure:"data_api_url" validate:"omitempty,url"`
	GenerationAPIURL string `yaml:"generation_api_url" mapstructure:"generation_api_url" validate:"omitempty,url"`
	MarkProcessedURL string `yaml:"mark_processed_url" mapstructure:"mark_processed_url" validate:"omitempty,url"`

	TemplatePath string `yaml:"template_path" mapstructure:"template_path" validate:"required"`
	EditableDir  string `yaml:"editable_dir" mapstructure:"editable_dir" validate:"required"`
	PDFDir       string `yaml:"pdf_dir" mapstructure:"pdf_dir" validate:"required"`

	RetryBackoffSeconds     int `yaml:"retry_backoff_seconds" mapstructure:"retry_backoff_seconds" validate:"gte=0"`
	InterRecordDelaySeconds int `yaml:"inter_record_delay_seconds" mapstructure:"inter_record_delay_seconds" validate:"gte=0"`
	HTTPTimeoutSeconds      int `yaml:"http_timeout_seconds" mapstructure:"http_timeout_seconds" validate:"gt=0"`

	Mode      string          `yaml:"mode" mapstructure:"mode" validate:"oneof=local remote"`
	Source    SourceConfig    `yaml:"source" mapstructure:"source"`
	Converter ConverterConfig `yaml:"converter" mapstructure:"converter"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// SourceConfig selects where donor rows come from.
type SourceConfig struct {
	Kind     string `yaml:"kind" mapstructure:"kind" validate:"oneof=http xlsx"`
	XLSXPath string `yaml:"xlsx_path" mapstructure:"xlsx_path"`
	Sheet    string `yaml:"sheet" mapstructure:"sheet"`
}

// ConverterConfig configures PDF conversion.
type ConverterConfig struct {
	GotenbergURL   string `yaml:"gotenberg_url" mapstructure:"gotenberg_url" validate:"omitempty,url"`
	SofficePath    string `yaml:"soffice_path" mapstructure:"soffice_path"`
	TimeoutSeconds int    `yaml:"timeout_seconds" mapstructure:"timeout_seconds" validate:"gt=0"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" mapstructure:"format" validate:"oneof=console json"`
}

// RetryBackoff is the wait before retrying a rate-limited generation call.
func (c *Config) RetryBackoff() time.Duration {
	return time.Duration(c.RetryBackoffSeconds) * time.Second
}

// InterRecordDelay is the pause between records that call the web app.
func (c *Config) InterRecordDelay() time.Duration {
	return time.Duration(c.InterRecordDelaySeconds) * time.Second
}

// HTTPTimeout bounds each web app request.
func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutSeconds) * time.Second
}

// ConverterTimeout bounds a single PDF conversion.
func (c *ConverterConfig) ConverterTimeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// MarkURL returns the mark-processed endpoint. It falls back to the
// generation endpoint, since one web app deployment usually serves both.
func (c *Config) MarkURL() string {
	if c.MarkProcessedURL != "" {
		return c.MarkProcessedURL
	}
	return c.GenerationAPIURL
}

// Load reads configuration from file and environment. An empty path looks
// for receipts.yaml in the working directory and tolerates its absence; an
// explicit path must exist.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Config file
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("receipts")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	// Environment
	v.SetEnvPrefix("RECEIPTS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("data_api_url", "")
	v.SetDefault("generation_api_url", "")
	v.SetDefault("mark_processed_url", "")
	v.SetDefault("template_path", "template.docx")
	v.SetDefault("editable_dir", "output/Editable")
	v.SetDefault("pdf_dir", "output/PDF")
	v.SetDefault("retry_backoff_seconds", 10)
	v.SetDefault("inter_record_delay_seconds", 2)
	v.SetDefault("http_timeout_seconds", 30)
	v.SetDefault("mode", ModeLocal)
	v.SetDefault("source.kind", SourceHTTP)
	v.SetDefault("source.xlsx_path", "")
	v.SetDefault("source.sheet", "")
	v.SetDefault("converter.gotenberg_url", "")
	v.SetDefault("converter.soffice_path", "")
	v.SetDefault("converter.timeout_seconds", 120)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	// Read config file (optional unless named explicitly)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks field formats and the settings each mode depends on.
func (c *Config) Validate() error {
	var problems []string

	if err := validator.New().Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return eris.Wrap(err, "config: validate")
		}
		for _, fe := range fieldErrs {
			problems = append(problems, describe(fe))
		}
	}

	switch c.Source.Kind {
	case SourceHTTP:
		if c.DataAPIURL == "" {
			problems = append(problems, "data_api_url is required when source.kind is http")
		}
	case SourceXLSX:
		if c.Source.XLSXPath == "" {
			problems = append(problems, "source.xlsx_path is required when source.kind is xlsx")
		}
	}

	if c.Mode == ModeRemote && c.GenerationAPIURL == "" {
		problems = append(problems, "generation_api_url is required when mode is remote")
	}

	if len(problems) > 0 {
		return eris.New("config error: " + strings.Join(problems, "; "))
	}
	return nil
}

// describe turns a validator field error into a message naming the config key.
func describe(fe validator.FieldError) string {
	key := configKey(fe.StructNamespace())
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", key)
	case "url":
		return fmt.Sprintf("%s must be a URL, got %q", key, fe.Value())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %q", key, fe.Param(), fe.Value())
	case "gt", "gte":
		return fmt.Sprintf("%s must be %s %s", key, map[string]string{"gt": ">", "gte": ">="}[fe.Tag()], fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", key, fe.Tag())
	}
}

// keyNames maps struct field names to config keys.
var keyNames = map[string]string{
	"DataAPIURL":              "data_api_url",
	"GenerationAPIURL":        "generation_api_url",
	"MarkProcessedURL":        "mark_processed_url",
	"TemplatePath":            "template_path",
	"EditableDir":             "editable_dir",
	"PDFDir":                  "pdf_dir",
	"RetryBackoffSeconds":     "retry_backoff_seconds",
	"InterRecordDelaySeconds": "inter_record_delay_seconds",
	"HTTPTimeoutSeconds":      "http_timeout_seconds",
	"Mode":                    "mode",
	"Source":                  "source",
	"Kind":                    "kind",
	"Converter":               "converter",
	"GotenbergURL":            "gotenberg_url",
	"TimeoutSeconds":          "timeout_seconds",
	"Log":                     "log",
	"Level":                   "level",
	"Format":                  "format",
}

func configKey(namespace string) string {
	parts := strings.Split(namespace, ".")
	if len(parts) > 0 && parts[0] == "Config" {
		parts = parts[1:]
	}
	for i, p := range parts {
		if k, ok := keyNames[p]; ok {
			parts[i] = k
		}
	}
	return strings.Join(parts, ".")
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
