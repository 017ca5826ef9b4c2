// Package config holds the explicit configuration of an extraction run.
//
// Values are layered, later layers winning:
//
//  1. built-in defaults (Default)
//  2. an optional YAML file (LoadFile)
//  3. environment variables (ApplyEnv): TESSERACT_CMD,
//     GOOGLE_APPLICATION_CREDENTIALS and OCREXTRACT_* for the rest
//  4. command line flags, applied by the caller
//
// Example file:
//
//	img_dir: img
//	output: ocr_output.json
//	tesseract_cmd: /usr/local/bin/tesseract
//	languages: [eng, deu]
//	timeout: 90s
//	words: true
//	documentai:
//	  project_id: "your-gcp-project-id"
//	  location: "us"
//	  processor_id: "your-processor-id"
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/gardar/ocrbatch/pkg/extract"
	"github.com/gardar/ocrbatch/pkg/ocr"
)

// Engine names.
const (
	EngineTesseract    = "tesseract"
	EngineDocumentAI   = "documentai"
	EngineLibTesseract = "libtesseract"
)

// EnvPrefix prefixes the environment variables of settings without a
// well-known variable of their own.
const EnvPrefix = "OCREXTRACT"

// Config is the complete configuration of a run.
type Config struct {
	ImageDir     string        `yaml:"img_dir"`
	Output       string        `yaml:"output"`
	TesseractCmd string        `yaml:"tesseract_cmd"`
	Engine       string        `yaml:"engine"`
	Languages    []string      `yaml:"languages"`
	PSM          int           `yaml:"psm"`
	Timeout      time.Duration `yaml:"timeout"`
	Words        bool          `yaml:"words"`
	Extensions   []string      `yaml:"extensions"`
	PDF          string        `yaml:"pdf"`
	LogLevel     string        `yaml:"log_level"`
	DocumentAI   DocumentAI    `yaml:"documentai"`
}

// DocumentAI configures the Google Document AI engine.
type DocumentAI struct {
	ProjectID       string `yaml:"project_id"`
	Location        string `yaml:"location"`
	ProcessorID     string `yaml:"processor_id"`
	CredentialsFile string `yaml:"credentials_file"`
	// DumpDir receives the raw API response of each image as JSON.
	DumpDir string `yaml:"dump_dir"`
}

// Default returns the built-in defaults. The image directory and output
// path have none and must be configured.
func Default() Config {
	return Config{
		Engine:     EngineTesseract,
		Timeout:    extract.DefaultTimeout,
		Extensions: append([]string(nil), extract.DefaultExtensions...),
		LogLevel:   "info",
	}
}

// LoadFile overlays the YAML file at path on the defaults. An empty path
// returns the defaults.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// Env returns a viper instance bound to the environment variables the
// configuration reads.
func Env() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	_ = v.BindEnv("tesseract_cmd", "TESSERACT_CMD")
	_ = v.BindEnv("credentials_file", "GOOGLE_APPLICATION_CREDENTIALS")
	return v
}

// ApplyEnv overlays the environment layer read through v.
func (c *Config) ApplyEnv(v *viper.Viper) error {
	if s := v.GetString("tesseract_cmd"); s != "" {
		c.TesseractCmd = s
	}
	if s := v.GetString("credentials_file"); s != "" {
		c.DocumentAI.CredentialsFile = s
	}
	if s := v.GetString("engine"); s != "" {
		c.Engine = s
	}
	if s := v.GetString("lang"); s != "" {
		c.Languages = SplitLanguages(s)
	}
	if s := v.GetString("log_level"); s != "" {
		c.LogLevel = s
	}
	if s := v.GetString("psm"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return &ocr.InvalidConfigError{Field: EnvPrefix + "_PSM", Reason: err.Error()}
		}
		c.PSM = n
	}
	if s := v.GetString("timeout"); s != "" {
		d, err := time.ParseDuration(s)
		if err != nil {
			return &ocr.InvalidConfigError{Field: EnvPrefix + "_TIMEOUT", Reason: err.Error()}
		}
		c.Timeout = d
	}
	return nil
}

// SplitLanguages accepts tesseract style "eng+deu" as well as "eng,deu".
func SplitLanguages(s string) []string {
	var langs []string
	for _, l := range strings.FieldsFunc(s, func(r rune) bool { return r == '+' || r == ',' }) {
		if l = strings.TrimSpace(l); l != "" {
			langs = append(langs, l)
		}
	}
	return langs
}

// Validate checks the merged configuration.
func (c Config) Validate() error {
	if strings.TrimSpace(c.ImageDir) == "" {
		return &ocr.InvalidConfigError{Field: "img_dir", Reason: "required"}
	}
	if strings.TrimSpace(c.Output) == "" {
		return &ocr.InvalidConfigError{Field: "output", Reason: "required"}
	}
	if c.PSM < 0 || c.PSM > 13 {
		return &ocr.InvalidConfigError{Field: "psm", Reason: fmt.Sprintf("%d is outside 0-13", c.PSM)}
	}
	if c.Timeout < 0 {
		return &ocr.InvalidConfigError{Field: "timeout", Reason: "must not be negative"}
	}
	switch c.Engine {
	case EngineTesseract, EngineLibTesseract:
	case EngineDocumentAI:
		d := c.DocumentAI
		if d.ProjectID == "" || d.Location == "" || d.ProcessorID == "" {
			return &ocr.InvalidConfigError{Field: "documentai", Reason: "project_id, location and processor_id are required"}
		}
	default:
		return &ocr.InvalidConfigError{Field: "engine", Reason: fmt.Sprintf("unknown engine %q", c.Engine)}
	}
	return nil
}

// ExtractOptions maps the configuration onto the extractor options.
func (c Config) ExtractOptions() extract.Options {
	return extract.Options{
		ImageDir:   c.ImageDir,
		OutputPath: c.Output,
		Extensions: c.Extensions,
		Timeout:    c.Timeout,
		Detailed:   c.Words,
		OCR: ocr.Options{
			Languages:         c.Languages,
			PSM:               c.PSM,
			DetectOrientation: c.Words,
		},
	}
}
