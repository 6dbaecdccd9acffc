// Package config loads the .cloudbuild.yaml configuration file.
package config

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

// DefaultFile is the config file looked up when --config is not given.
const DefaultFile = ".cloudbuild.yaml"

const schemaFile = "schemas/cloudbuild-config.v1.schema.json"

//go:embed schemas/cloudbuild-config.v1.schema.json
var schemaFS embed.FS

// Config represents the .cloudbuild.yaml configuration file.
type Config struct {
	GCP    GCPConfig    `yaml:"gcp"`
	Image  ImageConfig  `yaml:"image"`
	Source SourceConfig `yaml:"source"`
	Build  BuildConfig  `yaml:"build"`
}

// GCPConfig holds project and worker settings.
type GCPConfig struct {
	ProjectID   string `yaml:"projectId"`
	Region      string `yaml:"region"`
	MachineType string `yaml:"machineType"`
	KeyFile     string `yaml:"keyFile,omitempty"`
}

// ImageConfig describes the image to build and how to tag it.
type ImageConfig struct {
	Name           string   `yaml:"name"`
	Dockerfile     string   `yaml:"dockerfile,omitempty"`
	RootFolder     string   `yaml:"rootFolder"`
	TagFormat      string   `yaml:"tagFormat"`
	IncludeLatest  bool     `yaml:"includeLatest"`
	AdditionalTags []string `yaml:"additionalTags,omitempty"`
}

// SourceConfig locates the uploaded build context archive.
type SourceConfig struct {
	Bucket string `yaml:"bucket"`
	Path   string `yaml:"path"`
	Verify bool   `yaml:"verify"`
}

// BuildConfig holds remote build settings.
type BuildConfig struct {
	// Timeout is a Go duration string applied by the build service.
	Timeout string `yaml:"timeout,omitempty"`
}

// Default returns a config holding only default values.
func Default() *Config {
	var c Config
	c.applyDefaults()
	return &c
}

// Load reads, schema-validates and parses the config file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(data)
}

// LoadOptional behaves like Load but returns defaults when path does not exist.
func LoadOptional(path string) (*Config, error) {
	c, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return c, err
}

// Parse validates data against the embedded schema and decodes it.
func Parse(data []byte) (*Config, error) {
	result, err := ValidateSchema(data)
	if err != nil {
		return nil, err
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			msgs = append(msgs, desc.String())
		}
		return nil, fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
	}
	return Decode(data)
}

// Decode parses data that already passed ValidateSchema, applies defaults
// and checks the remaining semantic constraints.
func Decode(data []byte) (*Config, error) {
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// ValidateSchema checks a YAML document against the embedded JSON schema.
func ValidateSchema(data []byte) (*gojsonschema.Result, error) {
	schemaBytes, err := schemaFS.ReadFile(schemaFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load JSON schema: %w", err)
	}

	var doc map[string]interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if doc == nil {
		doc = map[string]interface{}{}
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schemaBytes),
		gojsonschema.NewGoLoader(doc),
	)
	if err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}
	return result, nil
}

// Validate checks semantic constraints the schema cannot express.
func (c *Config) Validate() error {
	_, err := c.Build.TimeoutDuration()
	return err
}

// TimeoutDuration parses Timeout. An empty timeout yields zero.
func (b BuildConfig) TimeoutDuration() (time.Duration, error) {
	if b.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(b.Timeout)
	if err != nil {
		return 0, fmt.Errorf("build.timeout: %w", err)
	}
	if d < 0 {
		return 0, fmt.Errorf("build.timeout must not be negative")
	}
	return d, nil
}

// applyDefaults sets default values for missing fields.
func (c *Config) applyDefaults() {
	if c.GCP.Region == "" {
		c.GCP.Region = "global"
	}
	if c.Image.RootFolder == "" {
		c.Image.RootFolder = "."
	}
	if c.Image.TagFormat == "" {
		c.Image.TagFormat = "$BRANCH-$SHA"
	}
}
