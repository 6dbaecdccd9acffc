package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/samber/lo"
)

// Environment holds the Google Cloud variables used as fallbacks.
type Environment struct {
	Project     string `env:"GOOGLE_CLOUD_PROJECT"`
	Credentials string `env:"GOOGLE_APPLICATION_CREDENTIALS"`
}

// LoadEnvironment parses the Google Cloud fallbacks from the process environment.
func LoadEnvironment() (Environment, error) {
	var e Environment
	if err := env.Parse(&e); err != nil {
		return Environment{}, fmt.Errorf("failed to parse environment: %w", err)
	}
	return e, nil
}

// Resolver handles configuration precedence: CLI flags > config file > environment > defaults
type Resolver struct {
	config *Config
	env    Environment
}

// NewResolver creates a new configuration resolver. A nil config resolves to defaults.
func NewResolver(config *Config, env Environment) *Resolver {
	if config == nil {
		config = Default()
	}
	return &Resolver{config: config, env: env}
}

// Config returns the underlying file configuration.
func (r *Resolver) Config() *Config {
	return r.config
}

// ResolveProjectID resolves the Google Cloud project.
// Precedence: CLI flag > gcp.projectId > GOOGLE_CLOUD_PROJECT
func (r *Resolver) ResolveProjectID(cliProject string) string {
	return lo.CoalesceOrEmpty(cliProject, r.config.GCP.ProjectID, r.env.Project)
}

// ResolveKeyFile resolves the service account key file.
// Precedence: CLI flag > gcp.keyFile > GOOGLE_APPLICATION_CREDENTIALS
func (r *Resolver) ResolveKeyFile(cliKeyFile string) string {
	return lo.CoalesceOrEmpty(cliKeyFile, r.config.GCP.KeyFile, r.env.Credentials)
}

// ResolveRegion resolves the build region, "global" when unset.
func (r *Resolver) ResolveRegion(cliRegion string) string {
	return lo.CoalesceOrEmpty(cliRegion, r.config.GCP.Region, "global")
}

// ResolveMachineType resolves the worker machine type, "UNSPECIFIED" when unset.
func (r *Resolver) ResolveMachineType(cliMachineType string) string {
	return lo.CoalesceOrEmpty(cliMachineType, r.config.GCP.MachineType, "UNSPECIFIED")
}

func (r *Resolver) ResolveImage(cliImage string) string {
	return lo.CoalesceOrEmpty(cliImage, r.config.Image.Name)
}

func (r *Resolver) ResolveDockerfile(cliDockerfile string) string {
	return lo.CoalesceOrEmpty(cliDockerfile, r.config.Image.Dockerfile)
}

func (r *Resolver) ResolveRootFolder(cliRootFolder string) string {
	return lo.CoalesceOrEmpty(cliRootFolder, r.config.Image.RootFolder, ".")
}

func (r *Resolver) ResolveTagFormat(cliFormat string) string {
	return lo.CoalesceOrEmpty(cliFormat, r.config.Image.TagFormat, "$BRANCH-$SHA")
}

// ResolveIncludeLatest returns the flag value when it was set explicitly.
func (r *Resolver) ResolveIncludeLatest(cliLatest bool, cliSet bool) bool {
	if cliSet {
		return cliLatest
	}
	return r.config.Image.IncludeLatest
}

// ResolveAdditionalTags prefers tags given on the command line over the file's list.
func (r *Resolver) ResolveAdditionalTags(cliTags []string) []string {
	if len(cliTags) > 0 {
		return cliTags
	}
	return r.config.Image.AdditionalTags
}

func (r *Resolver) ResolveSourceBucket(cliBucket string) string {
	return lo.CoalesceOrEmpty(cliBucket, r.config.Source.Bucket)
}

func (r *Resolver) ResolveSourcePath(cliPath string) string {
	return lo.CoalesceOrEmpty(cliPath, r.config.Source.Path)
}

// ResolveVerifySource enables the preflight when either the flag or the file asks for it.
func (r *Resolver) ResolveVerifySource(cliVerify bool) bool {
	return cliVerify || r.config.Source.Verify
}

// ResolveTimeout resolves the remote build timeout string.
func (r *Resolver) ResolveTimeout(cliTimeout string) string {
	return lo.CoalesceOrEmpty(cliTimeout, r.config.Build.Timeout)
}
