package config

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Environment is the deployment target a build is pushed to.
type Environment string

const (
	EnvProduction Environment = "production"
	EnvDemo       Environment = "demo"
	EnvSandbox    Environment = "sandbox"
)

func ParseEnvironment(value string) (Environment, error) {
	switch strings.ToLower(value) {
	case "production":
		return EnvProduction, nil
	case "demo":
		return EnvDemo, nil
	case "sandbox":
		return EnvSandbox, nil
	default:
		return "", fmt.Errorf("invalid environment %q: must be production, demo, or sandbox", value)
	}
}

// environmentFromBranch maps legacy branch_slug values onto the three
// environments by prefix.
func environmentFromBranch(branch string) (Environment, error) {
	switch {
	case strings.HasPrefix(branch, "internal-"):
		return EnvSandbox, nil
	case strings.HasPrefix(branch, "production-"):
		return EnvProduction, nil
	case strings.HasPrefix(branch, "demo-"):
		return EnvDemo, nil
	default:
		return "", fmt.Errorf("cannot map legacy branch %q to an environment", branch)
	}
}

// EngineKind identifies which engine table the config carries.
type EngineKind string

const (
	EngineGodot  EngineKind = "godot"
	EngineUnity  EngineKind = "unity"
	EngineCustom EngineKind = "custom"
)

// Label returns the engine name the control plane and sandbox expect.
func (k EngineKind) Label() string {
	return strings.ToUpper(string(k))
}

// Engine is the single active engine section. Entrypoint is only set
// for EngineCustom; the constructor in load.go enforces that.
type Engine struct {
	Kind       EngineKind
	Version    string
	Entrypoint string
}

type WebhookConfig struct {
	Name    string            `mapstructure:"name"`
	URL     string            `mapstructure:"url"`
	Headers map[string]string `mapstructure:"headers"`
}

type NotificationsConfig struct {
	Webhooks []WebhookConfig `mapstructure:"webhooks"`
}

// ProjectConfig is the loaded playcast.toml. It is immutable for the
// life of the process.
type ProjectConfig struct {
	Org          string
	Game         string
	Environment  Environment
	BuildVersion string // empty when the project does not version builds
	UploadDir    string // as written in the file, relative to the config
	Engine       Engine
	Notify       NotificationsConfig

	path string // absolute path the config was loaded from
}

// Path returns the absolute path of the loaded config file.
func (c *ProjectConfig) Path() string { return c.path }

// Dir returns the directory containing the config file.
func (c *ProjectConfig) Dir() string { return filepath.Dir(c.path) }

// ResolveUploadDir joins upload_dir onto the config file's directory.
func (c *ProjectConfig) ResolveUploadDir() string {
	if filepath.IsAbs(c.UploadDir) {
		return filepath.Clean(c.UploadDir)
	}
	return filepath.Join(c.Dir(), c.UploadDir)
}

// Summary renders the config for `playcast config show`.
func (c *ProjectConfig) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "org:         %s\n", c.Org)
	fmt.Fprintf(&b, "game:        %s\n", c.Game)
	fmt.Fprintf(&b, "environment: %s\n", c.Environment)
	if c.BuildVersion != "" {
		fmt.Fprintf(&b, "version:     %s\n", c.BuildVersion)
	}
	fmt.Fprintf(&b, "upload_dir:  %s\n", c.UploadDir)
	fmt.Fprintf(&b, "engine:      %s %s", c.Engine.Kind, c.Engine.Version)
	if c.Engine.Entrypoint != "" {
		fmt.Fprintf(&b, " (entrypoint %s)", c.Engine.Entrypoint)
	}
	return b.String()
}
