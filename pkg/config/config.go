package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/blimu-dev/client-gen/pkg/generrors"
)

// Output modes.
const (
	ModeSingle    = "single"
	ModeSplit     = "split"
	ModeTags      = "tags"
	ModeTagsSplit = "tags-split"
)

// DefaultClient is used when a project does not name a client backend.
const DefaultClient = "axios-functions"

// Config represents a client-gen configuration file with one or more projects
type Config struct {
	Projects map[string]*Project `yaml:"projects"`
}

// Project is one input document turned into one generated client
type Project struct {
	// Name is the key of the project in the configuration file
	Name   string `yaml:"-"`
	Input  Input  `yaml:"input"`
	Output Output `yaml:"output"`
}

// Input describes where the API description comes from
type Input struct {
	// Target is a local path or an http(s) URL
	Target     string  `yaml:"target"`
	Validation bool    `yaml:"validation"`
	Filters    Filters `yaml:"filters"`
}

// Filters select operations by tag. Entries are regular expressions.
type Filters struct {
	IncludeTags []string `yaml:"includeTags"`
	ExcludeTags []string `yaml:"excludeTags"`
}

// Output describes what gets generated and where
type Output struct {
	// Target is the generated file path; in tags modes its directory holds the group files
	Target string `yaml:"target"`
	// Schemas is an optional directory receiving one file per schema
	Schemas string `yaml:"schemas"`
	Mode    string `yaml:"mode"`
	Client  string `yaml:"client"`
	Mock    bool   `yaml:"mock"`
	Title   string `yaml:"title"`
	// PostCommand runs after generation in the target directory.
	// Uses Docker Compose array format: ["prettier", "--write", "."]
	PostCommand []string `yaml:"postCommand"`
	Override    Override `yaml:"override"`
}

// IsURL reports whether target is an http(s) URL rather than a local path.
func IsURL(target string) bool {
	u, err := url.Parse(target)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https")
}

// Load loads configuration from a YAML file. Relative paths are resolved
// against the directory of the file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	return Parse(data, filepath.Dir(abs))
}

// Parse decodes configuration data, resolving relative paths against baseDir.
func Parse(data []byte, baseDir string) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, &generrors.ConfigError{Message: "invalid YAML", Cause: err}
	}
	if len(cfg.Projects) == 0 {
		return nil, &generrors.ConfigError{Option: "projects", Message: "at least one project is required"}
	}
	for name, p := range cfg.Projects {
		if p == nil {
			return nil, &generrors.ConfigError{Option: "projects." + name, Message: "project is empty"}
		}
		p.Name = name
		p.ApplyDefaults()
		p.resolvePaths(baseDir)
		if err := p.Validate(); err != nil {
			return nil, err
		}
	}
	return &cfg, nil
}

// ProjectNames returns the project names in a stable order.
func (c *Config) ProjectNames() []string {
	names := make([]string, 0, len(c.Projects))
	for name := range c.Projects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Project returns the named project.
func (c *Config) Project(name string) (*Project, error) {
	p, ok := c.Projects[name]
	if !ok {
		return nil, &generrors.ConfigError{Option: "projects", Message: fmt.Sprintf("unknown project %q", name)}
	}
	return p, nil
}

// ApplyDefaults fills in the mode, client and title when they are omitted.
func (p *Project) ApplyDefaults() {
	if p.Output.Mode == "" {
		p.Output.Mode = ModeSingle
	}
	if p.Output.Client == "" {
		p.Output.Client = DefaultClient
	}
	if p.Output.Title == "" {
		base := filepath.Base(p.Output.Target)
		p.Output.Title = strings.TrimSuffix(base, filepath.Ext(base))
	}
}

// Validate checks the fields generation cannot do without.
func (p *Project) Validate() error {
	prefix := "projects." + p.Name
	if p.Input.Target == "" {
		return &generrors.ConfigError{Option: prefix + ".input.target", Message: "is required"}
	}
	if p.Output.Target == "" {
		return &generrors.ConfigError{Option: prefix + ".output.target", Message: "is required"}
	}
	switch p.Output.Mode {
	case ModeSingle, ModeSplit, ModeTags, ModeTagsSplit:
	default:
		return &generrors.ConfigError{Option: prefix + ".output.mode", Message: fmt.Sprintf("unknown mode %q", p.Output.Mode)}
	}
	return p.Output.Override.validate(prefix + ".output.override")
}

func (p *Project) resolvePaths(baseDir string) {
	abs := func(path string) string {
		if path == "" || filepath.IsAbs(path) {
			return path
		}
		return filepath.Join(baseDir, path)
	}
	if !IsURL(p.Input.Target) {
		p.Input.Target = abs(p.Input.Target)
	}
	p.Output.Target = abs(p.Output.Target)
	p.Output.Schemas = abs(p.Output.Schemas)
	p.Output.Override.walkMutators(func(m *Mutator) {
		m.Path = abs(m.Path)
	})
}
