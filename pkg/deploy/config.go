// Package deploy loads the deployment configuration and drives the
// Package -> Clone -> Pull -> Activate pipeline across a dependency-sorted
// list of abapGit repositories.
package deploy

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/erpl/erpl-adt/pkg/adt/aerr"
)

// ConnectionConfig is the SAP connection block of the deploy file.
type ConnectionConfig struct {
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	HTTPS       bool   `yaml:"https"`
	Client      string `yaml:"client"`
	User        string `yaml:"user"`
	Password    string `yaml:"password,omitempty"`
	PasswordEnv string `yaml:"password_env,omitempty"`
}

// RepoConfig is one repository to deploy.
type RepoConfig struct {
	Name      string   `yaml:"name"`
	URL       string   `yaml:"url"`
	Package   string   `yaml:"package"`
	Branch    string   `yaml:"branch,omitempty"`
	Activate  *bool    `yaml:"activate,omitempty"`
	DependsOn []string `yaml:"depends_on,omitempty"`
}

// ShouldActivate reports whether the activation step runs for this repo.
// Absent means yes.
func (r RepoConfig) ShouldActivate() bool {
	return r.Activate == nil || *r.Activate
}

// AppConfig is the full deploy configuration.
type AppConfig struct {
	Connection ConnectionConfig `yaml:"connection"`
	Repos      []RepoConfig     `yaml:"repos"`
	LogFile    string           `yaml:"log_file,omitempty"`
	JSONOutput bool             `yaml:"json_output,omitempty"`
	Verbose    bool             `yaml:"verbose,omitempty"`
	Quiet      bool             `yaml:"quiet,omitempty"`
	// TimeoutSeconds bounds each async operation. Zero means 300.
	TimeoutSeconds int `yaml:"timeout,omitempty"`
}

// Timeout returns the configured async timeout.
func (c *AppConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 300 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Overrides are the CLI flags that take precedence over file values when
// explicitly provided.
type Overrides struct {
	Host        string
	Port        int
	HTTPS       *bool
	Client      string
	User        string
	Password    string
	PasswordEnv string
	Verbose     *bool
	Quiet       *bool
	Timeout     int

	// Single-repo mode: when URL is set, one RepoConfig named cli-repo
	// is synthesized (replacing any file repos).
	URL      string
	Package  string
	Branch   string
	Activate *bool
}

// Load reads a deploy YAML file.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, aerr.Wrap(aerr.KindInternal, "LoadConfig", fmt.Sprintf("reading %s", path), err)
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, aerr.Wrap(aerr.KindInternal, "LoadConfig", "parsing YAML", err)
	}
	return &cfg, nil
}

// Apply merges CLI overrides into the config.
func (c *AppConfig) Apply(o Overrides) {
	if o.Host != "" {
		c.Connection.Host = o.Host
	}
	if o.Port != 0 {
		c.Connection.Port = o.Port
	}
	if o.HTTPS != nil {
		c.Connection.HTTPS = *o.HTTPS
	}
	if o.Client != "" {
		c.Connection.Client = o.Client
	}
	if o.User != "" {
		c.Connection.User = o.User
	}
	if o.Password != "" {
		c.Connection.Password = o.Password
	}
	if o.PasswordEnv != "" {
		c.Connection.PasswordEnv = o.PasswordEnv
	}
	if o.Verbose != nil {
		c.Verbose = *o.Verbose
	}
	if o.Quiet != nil {
		c.Quiet = *o.Quiet
	}
	if o.Timeout != 0 {
		c.TimeoutSeconds = o.Timeout
	}
	if o.URL != "" {
		c.Repos = []RepoConfig{{
			Name:     "cli-repo",
			URL:      o.URL,
			Package:  o.Package,
			Branch:   o.Branch,
			Activate: o.Activate,
		}}
	}
}

// ResolvePassword fills Connection.Password from the named environment
// variable when the password itself is empty.
func (c *AppConfig) ResolvePassword() error {
	if c.Connection.Password != "" || c.Connection.PasswordEnv == "" {
		return nil
	}
	value, ok := os.LookupEnv(c.Connection.PasswordEnv)
	if !ok || value == "" {
		return aerr.New(aerr.KindInternal, "LoadConfig",
			fmt.Sprintf("environment variable %s is not set", c.Connection.PasswordEnv))
	}
	c.Connection.Password = value
	return nil
}

// Validate checks the config for completeness and sorts the repos by
// dependency order.
func (c *AppConfig) Validate() error {
	fail := func(format string, args ...any) error {
		return aerr.New(aerr.KindInternal, "ValidateConfig", fmt.Sprintf(format, args...))
	}
	if c.Connection.Host == "" {
		return fail("connection.host is required")
	}
	if c.Connection.Port == 0 {
		return fail("connection.port is required")
	}
	if c.Connection.Client == "" {
		return fail("connection.client is required")
	}
	if c.Connection.User == "" {
		return fail("connection.user is required")
	}
	if c.Connection.Password == "" && c.Connection.PasswordEnv == "" {
		return fail("connection.password or connection.password_env is required")
	}
	if len(c.Repos) == 0 {
		return fail("at least one repo is required")
	}
	if c.TimeoutSeconds < 0 {
		return fail("timeout must be positive")
	}
	if c.Verbose && c.Quiet {
		return fail("verbose and quiet are mutually exclusive")
	}
	for i, repo := range c.Repos {
		if repo.Name == "" {
			return fail("repos[%d].name is required", i)
		}
		if repo.URL == "" {
			return fail("repo %s: url is required", repo.Name)
		}
		if repo.Package == "" {
			return fail("repo %s: package is required", repo.Name)
		}
	}
	sorted, err := SortReposByDependency(c.Repos)
	if err != nil {
		return err
	}
	c.Repos = sorted
	return nil
}
