// Package creds stores connection credentials in a JSON file next to the
// project, so repeated CLI invocations do not need connection flags.
package creds

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/erpl/erpl-adt/pkg/adt/aerr"
)

// DefaultPath is the credentials file in the working directory.
const DefaultPath = ".adt.creds"

// Credentials is the stored connection profile.
type Credentials struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	Client   string `json:"client"`
	UseHTTPS bool   `json:"use_https"`
}

// Validate checks that the profile is usable for a connection.
func (c *Credentials) Validate() error {
	fail := func(format string, args ...any) error {
		return aerr.New(aerr.KindInternal, "Credentials", fmt.Sprintf(format, args...))
	}
	if c.Host == "" {
		return fail("host is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fail("port %d is out of range", c.Port)
	}
	if c.User == "" {
		return fail("user is required")
	}
	if c.Client == "" {
		return fail("client is required")
	}
	return nil
}

// Save writes the credentials file with owner-only permissions.
func Save(path string, c *Credentials) error {
	if err := c.Validate(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return aerr.Wrap(aerr.KindInternal, "Credentials", "encoding credentials", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o600); err != nil {
		return aerr.Wrap(aerr.KindInternal, "Credentials", fmt.Sprintf("writing %s", path), err)
	}
	return nil
}

// Load reads a credentials file. A missing file is a not-found error so
// callers can fall back to flags.
func Load(path string) (*Credentials, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, aerr.New(aerr.KindNotFound, "Credentials",
				fmt.Sprintf("no credentials file at %s", path))
		}
		return nil, aerr.Wrap(aerr.KindInternal, "Credentials", fmt.Sprintf("reading %s", path), err)
	}
	var c Credentials
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, aerr.Wrap(aerr.KindInternal, "Credentials", fmt.Sprintf("parsing %s", path), err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Exists reports whether a credentials file is present.
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// Remove deletes the credentials file. Removing an absent file is fine.
func Remove(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return aerr.Wrap(aerr.KindInternal, "Credentials", fmt.Sprintf("removing %s", path), err)
	}
	return nil
}
