package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"lab47.dev/svnadmin/pkg/htpasswd"
	"lab47.dev/svnadmin/pkg/svn"
)

const (
	DefaultConfigPath = "~/.config/svnadm/config.toml"

	DefaultSvnAdmin  = "svnadmin"
	DefaultSvnClient = "svn"
	DefaultHtpasswd  = "htpasswd"
	DefaultTracAdmin = "trac-admin"

	BackendHtpasswd = "htpasswd"
	BackendNative   = "native"
)

type SvnAdmin struct {
	ParentPath          string `toml:"parent_path,omitempty"`
	SvnAdminLocation    string `toml:"svnadmin_location,omitempty"`
	SvnClientLocation   string `toml:"svn_client_location,omitempty"`
	HooksPath           string `toml:"hooks_path,omitempty"`
	CreateBaseStructure bool   `toml:"create_base_structure,omitempty"`
	Chmod               string `toml:"chmod,omitempty"`
	ReposURLPrefix      string `toml:"repos_url_prefix,omitempty"`
	HtpasswdLocation    string `toml:"htpasswd_location,omitempty"`
	PasswdPath          string `toml:"passwd_path,omitempty"`

	// PasswdBackend selects how the password file is written, "htpasswd"
	// or "native".
	PasswdBackend string `toml:"passwd_backend,omitempty"`
	HtpasswdStdin bool   `toml:"htpasswd_stdin,omitempty"`
}

type Trac struct {
	AuthzFile     string `toml:"authz_file,omitempty"`
	Env           string `toml:"env,omitempty"`
	AdminLocation string `toml:"admin_location,omitempty"`
}

type VersionControl struct {
	AllowedRepositoryDirPrefixes []string `toml:"allowed_repository_dir_prefixes,omitempty"`
}

// Config is the effective configuration: file values with defaults,
// environment overrides and ~ expansion applied. The values exactly as
// read are kept in stored, which is all Save ever writes.
type Config struct {
	path   string
	stored *Config

	SvnAdmin       SvnAdmin       `toml:"svnadmin"`
	Trac           Trac           `toml:"trac"`
	VersionControl VersionControl `toml:"versioncontrol"`
}

func Default() *Config {
	return &Config{
		SvnAdmin: SvnAdmin{
			SvnAdminLocation:  DefaultSvnAdmin,
			SvnClientLocation: DefaultSvnClient,
			HtpasswdLocation:  DefaultHtpasswd,
			PasswdBackend:     BackendHtpasswd,
		},
		Trac: Trac{
			AdminLocation: DefaultTracAdmin,
		},
	}
}

// LoadConfig reads the file named by SVNADMIN_CONFIG, or the default
// location. A file that does not exist yet yields the defaults.
func LoadConfig() (*Config, error) {
	if loc := os.Getenv("SVNADMIN_CONFIG"); loc != "" {
		return LoadFile(loc)
	}

	path, err := homedir.Expand(DefaultConfigPath)
	if err != nil {
		return nil, err
	}

	return LoadFile(path)
}

func LoadFile(path string) (*Config, error) {
	cfg := Default()
	cfg.path = path
	cfg.stored = &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return updateFromEnv(cfg)
		}

		return nil, err
	}

	err = toml.Unmarshal(data, cfg)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing %s", path)
	}

	err = toml.Unmarshal(data, cfg.stored)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing %s", path)
	}

	cfg.fillDefaults()

	return updateFromEnv(cfg)
}

func (c *Config) fillDefaults() {
	if c.SvnAdmin.SvnAdminLocation == "" {
		c.SvnAdmin.SvnAdminLocation = DefaultSvnAdmin
	}

	if c.SvnAdmin.SvnClientLocation == "" {
		c.SvnAdmin.SvnClientLocation = DefaultSvnClient
	}

	if c.SvnAdmin.HtpasswdLocation == "" {
		c.SvnAdmin.HtpasswdLocation = DefaultHtpasswd
	}

	if c.SvnAdmin.PasswdBackend == "" {
		c.SvnAdmin.PasswdBackend = BackendHtpasswd
	}

	if c.Trac.AdminLocation == "" {
		c.Trac.AdminLocation = DefaultTracAdmin
	}
}

func updateFromEnv(cfg *Config) (*Config, error) {
	if path := os.Getenv("SVNADMIN_PARENT_PATH"); path != "" {
		cfg.SvnAdmin.ParentPath = path
	}

	if path := os.Getenv("SVNADMIN_PASSWD_PATH"); path != "" {
		cfg.SvnAdmin.PasswdPath = path
	}

	var err error

	for _, p := range []*string{
		&cfg.SvnAdmin.ParentPath,
		&cfg.SvnAdmin.HooksPath,
		&cfg.SvnAdmin.PasswdPath,
		&cfg.Trac.AuthzFile,
		&cfg.Trac.Env,
	} {
		*p, err = homedir.Expand(*p)
		if err != nil {
			return nil, err
		}
	}

	switch cfg.SvnAdmin.PasswdBackend {
	case BackendHtpasswd, BackendNative:
	default:
		return nil, errors.Errorf("unknown passwd_backend %q", cfg.SvnAdmin.PasswdBackend)
	}

	return cfg, nil
}

func (c *Config) Path() string {
	return c.path
}

// Settings are the values an operator may change from the command line.
// Empty fields are left as they are.
type Settings struct {
	ParentPath        string
	SvnClientLocation string
	SvnAdminLocation  string
	HooksPath         string
}

// Update applies s to both the stored and the effective configuration and
// reports whether anything changed. Call Save to persist the change.
func (c *Config) Update(s Settings) (bool, error) {
	if c.stored == nil {
		c.stored = &Config{}
	}

	changed := false

	set := func(stored, effective *string, v string, expand bool) error {
		if v == "" {
			return nil
		}

		*stored = v
		changed = true

		if expand {
			var err error
			v, err = homedir.Expand(v)
			if err != nil {
				return err
			}
		}

		*effective = v

		return nil
	}

	for _, f := range []struct {
		stored, effective *string
		v                 string
		expand            bool
	}{
		{&c.stored.SvnAdmin.ParentPath, &c.SvnAdmin.ParentPath, s.ParentPath, true},
		{&c.stored.SvnAdmin.SvnClientLocation, &c.SvnAdmin.SvnClientLocation, s.SvnClientLocation, false},
		{&c.stored.SvnAdmin.SvnAdminLocation, &c.SvnAdmin.SvnAdminLocation, s.SvnAdminLocation, false},
		{&c.stored.SvnAdmin.HooksPath, &c.SvnAdmin.HooksPath, s.HooksPath, true},
	} {
		if err := set(f.stored, f.effective, f.v, f.expand); err != nil {
			return changed, err
		}
	}

	return changed, nil
}

// Save writes the stored values back to where they were loaded from.
// Defaults, environment overrides and ~ expansion never reach the file.
func (c *Config) Save() error {
	if c.path == "" {
		return errors.New("config has no path to save to")
	}

	stored := c.stored
	if stored == nil {
		stored = &Config{}
	}

	var buf bytes.Buffer

	enc := toml.NewEncoder(&buf)
	enc.SetIndentTables(true)

	err := enc.Encode(stored)
	if err != nil {
		return err
	}

	err = os.MkdirAll(filepath.Dir(c.path), 0755)
	if err != nil {
		return err
	}

	return os.WriteFile(c.path, buf.Bytes(), 0644)
}

// Configured reports whether the settings needed to manage repositories
// are present.
func (c *Config) Configured() bool {
	return c.SvnAdmin.ParentPath != "" &&
		c.SvnAdmin.SvnClientLocation != "" &&
		c.SvnAdmin.SvnAdminLocation != ""
}

func (c *Config) RegistryOptions() svn.Options {
	return svn.Options{
		ParentPath:          c.SvnAdmin.ParentPath,
		SvnAdmin:            c.SvnAdmin.SvnAdminLocation,
		SvnClient:           c.SvnAdmin.SvnClientLocation,
		HooksPath:           c.SvnAdmin.HooksPath,
		CreateBaseStructure: c.SvnAdmin.CreateBaseStructure,
		Chmod:               strings.TrimSpace(c.SvnAdmin.Chmod),
	}
}

// CredentialStore builds the store selected by passwd_backend.
func (c *Config) CredentialStore() htpasswd.Store {
	if c.SvnAdmin.PasswdBackend == BackendNative {
		return &htpasswd.Native{File: c.SvnAdmin.PasswdPath}
	}

	return &htpasswd.Tool{
		Path:  c.SvnAdmin.HtpasswdLocation,
		File:  c.SvnAdmin.PasswdPath,
		Stdin: c.SvnAdmin.HtpasswdStdin,
	}
}
