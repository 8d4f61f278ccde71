package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// DefaultPath is the config file path used when none is given on the
// command line. Only this path silently falls back to defaults when the
// file does not exist.
const DefaultPath = "config.toml"

// Config is the site configuration, read from a TOML file at the project
// root. All directory fields are relative to the config file's directory.
type Config struct {
	ContentDir  string
	AssetDir    string
	TemplateDir string
	OutputDir   string

	// Content holds per-glob defaults applied to the frontmatter of
	// matching content files.
	Content Rules

	// Extra is arbitrary user-defined data, exposed to page templates as
	// `config.extra`.
	Extra map[string]any

	// path is the config file path this Config was loaded from.
	path string
}

// rawConfig is the wire shape of the config file.
type rawConfig struct {
	ContentDir  string                `toml:"content_dir"`
	AssetDir    string                `toml:"asset_dir"`
	TemplateDir string                `toml:"template_dir"`
	OutputDir   string                `toml:"output_dir"`
	Content     map[string]FileConfig `toml:"content"`
	Extra       map[string]any        `toml:"extra"`
}

// Load reads the configuration from the given path.
//
// A missing file at DefaultPath falls back to built-in defaults with a
// warning; a missing file at any other path is an error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && path == DefaultPath {
			slog.Warn("Config file not found, falling back to defaults", "path", path)
			return defaultConfig(path), nil
		}
		return nil, fmt.Errorf("reading config file %q: %w", path, err)
	}

	var raw rawConfig
	md, err := toml.Decode(string(data), &raw)
	if err != nil {
		return nil, fmt.Errorf("parsing %q: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("parsing %q: unknown field %q", path, undecoded[0].String())
	}

	rules, err := rulesFromRaw(raw.Content, md)
	if err != nil {
		return nil, fmt.Errorf("parsing %q: %w", path, err)
	}

	cfg := &Config{
		ContentDir:  orDefault(raw.ContentDir, "content"),
		AssetDir:    orDefault(raw.AssetDir, "theme/assets"),
		TemplateDir: orDefault(raw.TemplateDir, "theme/templates"),
		OutputDir:   orDefault(raw.OutputDir, "build"),
		Content:     rules,
		Extra:       raw.Extra,
		path:        path,
	}
	return cfg, nil
}

func defaultConfig(path string) *Config {
	return &Config{
		ContentDir:  "content",
		AssetDir:    "theme/assets",
		TemplateDir: "theme/templates",
		OutputDir:   "build",
		Content:     defaultRules(),
		path:        path,
	}
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

// Path returns the config file path this Config was loaded from.
func (c *Config) Path() string {
	return c.path
}

// ContentRoot returns the absolute-or-relative on-disk path of the content
// directory, resolved against the project root.
func (c *Config) ContentRoot() string {
	return filepath.Join(c.projectRoot(), filepath.FromSlash(c.ContentDir))
}

// AssetRoot returns the on-disk path of the asset directory.
func (c *Config) AssetRoot() string {
	return filepath.Join(c.projectRoot(), filepath.FromSlash(c.AssetDir))
}

// TemplateRoot returns the on-disk path of the template directory.
func (c *Config) TemplateRoot() string {
	return filepath.Join(c.projectRoot(), filepath.FromSlash(c.TemplateDir))
}

// OutputRoot returns the on-disk path of the output directory.
func (c *Config) OutputRoot() string {
	return filepath.Join(c.projectRoot(), filepath.FromSlash(c.OutputDir))
}

// projectRoot is the parent directory of the config file. Content, asset,
// template and output paths are treated as relative to it.
func (c *Config) projectRoot() string {
	return filepath.Dir(c.path)
}
