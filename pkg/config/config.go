// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// Environment variables consulted when credentials are not in the file.
const (
	EnvPassword = "CMIS_PASSWORD"
	EnvToken    = "CMIS_TOKEN"
)

const (
	DefaultBinding  = "cmis"
	DefaultPageSize = 100
)

// 🔌 Parser is the interface for config parsers
type Parser interface {
	// 📝 Parse parses the config from bytes
	Parse(ctx context.Context, data []byte) (*Config, error)

	// 🔍 CanParse checks if this parser can handle the given file
	CanParse(filename string) bool
}

var (
	// 🗺️ parsers is a list of available parsers
	parsers []Parser
)

// 📝 Register registers a parser
func Register(p Parser) {
	parsers = append(parsers, p)
}

// 🎯 GetParser returns a parser that can handle the given file
func GetParser(filename string) Parser {
	for _, p := range parsers {
		if p.CanParse(filename) {
			return p
		}
	}
	return nil
}

// 🔗 RepositoryConfig describes how to reach the source repository
type RepositoryConfig struct {
	Binding      string  `json:"binding,omitempty" yaml:"binding,omitempty"`             // Session factory name
	URL          string  `json:"url" yaml:"url"`                                         // Browser binding service URL
	RepositoryID string  `json:"repository_id,omitempty" yaml:"repository_id,omitempty"` // Empty selects the first repository
	Username     string  `json:"username,omitempty" yaml:"username,omitempty"`
	Password     string  `json:"password,omitempty" yaml:"password,omitempty"`
	Token        string  `json:"token,omitempty" yaml:"token,omitempty"`           // Bearer token, wins over basic auth
	PageSize     int     `json:"page_size,omitempty" yaml:"page_size,omitempty"`   // Query batch size
	RateLimit    float64 `json:"rate_limit,omitempty" yaml:"rate_limit,omitempty"` // Requests per second, 0 is unlimited
}

// 📤 ExportConfig describes what to export and where
type ExportConfig struct {
	Path          string   `json:"path" yaml:"path"`               // Starting repository folder
	Destination   string   `json:"destination" yaml:"destination"` // Local root directory
	MaxDepth      int      `json:"max_depth,omitempty" yaml:"max_depth,omitempty"`
	FullPaths     bool     `json:"full_paths,omitempty" yaml:"full_paths,omitempty"`
	WellFormedXML bool     `json:"well_formed_xml,omitempty" yaml:"well_formed_xml,omitempty"`
	Ignore        []string `json:"ignore,omitempty" yaml:"ignore,omitempty"` // doublestar globs on repository paths
}

// 📚 Config represents the complete configuration
type Config struct {
	Repository RepositoryConfig `json:"repository" yaml:"repository"`
	Export     ExportConfig     `json:"export" yaml:"export"`

	location string
}

// Location returns the file the config was loaded from, if any
func (cfg *Config) Location() string {
	return cfg.location
}

// 🎯 Load loads the configuration from a file
func Load(ctx context.Context, path string) (*Config, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("path", path).Msg("loading configuration")

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading config file: %w", err)
	}

	p := GetParser(path)
	if p == nil {
		return nil, errors.Errorf("no parser found for file: %s", path)
	}

	cfg, err := p.Parse(ctx, data)
	if err != nil {
		return nil, errors.Errorf("parsing config: %w", err)
	}
	cfg.location = path

	return cfg, nil
}

// 🌱 ApplyEnv fills credentials from the environment when the file leaves them empty
func (cfg *Config) ApplyEnv() {
	if cfg.Repository.Password == "" {
		cfg.Repository.Password = os.Getenv(EnvPassword)
	}
	if cfg.Repository.Token == "" {
		cfg.Repository.Token = os.Getenv(EnvToken)
	}
}

// 🔍 Validate checks if the configuration is valid and fills defaults
func (cfg *Config) Validate() error {
	if cfg.Repository.URL == "" {
		return errors.Errorf("repository.url is required")
	}
	if cfg.Export.Path == "" {
		return errors.Errorf("export.path is required")
	}
	if !strings.HasPrefix(cfg.Export.Path, "/") {
		return errors.Errorf("export.path must be absolute: %q", cfg.Export.Path)
	}
	if cfg.Export.Destination == "" {
		return errors.Errorf("export.destination is required")
	}
	if cfg.Repository.PageSize < 0 {
		return errors.Errorf("repository.page_size must not be negative")
	}
	if cfg.Repository.RateLimit < 0 {
		return errors.Errorf("repository.rate_limit must not be negative")
	}
	for _, pattern := range cfg.Export.Ignore {
		if !doublestar.ValidatePattern(pattern) {
			return errors.Errorf("export.ignore: invalid pattern %q", pattern)
		}
	}

	// Repository paths always use forward slashes
	cfg.Export.Path = path.Clean(cfg.Export.Path)
	cfg.Export.Destination = filepath.Clean(cfg.Export.Destination)

	if cfg.Repository.Binding == "" {
		cfg.Repository.Binding = DefaultBinding
	}
	if cfg.Repository.PageSize == 0 {
		cfg.Repository.PageSize = DefaultPageSize
	}

	return nil
}

// 📝 String returns a string representation of the config
func (cfg *Config) String() string {
	repo := cfg.Repository.RepositoryID
	if repo == "" {
		repo = "default"
	}
	return fmt.Sprintf("%s[%s]:%s -> %s", cfg.Repository.URL, repo, cfg.Export.Path, cfg.Export.Destination)
}
