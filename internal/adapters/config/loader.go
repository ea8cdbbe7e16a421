// Package config provides the configuration loader for pipecache.
package config

import (
	"fmt"
	"os"

	"github.com/ethanis/pipecache/internal/core/domain"
	"github.com/ethanis/pipecache/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// DefaultFile is the configuration file name looked up when no -c flag is
// given.
const DefaultFile = "pipecache.yaml"

// EndpointEnvVar overrides the configured endpoint when set.
const EndpointEnvVar = "PIPECACHE_ENDPOINT"

// supportedVersion is the only config schema version this build reads.
const supportedVersion = "1"

// FileLoader implements ports.ConfigLoader using a YAML file.
type FileLoader struct {
	log ports.Logger
}

var _ ports.ConfigLoader = (*FileLoader)(nil)

// NewLoader creates a FileLoader.
func NewLoader(log ports.Logger) *FileLoader {
	return &FileLoader{log: log}
}

// Load reads and validates the configuration file at path.
func (l *FileLoader) Load(path string) (*domain.Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is provided by user
	if err != nil {
		return nil, zerr.Wrap(err, "read config file")
	}

	var file Pipefile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, zerr.Wrap(err, "parse config file")
	}

	return l.build(file)
}

func (l *FileLoader) build(file Pipefile) (*domain.Config, error) {
	if file.Version != "" && file.Version != supportedVersion {
		return nil, zerr.With(domain.ErrConfigInvalid, "version", file.Version)
	}

	endpoint := file.Endpoint
	if override := os.Getenv(EndpointEnvVar); override != "" {
		if endpoint != "" && endpoint != override {
			l.log.Info(fmt.Sprintf("endpoint overridden by %s", EndpointEnvVar))
		}
		endpoint = override
	}

	workdir := file.WorkingDirectory
	if workdir == "" {
		workdir = "."
	}

	if len(file.Cache.Key) == 0 {
		return nil, zerr.With(domain.ErrConfigInvalid, "reason", "cache.key must list at least one part")
	}
	if err := rejectEmptyParts("cache.key", file.Cache.Key); err != nil {
		return nil, err
	}
	for i, restoreKey := range file.Cache.RestoreKeys {
		if len(restoreKey) == 0 {
			return nil, zerr.With(domain.ErrConfigInvalid, "reason", fmt.Sprintf("cache.restoreKeys[%d] is empty", i))
		}
		if err := rejectEmptyParts(fmt.Sprintf("cache.restoreKeys[%d]", i), restoreKey); err != nil {
			return nil, err
		}
	}
	if len(file.Cache.Paths) == 0 {
		return nil, zerr.With(domain.ErrConfigInvalid, "reason", "cache.paths must list at least one path")
	}

	format, err := domain.ParseContentFormat(file.Cache.Format)
	if err != nil {
		return nil, zerr.With(err, "format", file.Cache.Format)
	}

	hitVariable := file.Cache.HitVariable
	if hitVariable == "" {
		hitVariable = domain.DefaultHitVariable
	}

	return &domain.Config{
		Endpoint:         endpoint,
		WorkingDirectory: workdir,
		Cache: domain.CacheSpec{
			KeyParts:    file.Cache.Key,
			RestoreKeys: file.Cache.RestoreKeys,
			Paths:       file.Cache.Paths,
			Format:      format,
			HitVariable: hitVariable,
		},
	}, nil
}

func rejectEmptyParts(field string, parts []string) error {
	for _, part := range parts {
		if part == "" {
			return zerr.With(domain.ErrConfigInvalid, "reason", field+" contains an empty part")
		}
	}
	return nil
}
