package config

// Pipefile represents the structure of the pipecache.yaml configuration file.
type Pipefile struct {
	Version          string   `yaml:"version"`
	Endpoint         string   `yaml:"endpoint"`
	WorkingDirectory string   `yaml:"workingDirectory"`
	Cache            CacheDTO `yaml:"cache"`
}

// CacheDTO represents the cache definition in the configuration.
type CacheDTO struct {
	Key         []string   `yaml:"key"`
	RestoreKeys [][]string `yaml:"restoreKeys"`
	Paths       []string   `yaml:"paths"`
	Format      string     `yaml:"format"`
	HitVariable string     `yaml:"hitVariable"`
}
