package domain

// DefaultHitVariable is the pipeline variable written after every restore
// when the configuration names no other variable.
const DefaultHitVariable = "CACHE_RESTORED"

// Config is the validated run configuration.
type Config struct {
	// Endpoint is the cache service URL, or a file:// URL / bare path for a
	// directory-backed cache.
	Endpoint string

	// WorkingDirectory anchors relative key parts and cache paths.
	WorkingDirectory string

	Cache CacheSpec
}

// CacheSpec describes one cache: how it is fingerprinted and what it stores.
type CacheSpec struct {
	// KeyParts are the primary key parts, in order. Each becomes one
	// fingerprint segment after resolution.
	KeyParts []string

	// RestoreKeys are fallback key parts, most specific first.
	RestoreKeys [][]string

	// Paths are the files or directories the cache covers, as literal paths
	// or globs relative to the working directory.
	Paths []string

	Format ContentFormat

	// HitVariable is the pipeline variable that receives the restore
	// classification.
	HitVariable string
}
