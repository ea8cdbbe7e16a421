// Package build holds build-time information.
package build

// Version is the pipecache version string. Release builds overwrite it
// with linker flags; a plain source build reports "dev".
var Version = "dev"
