package tar

import (
	"context"
	"io"
	"os"
	"os/exec"
	"runtime"
	"sync"
)

// TarEnvVar overrides the location of the default archiving tool.
const TarEnvVar = "PIPECACHE_TAR"

const (
	defaultTool   = "tar"
	fastExtractor = "7z"
)

// Selector decides which external tool handles each archive operation.
// Packing always uses the default tool. For extraction on Windows the fast
// extractor is preferred when it is actually startable; the probe runs once
// per process and the decision is reused.
//
// The platform fields are set by NewSelector and exist so tests can force
// each branch.
type Selector struct {
	GOOS   string
	Getenv func(string) string
	Probe  func(ctx context.Context, tool string) bool

	once    sync.Once
	useFast bool
}

// NewSelector returns a Selector wired to the real platform.
func NewSelector() *Selector {
	return &Selector{
		GOOS:   runtime.GOOS,
		Getenv: os.Getenv,
		Probe:  probeStart,
	}
}

// PackCommand returns the tool and arguments that pack the named archive
// from a path list fed line-by-line on stdin.
func (s *Selector) PackCommand(archive, workdir string) (string, []string) {
	return s.defaultTool(), []string{"-cf", archive, "-C", workdir, "-T", "-"}
}

// UnpackCommand returns the tool and arguments that extract a tar stream
// from stdin into the process working directory.
func (s *Selector) UnpackCommand(ctx context.Context) (string, []string) {
	s.once.Do(func() {
		s.useFast = s.GOOS == "windows" && s.Probe(ctx, fastExtractor)
	})
	if s.useFast {
		return fastExtractor, []string{"x", "-si", "-ttar", "-aoa"}
	}
	return s.defaultTool(), []string{"-xf", "-", "-C", "."}
}

func (s *Selector) defaultTool() string {
	if custom := s.Getenv(TarEnvVar); custom != "" {
		return custom
	}
	return defaultTool
}

// probeStart reports whether the tool can be started at all. A tool that
// starts and exits non-zero still counts as present; only a failure to
// start means missing.
func probeStart(ctx context.Context, tool string) bool {
	cmd := exec.CommandContext(ctx, tool)
	cmd.Stdout = io.Discard
	cmd.Stderr = io.Discard
	if err := cmd.Start(); err != nil {
		return false
	}
	_ = cmd.Wait()
	return true
}
