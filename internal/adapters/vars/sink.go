// Package vars publishes pipeline variables to the calling agent.
//
// Variables are emitted as NAME=value lines on stdout, which is why all
// logging in this program goes to stderr. When PIPECACHE_OUTPUT names a
// file, the same lines are appended there for agents that collect outputs
// from a file instead of the process stream.
package vars

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/ethanis/pipecache/internal/core/ports"
	"go.trai.ch/zerr"
)

// OutputEnvVar names the file that receives a copy of every variable line.
const OutputEnvVar = "PIPECACHE_OUTPUT"

// Sink implements ports.VariableSink.
type Sink struct {
	out        io.Writer
	outputFile string

	mu   sync.Mutex
	seen map[string]string
}

var _ ports.VariableSink = (*Sink)(nil)

// New creates a Sink writing to stdout and the PIPECACHE_OUTPUT file.
func New() *Sink {
	return NewWithWriter(os.Stdout, os.Getenv(OutputEnvVar))
}

// NewWithWriter creates a Sink with an explicit stream and output file.
func NewWithWriter(out io.Writer, outputFile string) *Sink {
	return &Sink{out: out, outputFile: outputFile, seen: map[string]string{}}
}

// Set publishes one variable. Setting the same name to the same value again
// is a no-op.
func (s *Sink) Set(name, value string) error {
	if name == "" {
		return zerr.New("variable name must not be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if previous, ok := s.seen[name]; ok && previous == value {
		return nil
	}

	line := fmt.Sprintf("%s=%s\n", name, value)
	if _, err := io.WriteString(s.out, line); err != nil {
		return zerr.With(zerr.Wrap(err, "write variable"), "variable", name)
	}
	if s.outputFile != "" {
		if err := appendLine(s.outputFile, line); err != nil {
			return zerr.With(err, "variable", name)
		}
	}

	s.seen[name] = value
	return nil
}

func appendLine(path, line string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644) //nolint:gosec // path is provided by user
	if err != nil {
		return zerr.Wrap(err, "open output file")
	}
	defer f.Close()

	if _, err := io.WriteString(f, line); err != nil {
		return zerr.Wrap(err, "append to output file")
	}
	return nil
}
