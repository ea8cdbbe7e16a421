// Package proc runs external tools under supervision.
//
// A supervised task couples one process with exactly one concurrent activity
// pumping bytes into the process's standard input. The supervisor owns the
// ordering between the two: the pump's result is always observed before the
// exit status, and every failure path kills the process, runs the caller's
// cleanup, and re-raises the original error.
package proc

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/ethanis/pipecache/internal/core/domain"
	"github.com/ethanis/pipecache/internal/core/ports"
	"go.trai.ch/zerr"
)

// PumpFunc feeds a tool's standard input. The pump owns closing stdin once it
// has written everything.
type PumpFunc func(ctx context.Context, stdin io.WriteCloser) error

// Task describes one external tool invocation.
type Task struct {
	// Tool is the executable name or path, resolved against PATH. It is
	// executed directly, without a shell.
	Tool string

	// Args are passed verbatim.
	Args []string

	// Dir is the working directory. Empty means the current directory.
	Dir string

	// Pump is the single concurrent activity attached to the tool's stdin.
	Pump PumpFunc
}

// stderrTailLimit bounds how much trailing stderr is kept for error reports.
const stderrTailLimit = 4 << 10

// Run executes the task and blocks until both the pump and the process have
// finished. onFailure runs on every failure path after the process is gone;
// pass nil when there is nothing to clean up.
//
// A start failure reports domain.ErrToolNotFound. A non-zero exit reports
// domain.ErrToolFailed with the exit code and the stderr tail attached. A
// pump failure kills the tool and surfaces the pump's error unchanged.
func Run(ctx context.Context, task Task, onFailure func(), log ports.Logger) error {
	if task.Tool == "" {
		return zerr.New("task tool is required")
	}
	if task.Pump == nil {
		return zerr.New("task pump is required")
	}

	cmd := exec.CommandContext(ctx, task.Tool, task.Args...)
	cmd.Dir = task.Dir

	// Tool output goes to the recording step, never to this process's
	// stdout, which is reserved for the variable contract.
	if vertex, ok := ports.VertexFromContext(ctx); ok {
		cmd.Stdout = vertex.Stdout()
	}

	stderr := &tailBuffer{limit: stderrTailLimit}
	cmd.Stderr = stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		cleanup(onFailure)
		return zerr.Wrap(err, "open stdin pipe")
	}

	if err := cmd.Start(); err != nil {
		cleanup(onFailure)
		missing := zerr.With(domain.ErrToolNotFound, "tool", task.Tool)
		return zerr.With(missing, "cause", err.Error())
	}

	pumpResult := make(chan error, 1)
	go func() {
		pumpResult <- task.Pump(ctx, stdin)
	}()

	// The pump's outcome decides how the exit status is interpreted, so it
	// is always collected first.
	pumpErr := <-pumpResult

	if pumpErr != nil {
		kill(cmd, task.Tool, log)
		_ = stdin.Close()
		_ = cmd.Wait()
		cleanup(onFailure)
		return pumpErr
	}

	// EOF for the tool even when the pump left stdin open.
	_ = stdin.Close()

	if err := cmd.Wait(); err != nil {
		cleanup(onFailure)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			failed := zerr.With(domain.ErrToolFailed, "tool", task.Tool)
			failed = zerr.With(failed, "exit_code", strconv.Itoa(exitErr.ExitCode()))
			if tail := stderr.String(); tail != "" {
				failed = zerr.With(failed, "stderr", tail)
			}
			return failed
		}
		return zerr.With(zerr.Wrap(err, "wait for tool"), "tool", task.Tool)
	}

	return nil
}

// kill terminates a process that may still be running. Kill errors are
// non-fatal.
func kill(cmd *exec.Cmd, tool string, log ports.Logger) {
	if cmd.Process == nil {
		return
	}
	if err := cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		log.Warn("could not kill " + tool + ": " + err.Error())
	}
}

func cleanup(onFailure func()) {
	if onFailure != nil {
		onFailure()
	}
}

// tailBuffer keeps the last limit bytes written to it.
type tailBuffer struct {
	limit int
	buf   []byte
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	b.buf = append(b.buf, p...)
	if len(b.buf) > b.limit {
		b.buf = b.buf[len(b.buf)-b.limit:]
	}
	return len(p), nil
}

func (b *tailBuffer) String() string {
	return strings.TrimSpace(string(b.buf))
}
