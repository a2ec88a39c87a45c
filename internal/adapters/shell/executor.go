// Package shell provides the executor that runs jar-packaged tools on a JVM.
package shell

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"go.trai.ch/anvil/internal/core/domain"
	"go.trai.ch/anvil/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.ToolExecutor = (*Executor)(nil)

// Executor implements ports.ToolExecutor using os/exec.
type Executor struct {
	logger ports.Logger
	java   string
}

// NewExecutor creates a new Executor launching tools with the given java executable.
func NewExecutor(logger ports.Logger, java string) *Executor {
	if java == "" {
		java = "java"
	}
	return &Executor{
		logger: logger,
		java:   java,
	}
}

// Command returns the argument vector used for inv, excluding the java executable.
func Command(inv domain.ToolInvocation) []string {
	args := make([]string, 0, len(inv.JvmArgs)+len(inv.Args)+3)
	args = append(args, inv.JvmArgs...)
	if len(inv.Classpath) > 0 {
		cp := append([]string{inv.Jar}, inv.Classpath...)
		args = append(args, "-cp", strings.Join(cp, string(os.PathListSeparator)), inv.MainClass)
	} else {
		args = append(args, "-jar", inv.Jar)
	}
	return append(args, inv.Args...)
}

// Execute runs the tool. Output lines are streamed to the logger, to the vertex carried
// by ctx, and to inv.LogFile when set.
func (e *Executor) Execute(ctx context.Context, inv domain.ToolInvocation) error {
	if len(inv.Classpath) > 0 && inv.MainClass == "" {
		return zerr.With(zerr.Wrap(domain.ErrToolFailed, "main class required when a classpath is given"), "tool", inv.Name)
	}

	cmd := exec.CommandContext(ctx, e.java, Command(inv)...) //nolint:gosec // tool invocation is configuration driven
	if inv.Dir != "" {
		cmd.Dir = inv.Dir
	}

	stdout := &lineWriter{emit: e.logger.Debug}
	stderr := &lineWriter{emit: e.logger.Warn}
	outs := []io.Writer{stdout}
	errs := []io.Writer{stderr}

	if vertex, ok := ports.VertexFromContext(ctx); ok {
		outs = append(outs, vertex.Stdout())
		errs = append(errs, vertex.Stderr())
	}

	if inv.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(inv.LogFile), domain.DirPerm); err != nil {
			return zerr.With(zerr.Wrap(err, "failed to create log directory"), "path", inv.LogFile)
		}
		logFile, err := os.Create(inv.LogFile) //nolint:gosec // log path is derived from the work directory
		if err != nil {
			return zerr.With(domain.Classify(domain.ErrFileOpenFailed, err), "path", inv.LogFile)
		}
		defer logFile.Close() //nolint:errcheck // Best effort close in defer
		_, _ = io.WriteString(logFile, "Java: "+e.java+" "+strings.Join(Command(inv), " ")+"\n")
		outs = append(outs, logFile)
		errs = append(errs, logFile)
	}

	cmd.Stdout = io.MultiWriter(outs...)
	cmd.Stderr = io.MultiWriter(errs...)

	err := cmd.Run()
	stdout.Flush()
	stderr.Flush()
	if err == nil {
		return nil
	}

	exitCode := -1
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		exitCode = exitErr.ExitCode()
	}
	err = zerr.With(domain.Classify(domain.ErrToolFailed, err), "tool", inv.Name)
	return zerr.With(err, "exit_code", exitCode)
}

// lineWriter buffers partial writes and emits complete lines.
type lineWriter struct {
	emit func(string)
	buf  []byte
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.buf = append(w.buf, p...)
	for {
		idx := bytes.IndexByte(w.buf, '\n')
		if idx < 0 {
			break
		}
		w.emit(strings.TrimSuffix(string(w.buf[:idx]), "\r"))
		w.buf = w.buf[idx+1:]
	}
	return len(p), nil
}

// Flush emits any trailing partial line.
func (w *lineWriter) Flush() {
	if len(w.buf) > 0 {
		w.emit(string(w.buf))
		w.buf = nil
	}
}
