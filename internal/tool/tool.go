// Copyright 2024 The llar Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package tool runs the external programs a build depends on
// (xcodebuild, cmake, make, security, sw_vers).
package tool

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/qiniu/x/log"
	"golang.org/x/sys/execabs"
)

// Runner defines the interface for invoking external tools.
type Runner interface {
	// Run executes name with args in dir, streaming its output.
	// env entries override the inherited process environment.
	Run(ctx context.Context, dir string, env map[string]string, name string, args ...string) error

	// Output executes name with args in dir and returns its standard output.
	Output(ctx context.Context, dir string, name string, args ...string) (string, error)
}

// ExitError reports a tool that could not be started or exited non-zero.
type ExitError struct {
	Cmd    string
	Stderr string
	Err    error
}

func (e *ExitError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("%s: %s", e.Cmd, e.Stderr)
	}
	return fmt.Sprintf("%s: %v", e.Cmd, e.Err)
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// execRunner implements Runner on top of execabs.
type execRunner struct {
	stdout io.Writer
	stderr io.Writer
}

// Option configures the default Runner.
type Option func(*execRunner)

// WithOutput redirects the streamed output of Run.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(r *execRunner) {
		r.stdout = stdout
		r.stderr = stderr
	}
}

// New creates a Runner that executes programs on the host.
func New(opts ...Option) Runner {
	r := &execRunner{stdout: os.Stdout, stderr: os.Stderr}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *execRunner) Run(ctx context.Context, dir string, env map[string]string, name string, args ...string) error {
	cmd := execabs.CommandContext(ctx, name, args...)
	if dir != "" {
		cmd.Dir = dir
	}
	if len(env) > 0 {
		cmd.Env = MergeEnv(os.Environ(), env)
	}
	var stderr bytes.Buffer
	cmd.Stdout = r.stdout
	cmd.Stderr = io.MultiWriter(r.stderr, &stderr)

	log.Infof("run: %s", CommandLine(name, args))
	if err := cmd.Run(); err != nil {
		return &ExitError{Cmd: CommandLine(name, args), Stderr: lastLine(stderr.String()), Err: err}
	}
	return nil
}

func (r *execRunner) Output(ctx context.Context, dir string, name string, args ...string) (string, error) {
	cmd := execabs.CommandContext(ctx, name, args...)
	if dir != "" {
		cmd.Dir = dir
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	log.Debugf("output: %s", CommandLine(name, args))
	if err := cmd.Run(); err != nil {
		return "", &ExitError{Cmd: CommandLine(name, args), Stderr: strings.TrimSpace(stderr.String()), Err: err}
	}
	return stdout.String(), nil
}

// CommandLine renders name and args the way a shell user would type them.
func CommandLine(name string, args []string) string {
	parts := make([]string, 0, len(args)+1)
	for _, s := range append([]string{name}, args...) {
		if s == "" || strings.ContainsAny(s, " \t\"'") {
			s = fmt.Sprintf("%q", s)
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, " ")
}

// MergeEnv overlays override onto base, returning a sorted KEY=VALUE list.
func MergeEnv(base []string, override map[string]string) []string {
	envMap := make(map[string]string, len(base))
	for _, kv := range base {
		if k, v, ok := strings.Cut(kv, "="); ok {
			envMap[k] = v
		}
	}
	for k, v := range override {
		envMap[k] = v
	}
	keys := make([]string, 0, len(envMap))
	for k := range envMap {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+envMap[k])
	}
	return out
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}
