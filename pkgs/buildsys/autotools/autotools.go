package autotools

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/goplus/motion/internal/platform"
	"github.com/goplus/motion/internal/tool"
	"github.com/goplus/motion/pkgs/buildsys"
)

// Type is the vendor project type tag served by this package.
const Type = "autotools"

func init() {
	buildsys.Register(Type, func(dir string, opts buildsys.Options, runner tool.Runner) (buildsys.Driver, error) {
		return New(dir, opts, runner)
	})
}

// AutoTools wraps the configure/make/make install steps for one vendor
// project. Sources are built out of tree in the scratch dir and installed
// into scratch/install.
//
// Options:
//
//	host            --host triple (default: arm-apple-darwin or i386-apple-darwin)
//	configure_args  extra arguments for ./configure
//	env             extra environment for every step
type AutoTools struct {
	buildsys.Layout
	runner        tool.Runner
	host          string
	configureArgs []string
	env           map[string]string
}

var _ buildsys.Driver = (*AutoTools)(nil)

// New creates an AutoTools driver for the sources in dir.
func New(dir string, opts buildsys.Options, runner tool.Runner) (*AutoTools, error) {
	layout, err := buildsys.NewLayout(dir)
	if err != nil {
		return nil, err
	}
	a := &AutoTools{
		Layout: layout,
		runner: runner,
		env:    map[string]string{},
	}
	if a.host, err = opts.String("host", ""); err != nil {
		return nil, err
	}
	if a.configureArgs, err = opts.Strings("configure_args"); err != nil {
		return nil, err
	}
	env, err := opts.StringMap("env")
	if err != nil {
		return nil, err
	}
	for k, v := range env {
		a.Env(k, v)
	}
	return a, nil
}

func (a *AutoTools) Env(key, value string) {
	if a.env == nil {
		a.env = map[string]string{}
	}
	a.env[key] = value
}

// InstallDir returns the prefix passed to ./configure.
func (a *AutoTools) InstallDir() string {
	return filepath.Join(a.ScratchDir(), "install")
}

func (a *AutoTools) Build(ctx context.Context, t buildsys.Target) (buildsys.Artifacts, error) {
	return a.Layout.Build(ctx, t, func(ctx context.Context) ([]string, error) {
		env := a.targetEnv(t)
		if err := a.configure(ctx, t, env); err != nil {
			return nil, err
		}
		for _, step := range [][]string{{"make"}, {"make", "install"}} {
			if err := a.runner.Run(ctx, a.ScratchDir(), env, step[0], step[1:]...); err != nil {
				return nil, errors.Wrapf(err, "%s vendor project %s", strings.Join(step, " "), a.Dir)
			}
		}
		libs, err := buildsys.Glob(filepath.Join(a.InstallDir(), "lib"), "*.a")
		if err != nil {
			return nil, errors.Wrap(err, "list installed libraries")
		}
		return libs, nil
	})
}

func (a *AutoTools) Clean(ctx context.Context) error {
	return a.Layout.Clean()
}

// configure runs the source tree's configure script from the scratch dir.
func (a *AutoTools) configure(ctx context.Context, t buildsys.Target, env map[string]string) error {
	if err := mkdir(a.ScratchDir()); err != nil {
		return err
	}
	args := []string{
		"--prefix=" + a.InstallDir(),
		"--host=" + a.hostFor(t),
		"--enable-static",
		"--disable-shared",
	}
	args = append(args, a.configureArgs...)
	exe := filepath.Join(a.Dir, "configure")
	if err := a.runner.Run(ctx, a.ScratchDir(), env, exe, args...); err != nil {
		return errors.Wrapf(err, "configure vendor project %s", a.Dir)
	}
	return nil
}

func (a *AutoTools) hostFor(t buildsys.Target) string {
	if a.host != "" {
		return a.host
	}
	if t.Platform == platform.Simulator {
		return "i386-apple-darwin"
	}
	return "arm-apple-darwin"
}

// targetEnv returns the compiler flags selecting the SDK and architectures,
// layered under the user environment.
func (a *AutoTools) targetEnv(t buildsys.Target) map[string]string {
	var flags []string
	for _, arch := range t.Archs {
		flags = append(flags, "-arch", arch)
	}
	if t.SDKPath != "" {
		flags = append(flags, "-isysroot", t.SDKPath)
	}
	env := map[string]string{
		"CFLAGS":  strings.Join(flags, " "),
		"LDFLAGS": strings.Join(flags, " "),
	}
	for k, v := range a.env {
		if k == "CFLAGS" || k == "LDFLAGS" {
			v = strings.TrimSpace(env[k] + " " + v)
		}
		env[k] = v
	}
	return env
}

func mkdir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "create %s", dir)
	}
	return nil
}
