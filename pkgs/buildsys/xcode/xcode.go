// Package xcode builds vendor projects described by an Xcode project file.
package xcode

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/goplus/motion/internal/platform"
	"github.com/goplus/motion/internal/tool"
	"github.com/goplus/motion/pkgs/buildsys"
)

// Type is the vendor project type tag served by this package.
const Type = "xcode"

const (
	xcodebuildPath       = "/usr/bin/xcodebuild"
	projectExt           = ".xcodeproj"
	defaultConfiguration = "Release"
)

func init() {
	buildsys.Register(Type, func(dir string, opts buildsys.Options, runner tool.Runner) (buildsys.Driver, error) {
		return New(dir, opts, runner)
	})
}

// Xcode drives xcodebuild for one vendor source directory.
//
// Options:
//
//	xcodeproj      project file, relative to the source dir (default: the only *.xcodeproj)
//	target         target to build (default: the project name)
//	configuration  build configuration (default: Release)
type Xcode struct {
	buildsys.Layout
	runner        tool.Runner
	project       string
	target        string
	configuration string
}

var _ buildsys.Driver = (*Xcode)(nil)

// New creates the Xcode driver for the sources in dir.
func New(dir string, opts buildsys.Options, runner tool.Runner) (*Xcode, error) {
	layout, err := buildsys.NewLayout(dir)
	if err != nil {
		return nil, err
	}
	x := &Xcode{Layout: layout, runner: runner}
	if x.project, err = opts.String("xcodeproj", ""); err != nil {
		return nil, err
	}
	if x.target, err = opts.String("target", ""); err != nil {
		return nil, err
	}
	if x.configuration, err = opts.String("configuration", defaultConfiguration); err != nil {
		return nil, err
	}
	return x, nil
}

// Build builds the project for t. On a cache miss the project file is
// resolved before the scratch dir is reset, so a missing or ambiguous
// project leaves earlier output untouched.
func (x *Xcode) Build(ctx context.Context, t buildsys.Target) (buildsys.Artifacts, error) {
	var project string
	if !x.Cached(t.Platform) {
		var err error
		if project, err = x.projectFile(); err != nil {
			return buildsys.Artifacts{}, err
		}
	}
	return x.Layout.Build(ctx, t, func(ctx context.Context) ([]string, error) {
		if project == "" {
			// the platform dir vanished after the check above
			var err error
			if project, err = x.projectFile(); err != nil {
				return nil, err
			}
		}
		return x.compile(ctx, t, project)
	})
}

func (x *Xcode) compile(ctx context.Context, t buildsys.Target, project string) ([]string, error) {
	target := x.target
	if target == "" {
		target = strings.TrimSuffix(filepath.Base(project), projectExt)
	}

	args := []string{
		"-project", project,
		"-target", target,
		"-configuration", x.configuration,
		"-sdk", platform.SDKName(t.Platform, t.SDKVersion),
	}
	for _, arch := range t.Archs {
		args = append(args, "-arch", arch)
	}
	// Xcode reuses intermediate files across SDKs when given the same
	// build dir; Layout.Build resets it before every compile.
	args = append(args, "CONFIGURATION_BUILD_DIR="+x.ScratchDir(), "build")

	if err := x.runner.Run(ctx, x.Dir, nil, xcodebuildPath, args...); err != nil {
		return nil, errors.Wrapf(err, "build vendor project %s", x.Dir)
	}
	libs, err := buildsys.Glob(x.ScratchDir(), "*.a")
	if err != nil {
		return nil, errors.Wrap(err, "list built libraries")
	}
	return libs, nil
}

// projectFile returns the configured project file or the only one found in
// the source directory.
func (x *Xcode) projectFile() (string, error) {
	if x.project != "" {
		return x.project, nil
	}
	projs, err := buildsys.Glob(x.Dir, "*"+projectExt)
	if err != nil {
		return "", errors.Wrap(err, "find Xcode project")
	}
	if len(projs) != 1 {
		return "", errors.Wrapf(buildsys.ErrProjectNotFound,
			"can't locate Xcode project file for vendor project %s (found %d)", x.Dir, len(projs))
	}
	return filepath.Base(projs[0]), nil
}

func (x *Xcode) Clean(ctx context.Context) error {
	return x.Layout.Clean()
}
