package cmake

import (
	"context"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cast"

	"github.com/goplus/motion/internal/platform"
	"github.com/goplus/motion/internal/tool"
	"github.com/goplus/motion/pkgs/buildsys"
)

// Type is the vendor project type tag served by this package.
const Type = "cmake"

func init() {
	buildsys.Register(Type, func(dir string, opts buildsys.Options, runner tool.Runner) (buildsys.Driver, error) {
		return New(dir, opts, runner)
	})
}

type defineValue struct {
	value    string
	typeName string
}

// CMake wraps the CMake configure and build steps for one vendor project.
//
// Options:
//
//	generator      CMake generator (e.g. "Xcode", "Ninja")
//	build_type     CMAKE_BUILD_TYPE (default: Release)
//	toolchain      CMAKE_TOOLCHAIN_FILE, relative to the source dir
//	defines        extra -D<key>=<value> definitions; booleans become ON/OFF
//	env            extra environment for cmake
type CMake struct {
	buildsys.Layout
	runner    tool.Runner
	generator string
	buildType string
	toolchain string
	Defines   map[string]defineValue
	env       map[string]string
}

var _ buildsys.Driver = (*CMake)(nil)

// New creates a CMake driver for the sources in dir.
func New(dir string, opts buildsys.Options, runner tool.Runner) (*CMake, error) {
	layout, err := buildsys.NewLayout(dir)
	if err != nil {
		return nil, err
	}
	c := &CMake{
		Layout:  layout,
		runner:  runner,
		Defines: map[string]defineValue{},
		env:     map[string]string{},
	}
	generator, err := opts.String("generator", "")
	if err != nil {
		return nil, err
	}
	buildType, err := opts.String("build_type", "Release")
	if err != nil {
		return nil, err
	}
	toolchain, err := opts.String("toolchain", "")
	if err != nil {
		return nil, err
	}
	c.Generator(generator).BuildType(buildType).Toolchain(toolchain)

	defines, err := opts.Map("defines")
	if err != nil {
		return nil, err
	}
	for k, v := range defines {
		if b, ok := v.(bool); ok {
			c.DefineBool(k, b)
			continue
		}
		s, err := cast.ToStringE(v)
		if err != nil {
			return nil, errors.Wrapf(err, "option defines.%s", k)
		}
		c.Define(k, s)
	}
	env, err := opts.StringMap("env")
	if err != nil {
		return nil, err
	}
	for k, v := range env {
		c.Env(k, v)
	}
	return c, nil
}

// Generator sets the CMake generator passed with -G.
func (c *CMake) Generator(name string) *CMake {
	c.generator = name
	return c
}

func (c *CMake) BuildType(name string) *CMake {
	c.buildType = name
	return c
}

func (c *CMake) Toolchain(path string) *CMake {
	c.toolchain = path
	return c
}

func (c *CMake) Define(key, value string) *CMake {
	if c.Defines == nil {
		c.Defines = map[string]defineValue{}
	}
	c.Defines[key] = defineValue{value: value, typeName: "STRING"}
	return c
}

// DefineBool adds a BOOL cache entry set to ON or OFF.
func (c *CMake) DefineBool(key string, value bool) *CMake {
	if c.Defines == nil {
		c.Defines = map[string]defineValue{}
	}
	if value {
		c.Defines[key] = defineValue{value: "ON", typeName: "BOOL"}
		return c
	}
	c.Defines[key] = defineValue{value: "OFF", typeName: "BOOL"}
	return c
}

func (c *CMake) Env(key, value string) {
	if c.env == nil {
		c.env = map[string]string{}
	}
	c.env[key] = value
}

func (c *CMake) Build(ctx context.Context, t buildsys.Target) (buildsys.Artifacts, error) {
	return c.Layout.Build(ctx, t, func(ctx context.Context) ([]string, error) {
		if err := c.configure(ctx, t); err != nil {
			return nil, err
		}
		if err := c.build(ctx); err != nil {
			return nil, err
		}
		return c.libraries()
	})
}

func (c *CMake) Clean(ctx context.Context) error {
	return c.Layout.Clean()
}

// configure runs "cmake -S <source> -B <scratch>" cross-compiling for the
// target SDK and architectures.
func (c *CMake) configure(ctx context.Context, t buildsys.Target) error {
	args := []string{"-S", c.Dir, "-B", c.ScratchDir()}
	if c.generator != "" {
		args = append(args, "-G", c.generator)
	}
	defines := c.targetDefines(t)
	args = append(args, definesArgs(defines)...)
	if err := c.runner.Run(ctx, c.Dir, c.env, "cmake", args...); err != nil {
		return errors.Wrapf(err, "configure vendor project %s", c.Dir)
	}
	return nil
}

func (c *CMake) build(ctx context.Context) error {
	args := []string{"--build", c.ScratchDir()}
	if c.buildType != "" {
		args = append(args, "--config", c.buildType)
	}
	if err := c.runner.Run(ctx, c.Dir, c.env, "cmake", args...); err != nil {
		return errors.Wrapf(err, "build vendor project %s", c.Dir)
	}
	return nil
}

// targetDefines merges the per-build cache entries over the user defines.
func (c *CMake) targetDefines(t buildsys.Target) map[string]defineValue {
	defines := make(map[string]defineValue, len(c.Defines)+6)
	for k, v := range c.Defines {
		defines[k] = v
	}
	str := func(v string) defineValue { return defineValue{value: v, typeName: "STRING"} }

	defines["CMAKE_SYSTEM_NAME"] = str("iOS")
	defines["BUILD_SHARED_LIBS"] = defineValue{value: "OFF", typeName: "BOOL"}
	if t.SDKPath != "" {
		defines["CMAKE_OSX_SYSROOT"] = str(t.SDKPath)
	} else {
		defines["CMAKE_OSX_SYSROOT"] = str(platform.SDKName(t.Platform, t.SDKVersion))
	}
	if len(t.Archs) > 0 {
		defines["CMAKE_OSX_ARCHITECTURES"] = str(strings.Join(t.Archs, ";"))
	}
	if c.buildType != "" {
		defines["CMAKE_BUILD_TYPE"] = str(c.buildType)
	}
	if c.toolchain != "" {
		toolchain := c.toolchain
		if !filepath.IsAbs(toolchain) {
			toolchain = filepath.Join(c.Dir, toolchain)
		}
		defines["CMAKE_TOOLCHAIN_FILE"] = str(toolchain)
	}
	return defines
}

// libraries returns every static library under the scratch dir.
func (c *CMake) libraries() ([]string, error) {
	var libs []string
	err := filepath.WalkDir(c.ScratchDir(), func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, ".a") {
			libs = append(libs, path)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "list built libraries")
	}
	return libs, nil
}

func definesArgs(defines map[string]defineValue) []string {
	if len(defines) == 0 {
		return nil
	}
	keys := make([]string, 0, len(defines))
	for k := range defines {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	args := make([]string, 0, len(keys))
	for _, k := range keys {
		def := defines[k]
		if def.typeName != "" {
			args = append(args, "-D"+k+":"+def.typeName+"="+def.value)
			continue
		}
		args = append(args, "-D"+k+"="+def.value)
	}
	return args
}
