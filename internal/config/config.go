// Package config describes the build of one application: its sources and
// their dependencies, the target SDK, bundle identity and the vendor
// projects linked into it.
//
// A Config is created once per build from the project directory. Attributes
// may be changed freely until the build starts; the SDK version and signing
// credentials are probed from the host on first use and then kept for the
// life of the Config. A Config is not safe for concurrent use.
package config

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pkg/errors"

	"github.com/goplus/motion/internal/env"
	"github.com/goplus/motion/internal/platform"
	"github.com/goplus/motion/internal/tool"
)

// sourcePattern selects the application sources, relative to the project dir.
const sourcePattern = "app/**/*.rb"

// Config is the build configuration of one application.
type Config struct {
	projectDir string
	motionDir  string
	prober     platform.Prober
	runner     tool.Runner

	files        []string
	dependencies map[string][]string

	platformsDir          string
	frameworks            []string
	delegateClass         string
	name                  string
	buildDir              string
	resourcesDir          string
	deviceFamily          []DeviceFamily
	bundleSignature       string
	interfaceOrientations []Orientation
	version               string
	icons                 []string

	sdkVersion          lazy[string]
	codesignCertificate lazy[string]
	provisioningProfile lazy[string]

	vendorProjects []*Vendor
}

// Option configures a Config at construction.
type Option func(*Config)

// WithProber sets the source of installed SDKs and credentials.
func WithProber(p platform.Prober) Option {
	return func(c *Config) {
		c.prober = p
	}
}

// WithRunner sets the runner used for external tools.
func WithRunner(r tool.Runner) Option {
	return func(c *Config) {
		c.runner = r
	}
}

// WithMotionDir sets the installation directory holding bin/ and data/.
func WithMotionDir(dir string) Option {
	return func(c *Config) {
		c.motionDir = dir
	}
}

// New creates the default configuration of the project in projectDir and
// discovers its sources.
func New(projectDir string, opts ...Option) (*Config, error) {
	abs, err := filepath.Abs(projectDir)
	if err != nil {
		return nil, errors.Wrapf(err, "resolve project dir %s", projectDir)
	}
	c := &Config{
		projectDir:            abs,
		dependencies:          make(map[string][]string),
		platformsDir:          env.PlatformsDir(),
		frameworks:            []string{"UIKit", "Foundation", "CoreGraphics"},
		delegateClass:         "AppDelegate",
		name:                  "My App",
		buildDir:              filepath.Join(abs, "build"),
		resourcesDir:          filepath.Join(abs, "resources"),
		deviceFamily:          []DeviceFamily{IPhone},
		bundleSignature:       "????",
		interfaceOrientations: []Orientation{Portrait, LandscapeLeft, LandscapeRight},
		version:               "1.0",
		icons:                 []string{},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.runner == nil {
		c.runner = tool.New()
	}
	if c.prober == nil {
		c.prober = platform.NewHost(platform.WithRunner(c.runner))
	}
	if c.motionDir == "" {
		if c.motionDir, err = env.MotionDir(); err != nil {
			return nil, err
		}
	}

	files, err := doublestar.Glob(os.DirFS(abs), sourcePattern)
	if err != nil {
		return nil, errors.Wrapf(err, "discover sources in %s", abs)
	}
	sort.Strings(files)
	c.SetFiles(files...)
	return c, nil
}

// ProjectDir returns the absolute project directory.
func (c *Config) ProjectDir() string {
	return c.projectDir
}

// ProjectFile returns the path of the project's settings file.
func (c *Config) ProjectFile() string {
	return filepath.Join(c.projectDir, ProjectFileName)
}

func (c *Config) Files() []string {
	return clone(c.files)
}

// SetFiles replaces the source list. Paths are normalized with RelPath.
func (c *Config) SetFiles(files ...string) {
	c.files = make([]string, len(files))
	for i, f := range files {
		c.files[i] = c.RelPath(f)
	}
}

func (c *Config) PlatformsDir() string         { return c.platformsDir }
func (c *Config) SetPlatformsDir(dir string)   { c.platformsDir = dir }
func (c *Config) Frameworks() []string         { return clone(c.frameworks) }
func (c *Config) SetFrameworks(fs ...string)   { c.frameworks = clone(fs) }
func (c *Config) DelegateClass() string        { return c.delegateClass }
func (c *Config) SetDelegateClass(name string) { c.delegateClass = name }
func (c *Config) Name() string                 { return c.name }
func (c *Config) SetName(name string)          { c.name = name }
func (c *Config) BuildDir() string             { return c.buildDir }
func (c *Config) SetBuildDir(dir string)       { c.buildDir = dir }
func (c *Config) ResourcesDir() string         { return c.resourcesDir }
func (c *Config) SetResourcesDir(dir string)   { c.resourcesDir = dir }
func (c *Config) BundleSignature() string      { return c.bundleSignature }
func (c *Config) SetBundleSignature(s string)  { c.bundleSignature = s }
func (c *Config) Version() string              { return c.version }
func (c *Config) SetVersion(v string)          { c.version = v }
func (c *Config) Icons() []string              { return clone(c.icons) }
func (c *Config) SetIcons(icons ...string)     { c.icons = clone(icons) }

func (c *Config) DeviceFamily() []DeviceFamily {
	return clone(c.deviceFamily)
}

// SetDeviceFamily sets one or more supported device families.
func (c *Config) SetDeviceFamily(families ...DeviceFamily) {
	c.deviceFamily = clone(families)
}

func (c *Config) InterfaceOrientations() []Orientation {
	return clone(c.interfaceOrientations)
}

func (c *Config) SetInterfaceOrientations(orientations ...Orientation) {
	c.interfaceOrientations = clone(orientations)
}

// SetSDKVersion pins the SDK version. An empty version restores probing.
func (c *Config) SetSDKVersion(v string) {
	c.sdkVersion.set(v)
}

// SetCodesignCertificate pins the signing identity. An empty name
// restores probing.
func (c *Config) SetCodesignCertificate(name string) {
	c.codesignCertificate.set(name)
}

// SetProvisioningProfile pins the provisioning profile. An empty path
// restores probing.
func (c *Config) SetProvisioningProfile(path string) {
	c.provisioningProfile.set(path)
}

// lazy holds a value that is either set explicitly or resolved on first
// use, then kept.
type lazy[T comparable] struct {
	val      T
	resolved bool
}

func (l *lazy[T]) get(resolve func() (T, error)) (T, error) {
	if l.resolved {
		return l.val, nil
	}
	v, err := resolve()
	if err != nil {
		var zero T
		return zero, err
	}
	l.val, l.resolved = v, true
	return v, nil
}

// set pins v; the zero value clears the slot so the next get resolves.
func (l *lazy[T]) set(v T) {
	var zero T
	l.val, l.resolved = v, v != zero
}

func clone[S ~[]E, E any](s S) S {
	if s == nil {
		return nil
	}
	return append(S{}, s...)
}
