package config

import (
	"context"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/goplus/motion/internal/platform"
	"github.com/goplus/motion/pkgs/buildsys"

	_ "github.com/goplus/motion/pkgs/buildsys/autotools"
	_ "github.com/goplus/motion/pkgs/buildsys/cmake"
	_ "github.com/goplus/motion/pkgs/buildsys/xcode"
)

// Vendor is a third-party project built with its own build system and
// linked into the application.
type Vendor struct {
	config *Config
	path   string
	typ    string
	opts   buildsys.Options
	driver buildsys.Driver

	libs          []string
	bridgeSupport []string
}

// VendorProject declares a vendor project of the given build-system type.
// A relative path is resolved against the project dir. Declaring a type
// with no registered driver fails with buildsys.ErrUnsupported.
func (c *Config) VendorProject(path, typ string, opts buildsys.Options) (*Vendor, error) {
	dir := path
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(c.projectDir, dir)
	}
	driver, err := buildsys.New(typ, dir, opts, c.runner)
	if err != nil {
		return nil, errors.Wrapf(err, "vendor project %s", path)
	}
	v := &Vendor{
		config: c,
		path:   dir,
		typ:    typ,
		opts:   opts,
		driver: driver,
	}
	c.vendorProjects = append(c.vendorProjects, v)
	return v, nil
}

// VendorProjects returns the declared vendor projects in declaration order.
func (c *Config) VendorProjects() []*Vendor {
	return clone(c.vendorProjects)
}

func (v *Vendor) Path() string              { return v.path }
func (v *Vendor) Type() string              { return v.typ }
func (v *Vendor) Options() buildsys.Options { return v.opts }

// Libs returns the static libraries produced by the last Build.
func (v *Vendor) Libs() []string {
	return clone(v.libs)
}

// BridgeSupportFiles returns the bridging metadata files found by the last
// Build.
func (v *Vendor) BridgeSupportFiles() []string {
	return clone(v.bridgeSupport)
}

// Build builds the project for the named platform and architectures with
// the owning configuration's SDK. Libs and BridgeSupportFiles are replaced
// on every call and left empty on failure.
func (v *Vendor) Build(ctx context.Context, name string, archs []string) error {
	v.libs, v.bridgeSupport = []string{}, []string{}

	sdk, err := v.config.SDKVersion(ctx)
	if err != nil {
		return err
	}
	t := buildsys.Target{
		Platform:   name,
		Archs:      archs,
		SDKVersion: sdk,
		SDKPath:    platform.SDKPath(v.config.platformsDir, name, sdk),
	}
	art, err := v.driver.Build(ctx, t)
	if err != nil {
		return errors.Wrapf(err, "build vendor project %s for %s", v.path, name)
	}
	v.libs, v.bridgeSupport = orEmpty(art.Libs), orEmpty(art.BridgeSupport)
	return nil
}

// Clean removes the project's scratch and per-platform build output.
func (v *Vendor) Clean(ctx context.Context) error {
	if err := v.driver.Clean(ctx); err != nil {
		return errors.Wrapf(err, "clean vendor project %s", v.path)
	}
	return nil
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
