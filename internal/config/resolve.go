package config

import (
	"context"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/qiniu/x/log"

	"github.com/goplus/motion/internal/platform"
	"github.com/goplus/motion/internal/version"
)

// SDKVersion returns the pinned SDK version, or the highest device SDK
// installed under the platforms dir.
func (c *Config) SDKVersion(ctx context.Context) (string, error) {
	return c.sdkVersion.get(func() (string, error) {
		versions, err := c.prober.SDKVersions(c.platformsDir)
		if err != nil {
			return "", err
		}
		if len(versions) == 0 {
			return "", errors.Wrapf(ErrNoSDK, "in %s", platform.SDKRoot(c.platformsDir, platform.Device))
		}
		v := version.Max(versions)
		log.Debugf("using %s SDK %s", platform.Device, v)
		return v, nil
	})
}

// CodesignCertificate returns the pinned signing identity, or the first
// development identity in the credential store.
func (c *Config) CodesignCertificate(ctx context.Context) (string, error) {
	return c.codesignCertificate.get(func() (string, error) {
		ids, err := c.prober.CodesignIdentities(ctx)
		if err != nil {
			return "", err
		}
		switch len(ids) {
		case 0:
			return "", ErrNoCodesignIdentity
		case 1:
		default:
			log.Warnf("found %d iPhone Developer identities, using %q", len(ids), ids[0])
		}
		return ids[0], nil
	})
}

// ProvisioningProfile returns the pinned profile path, or the first
// installed provisioning profile.
func (c *Config) ProvisioningProfile(ctx context.Context) (string, error) {
	return c.provisioningProfile.get(func() (string, error) {
		paths, err := c.prober.ProvisioningProfiles()
		if err != nil {
			return "", err
		}
		switch len(paths) {
		case 0:
			return "", ErrNoProvisioningProfile
		case 1:
		default:
			log.Warnf("found %d provisioning profiles, using %s", len(paths), paths[0])
		}
		return paths[0], nil
	})
}

// Validate checks that the simulator and device SDKs of the selected
// version are installed and that this installation supports that version.
func (c *Config) Validate(ctx context.Context) error {
	for _, p := range platform.Platforms {
		sdk, err := c.SDK(ctx, p)
		if err != nil {
			return err
		}
		if !exists(sdk) {
			return errors.Wrapf(ErrSDKNotInstalled, "can't locate %s SDK at `%s'", p, sdk)
		}
	}
	data, err := c.DataDir(ctx)
	if err != nil {
		return err
	}
	if !exists(data) {
		v, _ := c.SDKVersion(ctx)
		return errors.Wrapf(ErrSDKUnsupported, "iOS SDK %s (no %s)", v, data)
	}
	return nil
}

// PlatformDir returns the directory of the named platform.
func (c *Config) PlatformDir(p string) string {
	return platform.Dir(c.platformsDir, p)
}

// SDK returns the SDK directory of the named platform at the selected version.
func (c *Config) SDK(ctx context.Context, p string) (string, error) {
	v, err := c.SDKVersion(ctx)
	if err != nil {
		return "", err
	}
	return platform.SDKPath(c.platformsDir, p, v), nil
}

// AppBundle returns the path of the application bundle built for p.
func (c *Config) AppBundle(p string) string {
	return filepath.Join(c.buildDir, p, c.name+".app")
}

// Archive returns the path of the distributable archive.
func (c *Config) Archive() string {
	return filepath.Join(c.buildDir, c.name+".ipa")
}

func (c *Config) MotionDir() string {
	return c.motionDir
}

func (c *Config) BinDir() string {
	return filepath.Join(c.motionDir, "bin")
}

// DataDir returns the runtime support directory for the selected SDK.
func (c *Config) DataDir(ctx context.Context) (string, error) {
	v, err := c.SDKVersion(ctx)
	if err != nil {
		return "", err
	}
	return filepath.Join(c.motionDir, "data", v), nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
