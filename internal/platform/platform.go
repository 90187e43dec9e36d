// Package platform locates installed platform SDKs and signing credentials
// on the build host. It only reads host state.
package platform

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pkg/errors"
	"github.com/qiniu/x/log"

	"github.com/goplus/motion/internal/env"
	"github.com/goplus/motion/internal/tool"
)

// Platform names.
const (
	Simulator = "iPhoneSimulator"
	Device    = "iPhoneOS"
)

// Platforms lists every platform a configuration is validated against.
var Platforms = []string{Simulator, Device}

const (
	securityPath = "/usr/bin/security"
	swVersPath   = "/usr/bin/sw_vers"
)

var (
	sdkPattern      = regexp.MustCompile(`^` + Device + `(.*)\.sdk$`)
	identityPattern = regexp.MustCompile(`"iPhone Developer: [^"]+"`)
)

// Dir returns the install directory of the named platform.
func Dir(platformsDir, name string) string {
	return filepath.Join(platformsDir, name+".platform")
}

// SDKRoot returns the directory holding every SDK of the named platform.
func SDKRoot(platformsDir, name string) string {
	return filepath.Join(Dir(platformsDir, name), "Developer", "SDKs")
}

// SDKPath returns the path of one SDK version of the named platform.
func SDKPath(platformsDir, name, version string) string {
	return filepath.Join(SDKRoot(platformsDir, name), name+version+".sdk")
}

// SDKName returns the SDK identifier passed to the native tools,
// e.g. "iphoneos4.3".
func SDKName(name, version string) string {
	return strings.ToLower(name) + version
}

// Prober reports the SDKs and credentials installed on a host.
type Prober interface {
	// SDKVersions returns the version token of every device SDK found
	// under platformsDir.
	SDKVersions(platformsDir string) ([]string, error)

	// CodesignIdentities returns the development signing identities in
	// the credential store, first-seen order, without duplicates.
	CodesignIdentities(ctx context.Context) ([]string, error)

	// ProvisioningProfiles returns the provisioning profile files.
	ProvisioningProfiles() ([]string, error)

	// OSBuild returns the build string of the host operating system.
	OSBuild(ctx context.Context) (string, error)
}

// Host implements Prober against the local machine.
type Host struct {
	runner      tool.Runner
	profilesDir string
}

// HostOption configures Host.
type HostOption func(*Host)

// WithRunner sets the runner used to query the credential store.
func WithRunner(r tool.Runner) HostOption {
	return func(h *Host) {
		h.runner = r
	}
}

// WithProfilesDir sets the directory searched for provisioning profiles.
func WithProfilesDir(dir string) HostOption {
	return func(h *Host) {
		h.profilesDir = dir
	}
}

// NewHost creates a Prober for the local machine.
func NewHost(opts ...HostOption) *Host {
	h := &Host{}
	for _, opt := range opts {
		opt(h)
	}
	if h.runner == nil {
		h.runner = tool.New()
	}
	if h.profilesDir == "" {
		// An unknown home directory leaves the profile search empty,
		// which surfaces later as "no provisioning profile".
		h.profilesDir, _ = env.ProfilesDir()
	}
	return h
}

var _ Prober = (*Host)(nil)

func (h *Host) SDKVersions(platformsDir string) ([]string, error) {
	paths, err := glob(SDKRoot(platformsDir, Device), Device+"*.sdk")
	if err != nil {
		return nil, err
	}
	var versions []string
	for _, path := range paths {
		if m := sdkPattern.FindStringSubmatch(filepath.Base(path)); m != nil {
			versions = append(versions, m[1])
		}
	}
	log.Debugf("found %d %s SDKs in %s", len(versions), Device, platformsDir)
	return versions, nil
}

func (h *Host) CodesignIdentities(ctx context.Context) ([]string, error) {
	out, err := h.runner.Output(ctx, "", securityPath, "-q", "find-certificate", "-a")
	if err != nil {
		return nil, errors.Wrap(err, "query keychain")
	}
	return parseIdentities(out), nil
}

func (h *Host) ProvisioningProfiles() ([]string, error) {
	if h.profilesDir == "" {
		return nil, nil
	}
	return glob(h.profilesDir, "*.mobileprovision")
}

func (h *Host) OSBuild(ctx context.Context) (string, error) {
	out, err := h.runner.Output(ctx, "", swVersPath, "-buildVersion")
	if err != nil {
		return "", errors.Wrap(err, "query OS build")
	}
	return strings.TrimSpace(out), nil
}

// glob matches pattern against the entries of dir. dir is taken literally.
func glob(dir, pattern string) ([]string, error) {
	names, err := doublestar.Glob(os.DirFS(dir), pattern)
	if err != nil {
		return nil, errors.Wrapf(err, "glob %s in %s", pattern, dir)
	}
	var paths []string
	for _, name := range names {
		paths = append(paths, filepath.Join(dir, name))
	}
	sort.Strings(paths)
	return paths, nil
}

// parseIdentities extracts the quoted development identities from the
// output of `security find-certificate -a`.
func parseIdentities(out string) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, quoted := range identityPattern.FindAllString(out, -1) {
		id := strings.Trim(quoted, `"`)
		if seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids
}
