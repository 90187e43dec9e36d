package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"howett.net/plist"

	"github.com/goplus/motion/internal/platform"
)

// fakeProber serves canned host state and counts every probe.
type fakeProber struct {
	versions []string
	ids      []string
	profiles []string
	osBuild  string
	calls    map[string]int
}

func (f *fakeProber) count(name string) {
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[name]++
}

func (f *fakeProber) SDKVersions(platformsDir string) ([]string, error) {
	f.count("SDKVersions")
	return f.versions, nil
}

func (f *fakeProber) CodesignIdentities(ctx context.Context) ([]string, error) {
	f.count("CodesignIdentities")
	return f.ids, nil
}

func (f *fakeProber) ProvisioningProfiles() ([]string, error) {
	f.count("ProvisioningProfiles")
	return f.profiles, nil
}

func (f *fakeProber) OSBuild(ctx context.Context) (string, error) {
	f.count("OSBuild")
	return f.osBuild, nil
}

// fakeRunner pretends to be xcodebuild and leaves one library in the
// CONFIGURATION_BUILD_DIR it is given.
type fakeRunner struct {
	calls int
	err   error
}

func (r *fakeRunner) Run(ctx context.Context, dir string, env map[string]string, name string, args ...string) error {
	r.calls++
	if r.err != nil {
		return r.err
	}
	for _, arg := range args {
		if out, ok := strings.CutPrefix(arg, "CONFIGURATION_BUILD_DIR="); ok {
			if err := os.MkdirAll(out, 0o755); err != nil {
				return err
			}
			return os.WriteFile(filepath.Join(out, "libFoo.a"), []byte("!<arch>\n"), 0o644)
		}
	}
	return nil
}

func (r *fakeRunner) Output(ctx context.Context, dir string, name string, args ...string) (string, error) {
	return "", nil
}

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, nil, 0o644))
}

func newTestConfig(t *testing.T, prober *fakeProber, opts ...Option) *Config {
	t.Helper()
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "app", "b.rb"))
	touch(t, filepath.Join(dir, "app", "a.rb"))
	touch(t, filepath.Join(dir, "app", "lib", "c.rb"))
	touch(t, filepath.Join(dir, "app", "README"))

	opts = append([]Option{
		WithProber(prober),
		WithRunner(&fakeRunner{}),
		WithMotionDir(filepath.Join(dir, "motion")),
	}, opts...)
	c, err := New(dir, opts...)
	require.NoError(t, err)
	return c
}

func TestDefaults(t *testing.T) {
	c := newTestConfig(t, &fakeProber{})

	assert.Equal(t, []string{"./app/a.rb", "./app/b.rb", "./app/lib/c.rb"}, c.Files())
	assert.Equal(t, []string{"UIKit", "Foundation", "CoreGraphics"}, c.Frameworks())
	assert.Equal(t, "AppDelegate", c.DelegateClass())
	assert.Equal(t, "My App", c.Name())
	assert.Equal(t, filepath.Join(c.ProjectDir(), "build"), c.BuildDir())
	assert.Equal(t, filepath.Join(c.ProjectDir(), "resources"), c.ResourcesDir())
	assert.Equal(t, []DeviceFamily{IPhone}, c.DeviceFamily())
	assert.Equal(t, []Orientation{Portrait, LandscapeLeft, LandscapeRight}, c.InterfaceOrientations())
	assert.Equal(t, "????", c.BundleSignature())
	assert.Equal(t, "1.0", c.Version())
	assert.Empty(t, c.Icons())
	assert.Equal(t, filepath.Join(c.ProjectDir(), ProjectFileName), c.ProjectFile())
}

func TestRelPath(t *testing.T) {
	c := newTestConfig(t, &fakeProber{})
	parent := filepath.Dir(c.ProjectDir())

	tests := []struct {
		in, want string
	}{
		{"foo/bar", "./foo/bar"},
		{"./foo/bar", "./foo/bar"},
		{"../foo", "../foo"},
		{".", "."},
		{"..", ".."},
		{"..foo", "./..foo"},
		{filepath.Join(c.ProjectDir(), "app", "x.rb"), "./app/x.rb"},
		{filepath.Join(parent, "shared", "y.rb"), "../shared/y.rb"},
	}
	for _, tt := range tests {
		got := c.RelPath(tt.in)
		assert.Equal(t, tt.want, got, "RelPath(%q)", tt.in)
		assert.Equal(t, got, c.RelPath(got), "RelPath not idempotent on %q", got)
	}
}

func TestOrderedBuildFiles(t *testing.T) {
	c := newTestConfig(t, &fakeProber{})
	c.SetFiles("a.rb", "b.rb")
	require.NoError(t, c.FilesDependencies(map[string]any{"b.rb": "c.rb"}))

	want := []string{"./a.rb", "./c.rb", "./b.rb"}
	assert.Equal(t, want, c.OrderedBuildFiles())
	assert.Equal(t, want, c.OrderedBuildFiles())
}

func TestOrderedBuildFilesNoDuplicates(t *testing.T) {
	c := newTestConfig(t, &fakeProber{})
	c.SetFiles("a.rb", "b.rb", "c.rb")
	require.NoError(t, c.FilesDependencies(map[string]any{
		"./a.rb": []any{"c.rb", "b.rb"},
		"c.rb":   "b.rb",
	}))
	assert.Equal(t, []string{"./c.rb", "./b.rb", "./a.rb"}, c.OrderedBuildFiles())
}

func TestOrderedBuildFilesCycle(t *testing.T) {
	c := newTestConfig(t, &fakeProber{})
	c.SetFiles("a.rb", "b.rb")
	c.SetFileDependencies("a.rb", "b.rb")
	c.SetFileDependencies("b.rb", "a.rb")

	got := c.OrderedBuildFiles()
	assert.ElementsMatch(t, []string{"./a.rb", "./b.rb"}, got)
	assert.Len(t, got, 2)
}

func TestOrderedBuildFilesOneLevel(t *testing.T) {
	c := newTestConfig(t, &fakeProber{})
	c.SetFiles("a.rb")
	c.SetFileDependencies("a.rb", "b.rb")
	c.SetFileDependencies("b.rb", "c.rb")
	assert.Equal(t, []string{"./b.rb", "./a.rb"}, c.OrderedBuildFiles())
}

func TestFilesDependencies(t *testing.T) {
	c := newTestConfig(t, &fakeProber{})
	require.NoError(t, c.FilesDependencies(map[string]any{"a.rb": []string{"x.rb", "./y.rb"}}))
	assert.Equal(t, map[string][]string{"./a.rb": {"./x.rb", "./y.rb"}}, c.Dependencies())

	// Last write wins, no merging.
	require.NoError(t, c.FilesDependencies(map[string]any{"./a.rb": "z.rb"}))
	assert.Equal(t, map[string][]string{"./a.rb": {"./z.rb"}}, c.Dependencies())

	deps := c.Dependencies()
	deps["./a.rb"][0] = "changed"
	assert.Equal(t, []string{"./z.rb"}, c.Dependencies()["./a.rb"])

	err := c.FilesDependencies(map[string]any{"a.rb": map[string]any{"x": 1}})
	assert.Error(t, err)
}

func TestSDKVersion(t *testing.T) {
	ctx := context.Background()
	p := &fakeProber{versions: []string{"4.2", "4.10", "4.3"}}
	c := newTestConfig(t, p)

	v, err := c.SDKVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, "4.10", v)

	v, err = c.SDKVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, "4.10", v)
	assert.Equal(t, 1, p.calls["SDKVersions"])

	c.SetSDKVersion("4.0")
	v, err = c.SDKVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, "4.0", v)
	assert.Equal(t, 1, p.calls["SDKVersions"])
}

func TestSDKVersionNone(t *testing.T) {
	ctx := context.Background()
	p := &fakeProber{}
	c := newTestConfig(t, p)

	_, err := c.SDKVersion(ctx)
	assert.True(t, errors.Is(err, ErrNoSDK), "err = %v", err)

	// Failures are not kept.
	p.versions = []string{"4.3"}
	v, err := c.SDKVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, "4.3", v)
	assert.Equal(t, 2, p.calls["SDKVersions"])
}

func TestCodesignCertificate(t *testing.T) {
	ctx := context.Background()
	p := &fakeProber{ids: []string{"iPhone Developer: A (1)", "iPhone Developer: B (2)"}}
	c := newTestConfig(t, p)

	for i := 0; i < 3; i++ {
		id, err := c.CodesignCertificate(ctx)
		require.NoError(t, err)
		assert.Equal(t, "iPhone Developer: A (1)", id)
	}
	assert.Equal(t, 1, p.calls["CodesignIdentities"])

	_, err := newTestConfig(t, &fakeProber{}).CodesignCertificate(ctx)
	assert.True(t, errors.Is(err, ErrNoCodesignIdentity), "err = %v", err)
}

func TestProvisioningProfile(t *testing.T) {
	ctx := context.Background()
	p := &fakeProber{profiles: []string{"/p/one.mobileprovision", "/p/two.mobileprovision"}}
	c := newTestConfig(t, p)

	path, err := c.ProvisioningProfile(ctx)
	require.NoError(t, err)
	assert.Equal(t, "/p/one.mobileprovision", path)
	_, err = c.ProvisioningProfile(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, p.calls["ProvisioningProfiles"])

	_, err = newTestConfig(t, &fakeProber{}).ProvisioningProfile(ctx)
	assert.True(t, errors.Is(err, ErrNoProvisioningProfile), "err = %v", err)
}

func TestValidate(t *testing.T) {
	ctx := context.Background()
	c := newTestConfig(t, &fakeProber{versions: []string{"4.3"}})
	platforms := t.TempDir()
	c.SetPlatformsDir(platforms)

	sim := platform.SDKPath(platforms, platform.Simulator, "4.3")
	err := c.Validate(ctx)
	require.True(t, errors.Is(err, ErrSDKNotInstalled), "err = %v", err)
	assert.Contains(t, err.Error(), sim)

	require.NoError(t, os.MkdirAll(sim, 0o755))
	dev := platform.SDKPath(platforms, platform.Device, "4.3")
	err = c.Validate(ctx)
	require.True(t, errors.Is(err, ErrSDKNotInstalled), "err = %v", err)
	assert.Contains(t, err.Error(), dev)

	require.NoError(t, os.MkdirAll(dev, 0o755))
	err = c.Validate(ctx)
	assert.True(t, errors.Is(err, ErrSDKUnsupported), "err = %v", err)

	require.NoError(t, os.MkdirAll(filepath.Join(c.MotionDir(), "data", "4.3"), 0o755))
	assert.NoError(t, c.Validate(ctx))
}

func TestDerivedPaths(t *testing.T) {
	ctx := context.Background()
	c := newTestConfig(t, &fakeProber{versions: []string{"4.3"}})
	c.SetPlatformsDir("/Developer/Platforms")
	c.SetBuildDir("/out")

	assert.Equal(t, "/Developer/Platforms/iPhoneOS.platform", c.PlatformDir(platform.Device))
	sdk, err := c.SDK(ctx, platform.Simulator)
	require.NoError(t, err)
	assert.Equal(t, "/Developer/Platforms/iPhoneSimulator.platform/Developer/SDKs/iPhoneSimulator4.3.sdk", sdk)
	assert.Equal(t, "/out/iPhoneOS/My App.app", c.AppBundle(platform.Device))
	assert.Equal(t, "/out/My App.ipa", c.Archive())
	assert.Equal(t, filepath.Join(c.MotionDir(), "bin"), c.BinDir())
	data, err := c.DataDir(ctx)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(c.MotionDir(), "data", "4.3"), data)

	c.SetName("Other")
	assert.Equal(t, "/out/Other.ipa", c.Archive())
}

func TestDeviceFamilyInts(t *testing.T) {
	c := newTestConfig(t, &fakeProber{})
	got, err := c.DeviceFamilyInts()
	require.NoError(t, err)
	assert.Equal(t, []int{1}, got)

	c.SetDeviceFamily(IPad, IPhone)
	got, err = c.DeviceFamilyInts()
	require.NoError(t, err)
	assert.Equal(t, []int{2, 1}, got)

	c.SetDeviceFamily("watch")
	_, err = c.DeviceFamilyInts()
	assert.True(t, errors.Is(err, ErrUnknownDeviceFamily), "err = %v", err)
}

func TestInterfaceOrientationConsts(t *testing.T) {
	c := newTestConfig(t, &fakeProber{})
	c.SetInterfaceOrientations(PortraitUpsideDown, Portrait)
	got, err := c.InterfaceOrientationConsts()
	require.NoError(t, err)
	assert.Equal(t, []string{"UIInterfaceOrientationPortraitUpsideDown", "UIInterfaceOrientationPortrait"}, got)

	c.SetInterfaceOrientations("sideways")
	_, err = c.InterfaceOrientationConsts()
	assert.True(t, errors.Is(err, ErrUnknownOrientation), "err = %v", err)
}

func TestGetSet(t *testing.T) {
	ctx := context.Background()
	c := newTestConfig(t, &fakeProber{})

	require.NoError(t, c.Set("device_family", "ipad"))
	assert.Equal(t, []DeviceFamily{IPad}, c.DeviceFamily())
	require.NoError(t, c.Set("interface_orientations", []any{"portrait"}))
	assert.Equal(t, []Orientation{Portrait}, c.InterfaceOrientations())
	require.NoError(t, c.Set("icons", "Icon.png"))
	assert.Equal(t, []string{"Icon.png"}, c.Icons())
	require.NoError(t, c.Set("version", 2))
	assert.Equal(t, "2", c.Version())
	require.NoError(t, c.Set("files", []string{"x.rb"}))
	assert.Equal(t, []string{"./x.rb"}, c.Files())
	require.NoError(t, c.Set("sdk_version", "5.0"))

	v, err := c.Get(ctx, "sdk_version")
	require.NoError(t, err)
	assert.Equal(t, "5.0", v)
	v, err = c.Get(ctx, "name")
	require.NoError(t, err)
	assert.Equal(t, "My App", v)

	_, err = c.Get(ctx, "nope")
	assert.True(t, errors.Is(err, ErrUnknownVariable), "err = %v", err)
	err = c.Set("nope", 1)
	assert.True(t, errors.Is(err, ErrUnknownVariable), "err = %v", err)

	assert.Len(t, c.Variables(), 15)
	assert.Equal(t, "files", c.Variables()[0])
}

func TestSnapshot(t *testing.T) {
	c := newTestConfig(t, &fakeProber{versions: []string{"4.3"}})
	snap := c.Snapshot(context.Background())

	assert.Len(t, snap, len(c.Variables()))
	assert.Equal(t, "4.3", snap["sdk_version"])
	assert.Equal(t, "My App", snap["name"])
	assert.Equal(t, ErrorMarker, snap["codesign_certificate"])
	assert.Equal(t, ErrorMarker, snap["provisioning_profile"])
}

func TestPlistData(t *testing.T) {
	p := &fakeProber{versions: []string{"4.3"}, osBuild: "10K549"}
	c := newTestConfig(t, p)
	c.SetName("Hello")
	c.SetIcons("Icon.png", "Icon@2x.png")
	c.SetDeviceFamily(IPhone, IPad)

	data, err := c.PlistData(context.Background())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "<?xml"))
	assert.Contains(t, string(data), "\t<key>LSRequiresIPhoneOS</key>")

	var info infoPlist
	_, err = plist.Unmarshal(data, &info)
	require.NoError(t, err)
	assert.Equal(t, "10K549", info.BuildMachineOSBuild)
	assert.Equal(t, "com.omgwtf.Hello", info.CFBundleIdentifier)
	assert.Equal(t, "Hello", info.CFBundleExecutable)
	assert.Equal(t, "iphoneos4.3", info.DTSDKName)
	assert.Equal(t, "4.3", info.MinimumOSVersion)
	assert.Equal(t, "1.0", info.CFBundleVersion)
	assert.True(t, info.LSRequiresIPhoneOS)
	assert.Equal(t, []string{"Icon.png", "Icon@2x.png"}, info.CFBundleIconFiles)
	assert.Equal(t, []int{1, 2}, info.UIDeviceFamily)
	assert.Equal(t, []string{
		"UIInterfaceOrientationPortrait",
		"UIInterfaceOrientationLandscapeLeft",
		"UIInterfaceOrientationLandscapeRight",
	}, info.UISupportedInterfaceOrientations)

	// Rendered fresh on every call.
	c.SetName("Again")
	data, err = c.PlistData(context.Background())
	require.NoError(t, err)
	assert.Contains(t, string(data), "com.omgwtf.Again")
	assert.Equal(t, 2, p.calls["OSBuild"])

	c.SetDeviceFamily("watch")
	_, err = c.PlistData(context.Background())
	assert.True(t, errors.Is(err, ErrUnknownDeviceFamily), "err = %v", err)
}

func TestPkgInfoData(t *testing.T) {
	c := newTestConfig(t, &fakeProber{})
	assert.Equal(t, "APPL????", string(c.PkgInfoData()))
	c.SetBundleSignature("MOTN")
	assert.Equal(t, "APPLMOTN", string(c.PkgInfoData()))
}
