package config

import (
	"context"

	"github.com/pkg/errors"
	"howett.net/plist"
)

// infoPlist is the application's Info.plist.
type infoPlist struct {
	BuildMachineOSBuild              string   `plist:"BuildMachineOSBuild"`
	CFBundleDevelopmentRegion        string   `plist:"CFBundleDevelopmentRegion"`
	CFBundleDisplayName              string   `plist:"CFBundleDisplayName"`
	CFBundleExecutable               string   `plist:"CFBundleExecutable"`
	CFBundleIdentifier               string   `plist:"CFBundleIdentifier"`
	CFBundleInfoDictionaryVersion    string   `plist:"CFBundleInfoDictionaryVersion"`
	CFBundleName                     string   `plist:"CFBundleName"`
	CFBundlePackageType              string   `plist:"CFBundlePackageType"`
	CFBundleResourceSpecification    string   `plist:"CFBundleResourceSpecification"`
	CFBundleShortVersionString       string   `plist:"CFBundleShortVersionString"`
	CFBundleSignature                string   `plist:"CFBundleSignature"`
	CFBundleSupportedPlatforms       []string `plist:"CFBundleSupportedPlatforms"`
	CFBundleVersion                  string   `plist:"CFBundleVersion"`
	CFBundleIconFiles                []string `plist:"CFBundleIconFiles"`
	DTCompiler                       string   `plist:"DTCompiler"`
	DTPlatformBuild                  string   `plist:"DTPlatformBuild"`
	DTPlatformName                   string   `plist:"DTPlatformName"`
	DTPlatformVersion                string   `plist:"DTPlatformVersion"`
	DTSDKBuild                       string   `plist:"DTSDKBuild"`
	DTSDKName                        string   `plist:"DTSDKName"`
	DTXcode                          string   `plist:"DTXcode"`
	DTXcodeBuild                     string   `plist:"DTXcodeBuild"`
	LSRequiresIPhoneOS               bool     `plist:"LSRequiresIPhoneOS"`
	MinimumOSVersion                 string   `plist:"MinimumOSVersion"`
	UIDeviceFamily                   []int    `plist:"UIDeviceFamily"`
	UISupportedInterfaceOrientations []string `plist:"UISupportedInterfaceOrientations"`
}

const (
	bundleIdentifierPrefix = "com.omgwtf."
	packageType            = "APPL"
	sdkBuild               = "8H7"
)

// PlistData renders the application's Info.plist as an XML property list.
func (c *Config) PlistData(ctx context.Context) ([]byte, error) {
	sdk, err := c.SDKVersion(ctx)
	if err != nil {
		return nil, err
	}
	osBuild, err := c.prober.OSBuild(ctx)
	if err != nil {
		return nil, err
	}
	families, err := c.DeviceFamilyInts()
	if err != nil {
		return nil, err
	}
	orientations, err := c.InterfaceOrientationConsts()
	if err != nil {
		return nil, err
	}
	info := infoPlist{
		BuildMachineOSBuild:              osBuild,
		CFBundleDevelopmentRegion:        "en",
		CFBundleDisplayName:              c.name,
		CFBundleExecutable:               c.name,
		CFBundleIdentifier:               bundleIdentifierPrefix + c.name,
		CFBundleInfoDictionaryVersion:    "6.0",
		CFBundleName:                     c.name,
		CFBundlePackageType:              packageType,
		CFBundleResourceSpecification:    "ResourceRules.plist",
		CFBundleShortVersionString:       c.version,
		CFBundleSignature:                c.bundleSignature,
		CFBundleSupportedPlatforms:       []string{"iPhoneOS"},
		CFBundleVersion:                  c.version,
		CFBundleIconFiles:                orEmpty(c.Icons()),
		DTCompiler:                       "com.apple.compilers.llvmgcc42",
		DTPlatformBuild:                  sdkBuild,
		DTPlatformName:                   "iphoneos",
		DTPlatformVersion:                sdk,
		DTSDKBuild:                       sdkBuild,
		DTSDKName:                        "iphoneos" + sdk,
		DTXcode:                          "0402",
		DTXcodeBuild:                     "4A2002a",
		LSRequiresIPhoneOS:               true,
		MinimumOSVersion:                 sdk,
		UIDeviceFamily:                   families,
		UISupportedInterfaceOrientations: orientations,
	}
	data, err := plist.MarshalIndent(info, plist.XMLFormat, "\t")
	if err != nil {
		return nil, errors.Wrap(err, "render Info.plist")
	}
	return data, nil
}

// PkgInfoData returns the content of the bundle's PkgInfo file.
func (c *Config) PkgInfoData() []byte {
	return []byte(packageType + c.bundleSignature)
}
