package config

import "github.com/pkg/errors"

var (
	ErrNoSDK                 = errors.New("no SDK found")
	ErrSDKNotInstalled       = errors.New("SDK not installed")
	ErrSDKUnsupported        = errors.New("SDK version not supported")
	ErrNoCodesignIdentity    = errors.New("no code signing identity found")
	ErrNoProvisioningProfile = errors.New("no provisioning profile found")
	ErrUnknownDeviceFamily   = errors.New("unknown device family")
	ErrUnknownOrientation    = errors.New("unknown interface orientation")
	ErrUnknownVariable       = errors.New("unknown variable")
)
