package config

import "github.com/pkg/errors"

// DeviceFamily selects a class of device the application runs on.
type DeviceFamily string

const (
	IPhone DeviceFamily = "iphone"
	IPad   DeviceFamily = "ipad"
)

var deviceFamilyCodes = map[DeviceFamily]int{
	IPhone: 1,
	IPad:   2,
}

// Orientation is a supported interface orientation.
type Orientation string

const (
	Portrait           Orientation = "portrait"
	LandscapeLeft      Orientation = "landscape_left"
	LandscapeRight     Orientation = "landscape_right"
	PortraitUpsideDown Orientation = "portrait_upside_down"
)

var orientationConsts = map[Orientation]string{
	Portrait:           "UIInterfaceOrientationPortrait",
	LandscapeLeft:      "UIInterfaceOrientationLandscapeLeft",
	LandscapeRight:     "UIInterfaceOrientationLandscapeRight",
	PortraitUpsideDown: "UIInterfaceOrientationPortraitUpsideDown",
}

// DeviceFamilyInts returns the numeric codes of the device families, in
// declaration order.
func (c *Config) DeviceFamilyInts() ([]int, error) {
	codes := make([]int, 0, len(c.deviceFamily))
	for _, f := range c.deviceFamily {
		code, ok := deviceFamilyCodes[f]
		if !ok {
			return nil, errors.Wrapf(ErrUnknownDeviceFamily, "%q", string(f))
		}
		codes = append(codes, code)
	}
	return codes, nil
}

// InterfaceOrientationConsts returns the platform constant names of the
// supported orientations, in declaration order.
func (c *Config) InterfaceOrientationConsts() ([]string, error) {
	names := make([]string, 0, len(c.interfaceOrientations))
	for _, o := range c.interfaceOrientations {
		name, ok := orientationConsts[o]
		if !ok {
			return nil, errors.Wrapf(ErrUnknownOrientation, "%q", string(o))
		}
		names = append(names, name)
	}
	return names, nil
}
