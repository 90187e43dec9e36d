package config

import (
	"context"

	"github.com/pkg/errors"
	"github.com/spf13/cast"
)

// ErrorMarker replaces the value of a variable whose getter fails in a
// Snapshot.
const ErrorMarker = "ERROR"

type variable struct {
	name string
	get  func(c *Config, ctx context.Context) (any, error)
	set  func(c *Config, v any) error
}

func stringVar(name string, get func(*Config) string, set func(*Config, string)) variable {
	return variable{
		name: name,
		get:  func(c *Config, _ context.Context) (any, error) { return get(c), nil },
		set: func(c *Config, v any) error {
			s, err := cast.ToStringE(v)
			if err != nil {
				return err
			}
			set(c, s)
			return nil
		},
	}
}

func listVar(name string, get func(*Config) []string, set func(*Config, ...string)) variable {
	return variable{
		name: name,
		get:  func(c *Config, _ context.Context) (any, error) { return get(c), nil },
		set: func(c *Config, v any) error {
			list, err := toStrings(v)
			if err != nil {
				return err
			}
			set(c, list...)
			return nil
		},
	}
}

func lazyVar(name string, get func(*Config, context.Context) (string, error), set func(*Config, string)) variable {
	return variable{
		name: name,
		get:  func(c *Config, ctx context.Context) (any, error) { return get(c, ctx) },
		set: func(c *Config, v any) error {
			s, err := cast.ToStringE(v)
			if err != nil {
				return err
			}
			set(c, s)
			return nil
		},
	}
}

var variables = []variable{
	listVar("files", (*Config).Files, (*Config).SetFiles),
	stringVar("platforms_dir", (*Config).PlatformsDir, (*Config).SetPlatformsDir),
	lazyVar("sdk_version", (*Config).SDKVersion, (*Config).SetSDKVersion),
	listVar("frameworks", (*Config).Frameworks, (*Config).SetFrameworks),
	stringVar("delegate_class", (*Config).DelegateClass, (*Config).SetDelegateClass),
	stringVar("name", (*Config).Name, (*Config).SetName),
	stringVar("build_dir", (*Config).BuildDir, (*Config).SetBuildDir),
	stringVar("resources_dir", (*Config).ResourcesDir, (*Config).SetResourcesDir),
	lazyVar("codesign_certificate", (*Config).CodesignCertificate, (*Config).SetCodesignCertificate),
	lazyVar("provisioning_profile", (*Config).ProvisioningProfile, (*Config).SetProvisioningProfile),
	{
		name: "device_family",
		get:  func(c *Config, _ context.Context) (any, error) { return c.DeviceFamily(), nil },
		set: func(c *Config, v any) error {
			if fs, ok := v.([]DeviceFamily); ok {
				c.SetDeviceFamily(fs...)
				return nil
			}
			list, err := toStrings(v)
			if err != nil {
				return err
			}
			fs := make([]DeviceFamily, len(list))
			for i, s := range list {
				fs[i] = DeviceFamily(s)
			}
			c.SetDeviceFamily(fs...)
			return nil
		},
	},
	{
		name: "interface_orientations",
		get:  func(c *Config, _ context.Context) (any, error) { return c.InterfaceOrientations(), nil },
		set: func(c *Config, v any) error {
			if ors, ok := v.([]Orientation); ok {
				c.SetInterfaceOrientations(ors...)
				return nil
			}
			list, err := toStrings(v)
			if err != nil {
				return err
			}
			ors := make([]Orientation, len(list))
			for i, s := range list {
				ors[i] = Orientation(s)
			}
			c.SetInterfaceOrientations(ors...)
			return nil
		},
	},
	stringVar("version", (*Config).Version, (*Config).SetVersion),
	listVar("icons", (*Config).Icons, (*Config).SetIcons),
	stringVar("bundle_signature", (*Config).BundleSignature, (*Config).SetBundleSignature),
}

func lookup(name string) (variable, error) {
	for _, v := range variables {
		if v.name == name {
			return v, nil
		}
	}
	return variable{}, errors.Wrapf(ErrUnknownVariable, "%q", name)
}

// Variables returns the names of every configuration variable.
func (c *Config) Variables() []string {
	names := make([]string, len(variables))
	for i, v := range variables {
		names[i] = v.name
	}
	return names
}

// Get returns the value of the named variable. Lazily resolved variables
// are resolved on first read.
func (c *Config) Get(ctx context.Context, name string) (any, error) {
	v, err := lookup(name)
	if err != nil {
		return nil, err
	}
	return v.get(c, ctx)
}

// Set assigns the named variable. List variables accept one value or a
// list.
func (c *Config) Set(name string, value any) error {
	v, err := lookup(name)
	if err != nil {
		return err
	}
	if err := v.set(c, value); err != nil {
		return errors.Wrapf(err, "set %s", name)
	}
	return nil
}

// Snapshot returns the value of every variable. A variable whose getter
// fails is reported as ErrorMarker.
func (c *Config) Snapshot(ctx context.Context) map[string]any {
	snap := make(map[string]any, len(variables))
	for _, v := range variables {
		val, err := v.get(c, ctx)
		if err != nil {
			val = ErrorMarker
		}
		snap[v.name] = val
	}
	return snap
}
