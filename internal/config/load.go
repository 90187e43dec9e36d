package config

import (
	"os"
	"sort"

	"github.com/pkg/errors"
	"github.com/qiniu/x/log"
	"gopkg.in/yaml.v3"

	"github.com/goplus/motion/internal/env"
	"github.com/goplus/motion/pkgs/buildsys"
)

// ProjectFileName is the optional settings file in the project dir.
const ProjectFileName = "motion.yml"

// projectFile is the layout of motion.yml:
//
//	app:
//	  name: Hello
//	  device_family: [iphone, ipad]
//	dependencies:
//	  app/main.rb: app/helper.rb
//	vendor:
//	  - path: vendor/zlib
//	    type: cmake
//	    options:
//	      defines: {ZLIB_COMPAT: "ON"}
type projectFile struct {
	App          map[string]any `yaml:"app"`
	Dependencies map[string]any `yaml:"dependencies"`
	Vendor       []struct {
		Path    string           `yaml:"path"`
		Type    string           `yaml:"type"`
		Options buildsys.Options `yaml:"options"`
	} `yaml:"vendor"`
}

// Load creates the configuration of the project in projectDir, then applies
// the project's .env and motion.yml files when present.
func Load(projectDir string, opts ...Option) (*Config, error) {
	if err := env.Load(projectDir); err != nil {
		return nil, err
	}
	c, err := New(projectDir, opts...)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(c.ProjectFile())
	if err != nil {
		if os.IsNotExist(err) {
			return c, nil
		}
		return nil, errors.Wrapf(err, "read %s", c.ProjectFile())
	}
	if err := c.apply(data); err != nil {
		return nil, errors.Wrapf(err, "load %s", c.ProjectFile())
	}
	log.Debugf("loaded %s", c.ProjectFile())
	return c, nil
}

func (c *Config) apply(data []byte) error {
	var pf projectFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return err
	}
	names := make([]string, 0, len(pf.App))
	for name := range pf.App {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := c.Set(name, pf.App[name]); err != nil {
			return err
		}
	}
	if err := c.FilesDependencies(pf.Dependencies); err != nil {
		return err
	}
	for _, v := range pf.Vendor {
		if _, err := c.VendorProject(v.Path, v.Type, v.Options); err != nil {
			return err
		}
	}
	return nil
}
