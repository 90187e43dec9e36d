package internal

import (
	"context"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/qiniu/x/log"
	"github.com/spf13/cobra"

	"github.com/goplus/motion/internal/config"
	"github.com/goplus/motion/internal/platform"
)

var bundlePlatform string

var bundleCmd = &cobra.Command{
	Use:   "bundle",
	Short: "Write the bundle metadata",
	Long:  `Bundle writes Info.plist and PkgInfo into the application bundle of one platform.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := checkPlatform(bundlePlatform); err != nil {
			return err
		}
		c, err := loadConfig()
		if err != nil {
			return err
		}
		dir, err := writeBundle(cmd.Context(), c, bundlePlatform)
		if err != nil {
			return err
		}
		log.Infof("wrote bundle metadata to %s", dir)
		return nil
	},
}

func init() {
	bundleCmd.Flags().StringVarP(&bundlePlatform, "platform", "p", platform.Simulator, "Target platform (iPhoneSimulator or iPhoneOS)")
	rootCmd.AddCommand(bundleCmd)
}

func writeBundle(ctx context.Context, c *config.Config, p string) (string, error) {
	info, err := c.PlistData(ctx)
	if err != nil {
		return "", err
	}
	dir := c.AppBundle(p)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrapf(err, "create %s", dir)
	}
	files := map[string][]byte{
		"Info.plist": info,
		"PkgInfo":    c.PkgInfoData(),
	}
	for name, data := range files {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return "", errors.Wrapf(err, "write %s", path)
		}
	}
	return dir, nil
}
