package internal

import (
	"fmt"

	"github.com/qiniu/x/log"
	"github.com/spf13/cobra"

	"github.com/goplus/motion/internal/platform"
)

var (
	vendorPlatform string
	vendorArchs    []string
)

var vendorCmd = &cobra.Command{
	Use:   "vendor",
	Short: "Build the vendor projects",
	Long:  `Vendor builds every vendor project declared in motion.yml for one platform and prints the libraries to link.`,
	RunE:  runVendor,
}

func init() {
	vendorCmd.Flags().StringVarP(&vendorPlatform, "platform", "p", platform.Simulator, "Target platform (iPhoneSimulator or iPhoneOS)")
	vendorCmd.Flags().StringSliceVarP(&vendorArchs, "arch", "a", nil, "Target architectures (default: i386 for the simulator, armv6,armv7 for devices)")
	rootCmd.AddCommand(vendorCmd)
}

func runVendor(cmd *cobra.Command, args []string) error {
	if err := checkPlatform(vendorPlatform); err != nil {
		return err
	}
	c, err := loadConfig()
	if err != nil {
		return err
	}
	archs := vendorArchs
	if len(archs) == 0 {
		archs = defaultArchs(vendorPlatform)
	}
	out := cmd.OutOrStdout()
	for _, v := range c.VendorProjects() {
		log.Infof("building %s project %s for %s %v", v.Type(), v.Path(), vendorPlatform, archs)
		if err := v.Build(cmd.Context(), vendorPlatform, archs); err != nil {
			return err
		}
		for _, lib := range v.Libs() {
			fmt.Fprintln(out, lib)
		}
		for _, bs := range v.BridgeSupportFiles() {
			fmt.Fprintln(out, bs)
		}
	}
	return nil
}

func defaultArchs(p string) []string {
	if p == platform.Simulator {
		return []string{"i386"}
	}
	return []string{"armv6", "armv7"}
}

func checkPlatform(p string) error {
	for _, known := range platform.Platforms {
		if p == known {
			return nil
		}
	}
	return fmt.Errorf("unknown platform %q (want one of %v)", p, platform.Platforms)
}
