package internal

import (
	"github.com/qiniu/x/log"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the installed SDKs",
	Long:  `Validate checks that the simulator and device SDKs are installed and supported.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadConfig()
		if err != nil {
			return err
		}
		if err := c.Validate(cmd.Context()); err != nil {
			return err
		}
		log.Info("configuration is valid")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
