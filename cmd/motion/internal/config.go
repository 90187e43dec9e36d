package internal

import (
	"fmt"
	"strings"

	"github.com/spf13/cast"
	"github.com/spf13/cobra"

	"github.com/goplus/motion/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config [name...]",
	Short: "Print the build configuration",
	Long:  `Config prints every configuration variable, or only the named ones.`,
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(cmd *cobra.Command, args []string) error {
	c, err := loadConfig()
	if err != nil {
		return err
	}
	names := args
	if len(names) == 0 {
		names = c.Variables()
	}
	snap := c.Snapshot(cmd.Context())
	out := cmd.OutOrStdout()
	for _, name := range names {
		v, ok := snap[name]
		if !ok {
			return fmt.Errorf("unknown variable %q", name)
		}
		fmt.Fprintf(out, "%-24s %s\n", name, formatValue(v))
	}
	return nil
}

// formatValue renders a variable for display; lists are comma separated.
func formatValue(v any) string {
	switch v := v.(type) {
	case []config.DeviceFamily:
		return formatList(v)
	case []config.Orientation:
		return formatList(v)
	case []string:
		return formatList(v)
	}
	return cast.ToString(v)
}

func formatList[S ~[]E, E ~string](list S) string {
	strs := make([]string, len(list))
	for i, e := range list {
		strs[i] = string(e)
	}
	return "[" + strings.Join(strs, ", ") + "]"
}
