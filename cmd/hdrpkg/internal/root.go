package internal

import (
	"context"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

// Version is set via -ldflags.
var Version = "dev"

var (
	cfgFile   string
	verbose   bool
	settingsF []string
)

var rootCmd = &cobra.Command{
	Use:   "hdrpkg",
	Short: "hdrpkg packages header-only CMake libraries",
	Long: `hdrpkg builds, tests and packages header-only CMake libraries described by a
package.json, fetching their test dependencies and publishing the result to a
local package index.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is <user config dir>/hdrpkg/hdrpkg.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringArrayVarP(&settingsF, "settings", "s", nil, "override a setting, e.g. -s build_type=Debug")
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(Version),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		os.Exit(1)
	}
}
