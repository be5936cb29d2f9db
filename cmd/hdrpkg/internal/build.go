package internal

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/goplus/hdrpkg/internal/driver"
)

var buildCmd = &cobra.Command{
	Use:   "build [path]",
	Short: "Build and test a recipe in place",
	Long:  `Build runs install and then configures, builds and tests the project in path (default ".").`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runBuild,
}

func init() {
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	rec, dir, err := loadRecipe(args)
	if err != nil {
		return err
	}
	c, err := a.runner.Build(cmd.Context(), rec, driver.Options{
		Settings:  a.settings,
		SourceDir: dir,
	})
	if err != nil {
		return fmt.Errorf("build %s: %w", rec.Metadata().Ref(), err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "built in %s\n", c.Folders.Build)
	return nil
}
