package internal

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/goplus/hdrpkg/internal/driver"
)

var installCmd = &cobra.Command{
	Use:   "install [path]",
	Short: "Fetch dependencies and generate build files",
	Long: `Install resolves the requirements of the recipe in path (default "."), then
writes the dependency lookup files, the toolchain and the CMake presets so the
project can be configured with "cmake --preset".`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInstall,
}

func init() {
	rootCmd.AddCommand(installCmd)
}

func runInstall(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	rec, dir, err := loadRecipe(args)
	if err != nil {
		return err
	}
	c, err := a.runner.Install(cmd.Context(), rec, driver.Options{
		Settings:  a.settings,
		SourceDir: dir,
	})
	if err != nil {
		return fmt.Errorf("install %s: %w", rec.Metadata().Ref(), err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "generated files in %s\n", c.Folders.Generators)
	return nil
}
