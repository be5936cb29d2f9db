package internal

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/goplus/hdrpkg/internal/driver"
)

var createCmd = &cobra.Command{
	Use:   "create [path]",
	Short: "Export, build, test and publish a package",
	Long: `Create snapshots the recipe in path (default ".") into the hdrpkg home, builds
and tests it from the snapshot, installs it and publishes the package to the
local index.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCreate,
}

func init() {
	rootCmd.AddCommand(createCmd)
}

func runCreate(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	rec, dir, err := loadRecipe(args)
	if err != nil {
		return err
	}
	meta := rec.Metadata()
	res, err := a.runner.Create(cmd.Context(), rec, driver.CreateOptions{
		Settings:  a.settings,
		RecipeDir: dir,
		ExportDir: a.exportDir(meta),
		BuildDir:  a.buildDir(meta),
	})
	if err != nil {
		return fmt.Errorf("create %s: %w", meta.Ref(), err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s:%s\n", meta.Ref(), res.PackageID)
	if res.Published != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "published to %s\n", res.Published)
	}
	return nil
}
