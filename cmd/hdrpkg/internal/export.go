package internal

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/goplus/hdrpkg/internal/driver"
)

var exportCmd = &cobra.Command{
	Use:   "export [path]",
	Short: "Snapshot a recipe into the hdrpkg home",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	rec, dir, err := loadRecipe(args)
	if err != nil {
		return err
	}
	meta := rec.Metadata()
	dst := a.exportDir(meta)
	files, err := driver.Export(meta, dir, dst)
	if err != nil {
		return err
	}
	for _, f := range files {
		a.logger.Debug("exported", "file", f)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: exported %d entries to %s\n", meta.Ref(), len(files), dst)
	return nil
}
