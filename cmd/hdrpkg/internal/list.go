package internal

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goplus/hdrpkg/internal/index"
)

var listCmd = &cobra.Command{
	Use:   "list [name/version]",
	Short: "List packages in the local index",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	var recs []*index.Record
	if len(args) > 0 {
		name, version, ok := strings.Cut(args[0], "/")
		if !ok {
			return fmt.Errorf("invalid reference %q: expected name/version", args[0])
		}
		recs, err = a.index.Lookup(name, version)
	} else {
		recs, err = a.index.List()
	}
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, r := range recs {
		fmt.Fprintf(out, "%s:%s\n", r.Ref(), r.PackageID)
		if len(args) > 0 {
			fmt.Fprintf(out, "  path: %s\n", a.index.Path(r.Name, r.Version, r.PackageID))
			if r.Description != "" {
				fmt.Fprintf(out, "  description: %s\n", r.Description)
			}
			fmt.Fprintf(out, "  include_dirs: %s\n", strings.Join(r.CppInfo.IncludeDirs, ", "))
		}
	}
	return nil
}
