package internal

import (
	"fmt"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/goplus/hdrpkg/recipe"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [path]",
	Short: "Print the metadata of a recipe",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

type inspectOutput struct {
	Name           string   `toml:"name"`
	ProjectName    string   `toml:"project_name"`
	Version        string   `toml:"version"`
	URL            string   `toml:"url"`
	Description    string   `toml:"description"`
	Settings       []string `toml:"settings"`
	Exports        []string `toml:"exports"`
	ExportsSources []string `toml:"exports_sources"`
	NoCopySource   bool     `toml:"no_copy_source"`
	Requires       []string `toml:"requires,omitempty"`
	TestRequires   []string `toml:"test_requires,omitempty"`
}

func runInspect(cmd *cobra.Command, args []string) error {
	rec, _, err := loadRecipe(args)
	if err != nil {
		return err
	}
	meta := rec.Metadata()
	out := inspectOutput{
		Name:           meta.Name,
		ProjectName:    meta.ProjectName,
		Version:        meta.Version,
		URL:            meta.URL,
		Description:    meta.Description,
		Settings:       meta.Settings,
		Exports:        meta.Exports,
		ExportsSources: meta.ExportsSources,
		NoCopySource:   meta.NoCopySource,
	}
	var reqs recipe.Requirements
	rec.Requirements(&reqs)
	for _, r := range reqs.List() {
		if r.Test {
			out.TestRequires = append(out.TestRequires, r.Ref)
		} else {
			out.Requires = append(out.Requires, r.Ref)
		}
	}
	data, err := toml.Marshal(out)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), string(data))
	return nil
}
