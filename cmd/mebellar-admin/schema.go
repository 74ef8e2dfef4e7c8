package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mebellar/internal/domain"
	"mebellar/internal/schemafile"
	"mebellar/internal/specform"
)

func newSchemaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Export or import category attribute schemas",
	}
	cmd.AddCommand(newSchemaExportCmd(), newSchemaImportCmd())
	return cmd
}

func newSchemaExportCmd() *cobra.Command {
	var category, lang string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Print the JSON Schema of a category's product specs",
		Example: `  mebellar-admin schema export --category sofas
  mebellar-admin schema export --category sofas --lang ru`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := setup(false)
			if err != nil {
				return err
			}
			defer e.Close()

			attrs, err := e.deps.Store.ListForCategory(cmd.Context(), category)
			if err != nil {
				return err
			}
			doc := specform.BuildJSONSchema(attrs, domain.MatchLang(lang))
			doc["$id"] = "urn:mebellar:category:" + category + ":specs"
			printJSON(cmd.OutOrStdout(), doc)
			return nil
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "Category id")
	cmd.Flags().StringVar(&lang, "lang", "uz", "Language of the titles (uz, ru, en)")
	_ = cmd.MarkFlagRequired("category")
	return cmd
}

func newSchemaImportCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Create attributes from a YAML file; keys that exist are skipped",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := os.Open(file)
			if err != nil {
				return err
			}
			defer f.Close()
			doc, err := schemafile.Parse(f)
			if err != nil {
				return err
			}

			e, err := setup(false)
			if err != nil {
				return err
			}
			defer e.Close()

			res, err := schemafile.Apply(cmd.Context(), e.deps.Store, doc, e.log)
			fmt.Fprintf(cmd.OutOrStdout(), "created %d, skipped %d\n", res.Created, res.Skipped)
			return err
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML file with categories and attributes")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
