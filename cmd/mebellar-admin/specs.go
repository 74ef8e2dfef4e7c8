package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mebellar/internal/domain"
	"mebellar/internal/specform"
)

func newSpecsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "specs",
		Short: "Work with product spec maps",
	}
	cmd.AddCommand(newSpecsCheckCmd())
	return cmd
}

func newSpecsCheckCmd() *cobra.Command {
	var category, file string
	cmd := &cobra.Command{
		Use:     "check",
		Short:   "Validate a spec map against a category and print the stored form",
		Example: `  mebellar-admin specs check --category sofas --file specs.json`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			raw, err := os.ReadFile(file)
			if err != nil {
				return err
			}
			specs, err := specform.DecodeSpecs(raw)
			if err != nil {
				return err
			}

			e, err := setup(false)
			if err != nil {
				return err
			}
			defer e.Close()

			out, err := e.deps.Specs.Check(cmd.Context(), category, specs)
			var batch domain.FieldErrors
			if errors.As(err, &batch) {
				for _, fe := range batch {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s\t%s\t%s\n", domain.FieldOf(fe), domain.CodeOf(fe), fe.Error())
				}
				return fmt.Errorf("%d field error(s)", len(batch))
			}
			if err != nil {
				return err
			}
			printJSON(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "Category id")
	cmd.Flags().StringVarP(&file, "file", "f", "", "JSON file holding the spec map")
	_ = cmd.MarkFlagRequired("category")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
