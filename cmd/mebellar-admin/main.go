package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var jsonOutput bool

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "mebellar-admin",
		Short: "Admin service for the Mebellar furniture marketplace",
		Long: `mebellar-admin serves the category attribute schema API, the admin
pages for editing product specifications, and tooling to export, import
and check spec schemas. Settings come from the environment or a .env file.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE:          runServe,
	}
	root.PersistentFlags().BoolVarP(&jsonOutput, "json", "j", false, "Print errors as JSON")

	root.AddCommand(newServeCmd(), newSchemaCmd(), newSpecsCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if jsonOutput {
			printJSON(os.Stderr, map[string]string{"error": err.Error()})
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
