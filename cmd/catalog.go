package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bimmerbailey/jigyokei/internal/catalog"
	"github.com/bimmerbailey/jigyokei/internal/output"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Print the solution catalog",
	Long: `Print the products a risk can be mapped to, followed by the
individual-consultation fallback.

Examples:
  jigyokei catalog
  jigyokei catalog --format table`,
	Args: cobra.NoArgs,
	RunE: runCatalog,
}

func init() {
	rootCmd.AddCommand(catalogCmd)
}

func runCatalog(cmd *cobra.Command, args []string) error {
	format := output.ParseFormat(viper.GetString("format"))
	return output.New(cmd.OutOrStdout(), format).WriteCatalog(catalog.Default())
}
