package main

import (
	"fmt"

	"github.com/spf13/cobra"

	domainsvcs "github.com/ghuser/inventory/services/inventory/domain/services"
)

var skuCmd = &cobra.Command{
	Use:   "sku <name> <category>",
	Short: "Print the SKU code an item would get",
	Long: `Print the SKU code derived from an item name and category.

The name and category are not validated; quote multi-word names:
  inventory sku "kitchen pot" cooking`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), domainsvcs.DeriveSKU(args[0], args[1]))
		return err
	},
}
