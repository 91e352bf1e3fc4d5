package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nilantra/furniture-api/internal/export"
	"github.com/nilantra/furniture-api/internal/model"
	"github.com/nilantra/furniture-api/internal/repository"
)

func newExportProductsCommand(root *RootOptions) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export-products",
		Short: "Write the full catalog, inactive products included, to an .xlsx file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return root.withStore(cmd.Context(), func(store *repository.Store) error {
				products, err := store.Products.List(cmd.Context(), model.ProductFilter{})
				if err != nil {
					return fmt.Errorf("list products: %w", err)
				}
				f, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("create %s: %w", out, err)
				}
				if err := export.WriteCatalog(f, products); err != nil {
					f.Close()
					return err
				}
				if err := f.Close(); err != nil {
					return fmt.Errorf("close %s: %w", out, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "exported %d products to %s\n", len(products), out)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "products.xlsx", "output file")
	return cmd
}
