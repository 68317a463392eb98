package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/alibyilmaz/unimallaicase/internal/crawler"
)

func newTransformCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "transform",
		Short: "Translate and score a product read from JSON",
		Long:  `Reads one product as JSON from --file (or stdin with "-") and prints the transformed product.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			product, err := readProduct(cmd.InOrStdin(), file)
			if err != nil {
				return err
			}
			out, err := appInstance.Transformer().Transform(cmd.Context(), product)
			if err != nil {
				return fmt.Errorf("transform: %w", err)
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "-", `product JSON file, "-" for stdin`)
	return cmd
}

func readProduct(stdin io.Reader, file string) (crawler.Product, error) {
	r := stdin
	if file != "-" {
		f, err := os.Open(file)
		if err != nil {
			return crawler.Product{}, fmt.Errorf("open product file: %w", err)
		}
		defer func() {
			_ = f.Close()
		}()
		r = f
	}
	var product crawler.Product
	if err := json.NewDecoder(r).Decode(&product); err != nil {
		return crawler.Product{}, fmt.Errorf("invalid product data: %w", err)
	}
	if product.Sku == "" {
		return crawler.Product{}, errors.New("invalid product data: sku is required")
	}
	return product, nil
}
