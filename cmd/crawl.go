package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/alibyilmaz/unimallaicase/internal/crawler"
)

func newCrawlCmd() *cobra.Command {
	var withTransform bool

	cmd := &cobra.Command{
		Use:   "crawl <url>",
		Short: "Crawl a product page and print its products as JSON",
		Long: `Fetches the product page at url and every variant it links to, then
prints the extracted products. With --transform each product is translated
and scored before printing.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			url := args[0]
			if err := crawler.ValidateProductURL(url, appInstance.Config().Crawler.SiteDomain); err != nil {
				return fmt.Errorf("invalid product url: %w", err)
			}

			products, err := appInstance.Crawler().Crawl(cmd.Context(), url)
			if err != nil {
				return fmt.Errorf("crawl: %w", err)
			}
			if withTransform {
				if len(products) == 0 {
					return errors.New("no products found")
				}
				products, err = appInstance.Transformer().TransformAll(cmd.Context(), products)
				if err != nil {
					return fmt.Errorf("transform: %w", err)
				}
			}
			appInstance.Logger().Info("crawl command finished",
				zap.String("url", url),
				zap.Int("products", len(products)),
				zap.Bool("transformed", withTransform),
			)
			if products == nil {
				products = []crawler.Product{}
			}
			return printJSON(cmd.OutOrStdout(), products)
		},
	}
	cmd.Flags().BoolVar(&withTransform, "transform", false, "translate and score the crawled products")
	return cmd
}
