package rest

import (
	"context"
	"strings"

	"github.com/mgazza/go-octopus-energy/client/products"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/mgazza/octopus-consumer/octopus"
)

// ProductCode finds the product a tariff belongs to. The product catalogue
// is searched first; tariffs of withdrawn products are not listed there, so
// the code is otherwise derived from the tariff code itself.
func (c *Client) ProductCode(ctx context.Context, tariffCode string) (string, error) {
	params := products.NewListProductsParamsWithTimeout(c.timeout).WithContext(ctx)
	resp, err := c.api.Products.ListProducts(params, nil)
	if err != nil {
		return "", errors.Wrap(err, "failed to fetch products")
	}

	for _, p := range resp.Payload.Results {
		if p.Code != nil && strings.Contains(tariffCode, *p.Code) {
			return *p.Code, nil
		}
	}

	code := octopus.ProductCodeFromTariffCode(tariffCode)
	c.logger.Debug("tariff not in product list, deriving product code",
		zap.String("tariff", tariffCode), zap.String("product", code))
	return code, nil
}
