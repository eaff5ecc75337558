package rest

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const productList = `{
  "count": 2,
  "next": null,
  "previous": null,
  "results": [
    {"code": "AGILE-FLEX-22-11-25", "display_name": "Agile Octopus", "direction": "IMPORT"},
    {"code": "OUTGOING-FIX-12M-19-05-13", "display_name": "Outgoing Octopus", "direction": "EXPORT"}
  ]
}`

func productsRoundTripper(t *testing.T) *MockRoundTripper {
	return &MockRoundTripper{Handler: func(req *http.Request) (*http.Response, error) {
		require.True(t, strings.Contains(req.URL.Path, "/products"), req.URL.Path)
		return jsonResponse(http.StatusOK, productList), nil
	}}
}

func TestProductCode(t *testing.T) {
	tests := []struct {
		tariff string
		expect string
	}{
		{"E-1R-AGILE-FLEX-22-11-25-C", "AGILE-FLEX-22-11-25"},
		{"E-1R-OUTGOING-FIX-12M-19-05-13-A", "OUTGOING-FIX-12M-19-05-13"},
		// withdrawn product, derived from the tariff code
		{"G-1R-VAR-19-04-12-N", "VAR-19-04-12"},
	}

	client := NewClient(productsRoundTripper(t), "key")
	for _, test := range tests {
		t.Run(test.tariff, func(t *testing.T) {
			code, err := client.ProductCode(context.Background(), test.tariff)
			require.NoError(t, err)
			require.Equal(t, test.expect, code)
		})
	}
}

func TestProductCodeListFails(t *testing.T) {
	rt := &MockRoundTripper{Handler: func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusInternalServerError, `{}`), nil
	}}

	_, err := NewClient(rt, "key").ProductCode(context.Background(), "E-1R-AGILE-FLEX-22-11-25-C")
	require.Error(t, err)
}
