// Package rest is a thin wrapper around the Octopus Energy REST endpoints.
// It handles authentication and status codes but does not interpret the
// payloads; that is left to the octopus package.
package rest

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/go-openapi/runtime"
	httptransport "github.com/go-openapi/runtime/client"
	"github.com/go-openapi/strfmt"
	octopusapi "github.com/mgazza/go-octopus-energy/client"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/mgazza/octopus-consumer/octopus"
)

const (
	DefaultHost     = "api.octopus.energy"
	DefaultBasePath = "/"
)

// Client calls the Octopus Energy API.
type Client struct {
	transport *httptransport.Runtime
	api       *octopusapi.OctopusEnergyRESTAPI
	timeout   time.Duration
	logger    *zap.Logger
}

type options struct {
	host     string
	basePath string
	schemes  []string
	timeout  time.Duration
	logger   *zap.Logger
	errs     []error
}

// Option configures a Client.
type Option func(*options)

// WithBaseURL points the client at a different API address, e.g. a sandbox.
func WithBaseURL(rawURL string) Option {
	return func(o *options) {
		u, err := url.Parse(rawURL)
		if err == nil && u.Host == "" {
			err = errors.New("missing host")
		}
		if err != nil {
			o.errs = append(o.errs, errors.Wrapf(err, "base url %q", rawURL))
			return
		}
		o.host = u.Host
		o.basePath = u.Path
		if o.basePath == "" {
			o.basePath = "/"
		}
		if u.Scheme != "" {
			o.schemes = []string{u.Scheme}
		}
	}
}

// WithTimeout bounds each request made by the client. Zero
// disables the limit.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// NewClient creates a client sending requests through rt. An empty apiKey
// leaves requests unauthenticated, which is enough for the public product
// endpoints. An unusable base URL is logged and the default address kept.
func NewClient(rt http.RoundTripper, apiKey string, opts ...Option) *Client {
	o := options{
		host:     DefaultHost,
		basePath: DefaultBasePath,
		schemes:  []string{"https"},
		timeout:  httptransport.DefaultTimeout,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	for _, err := range o.errs {
		o.logger.Warn("ignoring client option", zap.Error(err))
	}

	transport := httptransport.New(o.host, o.basePath, o.schemes)
	transport.Transport = rt

	// the generated client shares the address so ProductCode follows WithBaseURL
	apiTransport := httptransport.New(o.host, o.basePath, o.schemes)
	apiTransport.Transport = rt

	if apiKey != "" {
		transport.DefaultAuthentication = httptransport.BasicAuth(apiKey, "")
		apiTransport.DefaultAuthentication = transport.DefaultAuthentication
	}

	return &Client{
		transport: transport,
		api:       octopusapi.New(apiTransport, strfmt.Default),
		timeout:   o.timeout,
		logger:    o.logger,
	}
}

// Raw is an uninterpreted JSON object.
type Raw = map[string]any

// GetAccountDetails returns the properties, meter points and agreements of
// an account.
func (c *Client) GetAccountDetails(ctx context.Context, accountNumber string) (*octopus.AccountResponse, error) {
	return get[octopus.AccountResponse](ctx, c, "getAccount", "/v1/accounts/{account}/",
		map[string]string{"account": accountNumber}, nil)
}

// GetElectricityConsumption lists the readings of an electricity meter.
// query may come from ConsumptionQuery.Values or PageReference.Query.
func (c *Client) GetElectricityConsumption(ctx context.Context, mpan, serialNumber string, query url.Values) (*octopus.ConsumptionResponse, error) {
	return get[octopus.ConsumptionResponse](ctx, c, "listElectricityConsumption",
		"/v1/electricity-meter-points/{mpan}/meters/{serial}/consumption/",
		map[string]string{"mpan": mpan, "serial": serialNumber}, query)
}

// GetGasConsumption lists the readings of a gas meter.
func (c *Client) GetGasConsumption(ctx context.Context, mprn, serialNumber string, query url.Values) (*octopus.ConsumptionResponse, error) {
	return get[octopus.ConsumptionResponse](ctx, c, "listGasConsumption",
		"/v1/gas-meter-points/{mprn}/meters/{serial}/consumption/",
		map[string]string{"mprn": mprn, "serial": serialNumber}, query)
}

// GetElectricityMeterPoint returns the GSP and profile class of an MPAN.
func (c *Client) GetElectricityMeterPoint(ctx context.Context, mpan string) (Raw, error) {
	resp, err := get[Raw](ctx, c, "getElectricityMeterPoint", "/v1/electricity-meter-points/{mpan}/",
		map[string]string{"mpan": mpan}, nil)
	if err != nil {
		return nil, err
	}
	return *resp, nil
}

// GetTariffRates lists the prices of one tariff of a product.
func (c *Client) GetTariffRates(ctx context.Context, productCode string, tariffType EnergyTariffType, tariffCode string, rateType RateType, query url.Values) (*octopus.TariffRateResponse, error) {
	return get[octopus.TariffRateResponse](ctx, c, "listTariffRates",
		"/v1/products/{product}/{tariffType}/{tariff}/{rateType}/",
		map[string]string{
			"product":    productCode,
			"tariffType": string(tariffType),
			"tariff":     tariffCode,
			"rateType":   string(rateType),
		}, query)
}

// GetProduct returns a product and its tariffs. A non-zero tariffsActiveAt
// restricts the tariffs to those active at that time.
func (c *Client) GetProduct(ctx context.Context, productCode string, tariffsActiveAt time.Time) (Raw, error) {
	query := url.Values{}
	if s := octopus.FormatTimestamp(tariffsActiveAt); s != "" {
		query.Set("tariffs_active_at", s)
	}
	resp, err := get[Raw](ctx, c, "getProduct", "/v1/products/{product}/",
		map[string]string{"product": productCode}, query)
	if err != nil {
		return nil, err
	}
	return *resp, nil
}

// CreateAccount needs a partner organisation API key.
func (c *Client) CreateAccount(ctx context.Context, account Raw) (Raw, error) {
	return c.post(ctx, "createAccount", "/v1/accounts/", nil, account)
}

func (c *Client) CreateQuote(ctx context.Context, quote Raw) (Raw, error) {
	return c.post(ctx, "createQuote", "/v1/quotes/", nil, quote)
}

func (c *Client) RenewBusinessTariff(ctx context.Context, accountNumber string, renewal Raw) (Raw, error) {
	return c.post(ctx, "renewBusinessTariff", "/v1/accounts/{account}/tariff-renewal/",
		map[string]string{"account": accountNumber}, renewal)
}

func (c *Client) post(ctx context.Context, id, path string, pathParams map[string]string, body Raw) (Raw, error) {
	resp, err := submit[Raw](ctx, c, http.MethodPost, id, path,
		runtime.ClientRequestWriterFunc(func(req runtime.ClientRequest, _ strfmt.Registry) error {
			if err := req.SetTimeout(c.timeout); err != nil {
				return err
			}
			if err := setPathParams(req, pathParams); err != nil {
				return err
			}
			return req.SetBodyParam(body)
		}))
	if err != nil {
		return nil, err
	}
	return *resp, nil
}

func get[T any](ctx context.Context, c *Client, id, path string, pathParams map[string]string, query url.Values) (*T, error) {
	return submit[T](ctx, c, http.MethodGet, id, path,
		runtime.ClientRequestWriterFunc(func(req runtime.ClientRequest, _ strfmt.Registry) error {
			if err := req.SetTimeout(c.timeout); err != nil {
				return err
			}
			if err := setPathParams(req, pathParams); err != nil {
				return err
			}
			for name, values := range query {
				if err := req.SetQueryParam(name, values...); err != nil {
					return err
				}
			}
			return nil
		}))
}

func setPathParams(req runtime.ClientRequest, params map[string]string) error {
	for name, value := range params {
		if err := req.SetPathParam(name, value); err != nil {
			return err
		}
	}
	return nil
}

func submit[T any](ctx context.Context, c *Client, method, id, path string, params runtime.ClientRequestWriter) (*T, error) {
	c.logger.Debug("octopus request", zap.String("operation", id), zap.String("method", method))

	result, err := c.transport.Submit(&runtime.ClientOperation{
		ID:                 id,
		Method:             method,
		PathPattern:        path,
		ProducesMediaTypes: []string{runtime.JSONMime},
		ConsumesMediaTypes: []string{runtime.JSONMime},
		Params:             params,
		Reader:             responseReader[T](id),
		Context:            ctx,
	})
	if err != nil {
		return nil, err
	}
	return result.(*T), nil
}

func responseReader[T any](id string) runtime.ClientResponseReader {
	return runtime.ClientResponseReaderFunc(func(resp runtime.ClientResponse, consumer runtime.Consumer) (any, error) {
		if resp.Code() >= http.StatusBadRequest {
			body, _ := io.ReadAll(resp.Body())
			return nil, &APIError{Operation: id, StatusCode: resp.Code(), Body: string(body)}
		}

		out := new(T)
		if err := consumer.Consume(resp.Body(), out); err != nil && !errors.Is(err, io.EOF) {
			return nil, errors.Wrapf(err, "%s: decode response", id)
		}
		return out, nil
	})
}
