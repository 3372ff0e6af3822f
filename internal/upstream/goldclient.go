package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"goldrates/internal/metals"
)

const goldBaseURL = "https://api.goldrateindia.example.com"

// HTTPClient describes an HTTP client.
//
//go:generate mockgen -package=upstream_test -destination=mock_http_client_test.go -source=goldclient.go HTTPClient
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// GoldClient is a client for the gold-rate aggregator API.
type GoldClient struct {
	// baseURL is the base URL for the API.
	baseURL string
	// httpClient is the HTTP httpClient.
	httpClient HTTPClient
	// header contains additional headers to be sent with each request.
	header http.Header
	// query contains additional query parameters to be sent with each request.
	query url.Values
}

// GoldClientOption is a configuration option for the gold aggregator client.
type GoldClientOption func(*GoldClient)

// WithBaseURL sets the base URL for the API.
func WithBaseURL(baseURL string) GoldClientOption {
	return func(c *GoldClient) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient sets the HTTP client for the API.
func WithHTTPClient(httpClient HTTPClient) GoldClientOption {
	return func(c *GoldClient) {
		c.httpClient = httpClient
	}
}

// WithHeader sets additional headers to be sent with each request.
func WithHeader(header http.Header) GoldClientOption {
	return func(c *GoldClient) {
		for key, values := range header {
			for _, value := range values {
				c.header.Add(key, value)
			}
		}
	}
}

// NewGoldClient creates a new gold aggregator client. The key is optional;
// when set it is sent as an api_key query parameter.
func NewGoldClient(key string, options ...GoldClientOption) (*GoldClient, error) {
	var goldClient = &GoldClient{
		baseURL:    goldBaseURL,
		httpClient: http.DefaultClient,
		header:     http.Header{},
		query:      url.Values{},
	}
	if key != "" {
		goldClient.query.Add("api_key", key)
	}
	for _, option := range options {
		option(goldClient)
	}
	return goldClient, nil
}

// Rate is a vendor rate field. The vendor emits numbers, numeric strings,
// empty strings, or null; the last two mean the rate is absent and decode
// as 0.
type Rate float64

func (r *Rate) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	s = strings.Trim(s, `"`)
	if s == "" || s == "null" {
		*r = 0
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid rate %q: %w", s, err)
	}
	*r = Rate(f)
	return nil
}

// CityRate is one city's entry in the vendor payload, INR per gram.
type CityRate struct {
	Gold24K Rate `json:"gold_24k"`
	Gold22K Rate `json:"gold_22k"`
	Silver  Rate `json:"silver"`
}

type physicalGoldRate struct {
	CityPrices     map[string]CityRate `json:"cityPrices"`
	TrendingCities json.RawMessage     `json:"trendingCities"`
	GoldTrend      json.RawMessage     `json:"goldTrend"`
}

type goldAPIResponse struct {
	PhysicalGoldRate *physicalGoldRate `json:"physicalGoldRate"`
}

// goldPurityFactor derives a 22-karat price from a 24-karat one when the
// vendor does not supply it directly.
const goldPurityFactor = 0.916

// FetchGoldPrices retrieves the aggregator payload and extracts rates for
// city, resolving the name against the vendor's city map. It makes exactly
// one attempt; callers own any fallback policy.
func (c *GoldClient) FetchGoldPrices(ctx context.Context, city string) (metals.GoldRates, error) {
	query := url.Values{}
	for k, vs := range c.query {
		query[k] = vs
	}

	u := fmt.Sprintf("%s/v1/gold/rates?%s", c.baseURL, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return metals.GoldRates{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header = c.header.Clone()
	req.Header.Set("Accept", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return metals.GoldRates{}, fmt.Errorf("%w: performing request: %v", metals.ErrUpstream, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(res.Body, 2<<10))
		return metals.GoldRates{}, fmt.Errorf("%w: GET %s -> %d: %s", metals.ErrUpstream, c.baseURL, res.StatusCode, string(b))
	}

	var body goldAPIResponse
	dec := json.NewDecoder(res.Body)
	dec.UseNumber()
	if err := dec.Decode(&body); err != nil {
		return metals.GoldRates{}, fmt.Errorf("%w: decoding response: %v", metals.ErrUpstream, err)
	}
	if body.PhysicalGoldRate == nil || len(body.PhysicalGoldRate.CityPrices) == 0 {
		return metals.GoldRates{}, fmt.Errorf("%w: missing physicalGoldRate data", metals.ErrUpstream)
	}

	resolved := ResolveCity(body.PhysicalGoldRate.CityPrices, city)
	rate := body.PhysicalGoldRate.CityPrices[resolved.Key]

	gold24k := float64(rate.Gold24K)
	if gold24k <= 0 {
		return metals.GoldRates{}, fmt.Errorf("%w: zero or missing 24k price for %q", metals.ErrUpstream, resolved.Key)
	}
	gold22k := float64(rate.Gold22K)
	if gold22k <= 0 {
		gold22k = gold24k * goldPurityFactor
	}

	return metals.GoldRates{
		City:           resolved.Key,
		Matched:        resolved.Matched,
		Gold24K1G:      gold24k,
		Gold22K1G:      gold22k,
		Silver1G:       float64(rate.Silver),
		TrendingCities: body.PhysicalGoldRate.TrendingCities,
		GoldTrend:      body.PhysicalGoldRate.GoldTrend,
	}, nil
}
