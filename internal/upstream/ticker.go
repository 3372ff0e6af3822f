package upstream

import (
    "context"
    "encoding/json"
    "fmt"
    "io"
    "net/http"

    "goldrates/internal/httpx"
    "goldrates/internal/metals"
)

// TickerConfig controls the all-metals feed client.
type TickerConfig struct {
    Name string
    URL  string
}

// TickerClient fetches the all-metals ticker feed (gold, silver, platinum,
// palladium spot rates with day variation).
type TickerClient struct {
    cfg    TickerConfig
    client *httpx.Client
}

func NewTicker(cfg TickerConfig, hc *httpx.Client) *TickerClient {
    if cfg.Name == "" { cfg.Name = "MetalsTicker" }
    if cfg.URL == "" { cfg.URL = "https://api.metalsticker.example.com/v1/spot" }
    return &TickerClient{cfg: cfg, client: hc}
}

func (t *TickerClient) Name() string { return t.cfg.Name }

type tickerResponse struct {
    Success bool              `json:"success"`
    Data    *metals.AllMetals `json:"data"`
}

// FetchAllMetalPrices retrieves the current spot rates. A non-2xx status or
// a payload without the data envelope is an upstream failure; there are no
// retries.
func (t *TickerClient) FetchAllMetalPrices(ctx context.Context) (metals.AllMetals, error) {
    req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.cfg.URL, http.NoBody)
    if err != nil { return metals.AllMetals{}, err }
    req.Header.Set("Accept", "application/json")

    resp, err := t.client.Do(ctx, req)
    if err != nil {
        return metals.AllMetals{}, fmt.Errorf("%w: %v", metals.ErrUpstream, err)
    }
    defer resp.Body.Close()
    if resp.StatusCode < 200 || resp.StatusCode >= 300 {
        b, _ := io.ReadAll(io.LimitReader(resp.Body, 2<<10))
        return metals.AllMetals{}, fmt.Errorf("%w: GET %s -> %d: %s", metals.ErrUpstream, t.cfg.URL, resp.StatusCode, string(b))
    }

    var body tickerResponse
    if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
        return metals.AllMetals{}, fmt.Errorf("%w: decode: %v", metals.ErrUpstream, err)
    }
    if body.Data == nil {
        return metals.AllMetals{}, fmt.Errorf("%w: missing data envelope", metals.ErrUpstream)
    }
    return *body.Data, nil
}
