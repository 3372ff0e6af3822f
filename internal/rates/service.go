package rates

import (
    "context"
    "fmt"
    "strings"
    "time"

    "github.com/shopspring/decimal"
    "golang.org/x/sync/singleflight"

    "goldrates/internal/cache"
    "goldrates/internal/history"
    "goldrates/internal/metals"
    "goldrates/internal/upstream"
)

// DefaultCity answers requests that do not name a city.
const DefaultCity = "mumbai"

// TickerSource is anything that can produce the all-metals spot payload.
type TickerSource interface {
    FetchAllMetalPrices(ctx context.Context) (metals.AllMetals, error)
}

// Service assembles the per-city price payload: resolver -> cache ->
// upstream -> history, with stale-cache fallback when the upstream fails.
// One instance per process; created at startup, shared by all requests.
type Service struct {
    gold        upstream.GoldSource
    ticker      TickerSource
    cache       *cache.Cache[metals.CityResponse]
    history     *history.Store
    defaultCity string
    sf          singleflight.Group
    now         func() time.Time
}

func NewService(gold upstream.GoldSource, ticker TickerSource, c *cache.Cache[metals.CityResponse], h *history.Store) *Service {
    return &Service{gold: gold, ticker: ticker, cache: c, history: h, defaultCity: DefaultCity, now: time.Now}
}

// SetDefaultCity overrides the city used when seeding the history series.
func (s *Service) SetDefaultCity(city string) {
    if strings.TrimSpace(city) != "" {
        s.defaultCity = CacheKey(city)
    }
}

// CacheKey canonicalizes a user-supplied city token into the cache key.
// Empty input maps to DefaultCity.
func CacheKey(city string) string {
    key := strings.ToLower(strings.TrimSpace(city))
    if key == "" {
        return DefaultCity
    }
    return key
}

// CityGold returns the price payload for city.
//
// Fresh cache entries are served as-is with cached=true. On a miss or stale
// entry one upstream fetch runs per key (concurrent misses share it); on
// success the payload is recorded in the history series and written through
// the cache. If the fetch fails the last cached payload is served stale with
// a warning, and when no cached payload exists the returned error wraps
// metals.ErrNoData and the payload carries null price fields.
func (s *Service) CityGold(ctx context.Context, city string) (metals.CityResponse, error) {
    key := CacheKey(city)

    if s.cache.IsValid(key) {
        resp, _ := s.cache.Get(key)
        resp.Cached = true
        return resp, nil
    }

    v, err, _ := s.sf.Do(key, func() (any, error) {
        return s.refresh(ctx, key)
    })
    if err == nil {
        return v.(metals.CityResponse), nil
    }

    if stale, ok := s.cache.Get(key); ok {
        stale.Cached = true
        stale.Error = "live price data is currently unavailable; serving last known prices"
        return stale, nil
    }

    resp := metals.CityResponse{
        City:      key,
        Cached:    false,
        UpdatedAt: s.now().UTC(),
        Error:     fmt.Sprintf("no price data available for %q", key),
    }
    return resp, fmt.Errorf("%w: %v", metals.ErrNoData, err)
}

// refresh performs one upstream fetch for key and writes the result through
// the history store and the cache.
func (s *Service) refresh(ctx context.Context, key string) (metals.CityResponse, error) {
    gr, err := s.gold.FetchGoldPrices(ctx, key)
    if err != nil {
        return metals.CityResponse{}, err
    }

    gold1g := round2(gr.Gold24K1G)
    gold10g := gram10(gr.Gold24K1G)
    gold22k1g := round2(gr.Gold22K1G)
    gold22k10g := gram10(gr.Gold22K1G)

    resp := metals.CityResponse{
        City:           gr.City,
        Gold1G:         &gold1g,
        Gold10G:        &gold10g,
        Gold22K1G:      &gold22k1g,
        Gold22K10G:     &gold22k10g,
        Cached:         false,
        UpdatedAt:      s.now().UTC(),
        TrendingCities: gr.TrendingCities,
        GoldTrend:      gr.GoldTrend,
    }
    if gr.Silver1G > 0 {
        silver := round2(gr.Silver1G)
        resp.Silver1G = &silver
    }

    s.history.StorePrice(gold10g)
    s.cache.Set(key, resp)
    return resp, nil
}

// AllMetals returns the all-metals ticker payload. Failures propagate; the
// payload is not cached.
func (s *Service) AllMetals(ctx context.Context) (metals.AllMetals, error) {
    return s.ticker.FetchAllMetalPrices(ctx)
}

// HistoricalPrices returns the chart series for the last days days. A nearly
// empty series triggers one best-effort default-city fetch first so the
// chart is never blank.
func (s *Service) HistoricalPrices(ctx context.Context, days int) []history.PricePoint {
    if s.history.Len() < 2 {
        _, _ = s.CityGold(ctx, s.defaultCity)
    }
    return s.history.GetHistoricalPrices(days)
}

// round2 rounds to two decimal places, half up.
func round2(v float64) float64 {
    f, _ := decimal.NewFromFloat(v).Round(2).Float64()
    return f
}

// gram10 converts a per-gram price to the 10-gram figure.
func gram10(v float64) float64 {
    f, _ := decimal.NewFromFloat(v).Mul(decimal.NewFromInt(10)).Round(2).Float64()
    return f
}
