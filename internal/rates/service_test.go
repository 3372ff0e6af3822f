package rates

import (
    "context"
    "encoding/json"
    "errors"
    "sync"
    "sync/atomic"
    "testing"
    "time"

    "goldrates/internal/cache"
    "goldrates/internal/history"
    "goldrates/internal/metals"
)

// fakeGold is a scriptable GoldSource.
type fakeGold struct {
    mu    sync.Mutex
    calls int32
    delay time.Duration
    fail  bool
    rates metals.GoldRates
}

func (f *fakeGold) FetchGoldPrices(_ context.Context, city string) (metals.GoldRates, error) {
    atomic.AddInt32(&f.calls, 1)
    if f.delay > 0 {
        time.Sleep(f.delay)
    }
    f.mu.Lock()
    defer f.mu.Unlock()
    if f.fail {
        return metals.GoldRates{}, errors.New("vendor down")
    }
    return f.rates, nil
}

func (f *fakeGold) setFail(v bool) {
    f.mu.Lock()
    f.fail = v
    f.mu.Unlock()
}

type fakeTicker struct {
    data metals.AllMetals
    err  error
}

func (f *fakeTicker) FetchAllMetalPrices(context.Context) (metals.AllMetals, error) {
    return f.data, f.err
}

func newTestService(src *fakeGold, ttl time.Duration) *Service {
    return NewService(src, &fakeTicker{}, cache.New[metals.CityResponse](ttl, 0), history.NewStore(0))
}

func delhiRates() metals.GoldRates {
    return metals.GoldRates{
        City:      "Delhi",
        Matched:   true,
        Gold24K1G: 6789.456,
        Gold22K1G: 6219.14,
        Silver1G:  91.333,
        GoldTrend: json.RawMessage(`{"direction":"up"}`),
    }
}

func TestCityGold_FreshFetchRoundsAndRecords(t *testing.T) {
    src := &fakeGold{rates: delhiRates()}
    svc := newTestService(src, time.Minute)

    resp, err := svc.CityGold(t.Context(), "delhi")
    if err != nil {
        t.Fatalf("unexpected error: %v", err)
    }
    if resp.Cached {
        t.Fatalf("first fetch must not be cached")
    }
    if *resp.Gold1G != 6789.46 {
        t.Fatalf("gold_1g=%v, want 6789.46 (half-up rounding)", *resp.Gold1G)
    }
    if *resp.Gold10G != 67894.56 {
        t.Fatalf("gold_10g=%v, want 67894.56", *resp.Gold10G)
    }
    if *resp.Gold22K1G != 6219.14 || *resp.Gold22K10G != 62191.4 {
        t.Fatalf("22k fields wrong: %v %v", *resp.Gold22K1G, *resp.Gold22K10G)
    }
    if resp.Silver1G == nil || *resp.Silver1G != 91.33 {
        t.Fatalf("silver_1g=%v, want 91.33", resp.Silver1G)
    }
    if resp.City != "Delhi" {
        t.Fatalf("city=%q", resp.City)
    }
    if svc.history.Len() == 0 {
        t.Fatalf("successful fetch must feed the history series")
    }
}

func TestCityGold_SecondCallWithinTTLHitsCache(t *testing.T) {
    src := &fakeGold{rates: delhiRates()}
    svc := newTestService(src, time.Minute)

    if _, err := svc.CityGold(t.Context(), "delhi"); err != nil {
        t.Fatal(err)
    }
    resp, err := svc.CityGold(t.Context(), "Delhi") // different spelling, same key
    if err != nil {
        t.Fatal(err)
    }
    if !resp.Cached {
        t.Fatalf("second call within TTL must be served from cache")
    }
    if resp.Error != "" {
        t.Fatalf("fresh cache hit must carry no warning, got %q", resp.Error)
    }
    if got := atomic.LoadInt32(&src.calls); got != 1 {
        t.Fatalf("upstream called %d times, want 1", got)
    }
}

func TestCityGold_StaleFallbackOnUpstreamFailure(t *testing.T) {
    src := &fakeGold{rates: delhiRates()}
    svc := newTestService(src, 10*time.Millisecond)

    first, err := svc.CityGold(t.Context(), "delhi")
    if err != nil {
        t.Fatal(err)
    }

    time.Sleep(20 * time.Millisecond) // let the entry expire
    src.setFail(true)

    resp, err := svc.CityGold(t.Context(), "delhi")
    if err != nil {
        t.Fatalf("stale fallback must not error: %v", err)
    }
    if !resp.Cached {
        t.Fatalf("stale payload must be tagged cached")
    }
    if resp.Error == "" {
        t.Fatalf("stale payload must carry a warning")
    }
    if *resp.Gold10G != *first.Gold10G {
        t.Fatalf("stale payload must keep the old prices: %v vs %v", *resp.Gold10G, *first.Gold10G)
    }
    if !resp.UpdatedAt.Equal(first.UpdatedAt) {
        t.Fatalf("stale payload must keep the original updated_at")
    }
}

func TestCityGold_NoCacheFailure(t *testing.T) {
    src := &fakeGold{fail: true}
    svc := newTestService(src, time.Minute)

    resp, err := svc.CityGold(t.Context(), "zz")
    if !errors.Is(err, metals.ErrNoData) {
        t.Fatalf("want ErrNoData, got %v", err)
    }
    if resp.Gold10G != nil || resp.Gold1G != nil {
        t.Fatalf("unavailable payload must have null price fields: %+v", resp)
    }
    if resp.Cached {
        t.Fatalf("unavailable payload must not be tagged cached")
    }
    if resp.Error == "" {
        t.Fatalf("unavailable payload must carry an error message")
    }
    if _, ok := cacheGet(svc, "zz"); ok {
        t.Fatalf("failed fetch must not populate the cache")
    }
}

func cacheGet(s *Service, key string) (metals.CityResponse, bool) {
    return s.cache.Get(key)
}

func TestCityGold_ConcurrentMissesShareOneFetch(t *testing.T) {
    src := &fakeGold{rates: delhiRates(), delay: 30 * time.Millisecond}
    svc := newTestService(src, time.Minute)

    const n = 16
    var wg sync.WaitGroup
    for i := 0; i < n; i++ {
        wg.Add(1)
        go func() {
            defer wg.Done()
            if _, err := svc.CityGold(context.Background(), "delhi"); err != nil {
                t.Errorf("unexpected error: %v", err)
            }
        }()
    }
    wg.Wait()

    if got := atomic.LoadInt32(&src.calls); got != 1 {
        t.Fatalf("upstream called %d times for concurrent misses, want 1", got)
    }
}

func TestCityGold_EmptyCityDefaults(t *testing.T) {
    src := &fakeGold{rates: delhiRates()}
    svc := newTestService(src, time.Minute)

    if _, err := svc.CityGold(t.Context(), "  "); err != nil {
        t.Fatal(err)
    }
    if _, ok := cacheGet(svc, DefaultCity); !ok {
        t.Fatalf("blank city must be cached under %q", DefaultCity)
    }
}

func TestHistoricalPrices_SeedsWhenSparse(t *testing.T) {
    src := &fakeGold{rates: delhiRates()}
    svc := newTestService(src, time.Minute)

    got := svc.HistoricalPrices(t.Context(), 30)
    if len(got) < 7 {
        t.Fatalf("sparse series must be seeded via a live fetch, got %d points", len(got))
    }
    if atomic.LoadInt32(&src.calls) != 1 {
        t.Fatalf("expected exactly one seeding fetch")
    }
}
