package upstream

import (
    "context"
    "sync"
    "time"

    "goldrates/internal/metals"
)

// GoldSource is anything that can produce normalized gold rates for a city.
type GoldSource interface {
    FetchGoldPrices(ctx context.Context, city string) (metals.GoldRates, error)
}

// MinIntervalSource wraps a GoldSource and enforces a minimum time between
// upstream calls. Concurrent calls wait until the interval has elapsed since
// the last call, or return early if the context is canceled.
type MinIntervalSource struct {
    S        GoldSource
    Interval time.Duration
    mu       sync.Mutex
    last     time.Time
}

func (m *MinIntervalSource) FetchGoldPrices(ctx context.Context, city string) (metals.GoldRates, error) {
    if m.Interval > 0 {
        m.mu.Lock()
        wait := time.Until(m.last.Add(m.Interval))
        m.mu.Unlock()
        if wait > 0 {
            t := time.NewTimer(wait)
            defer t.Stop()
            select {
            case <-ctx.Done():
                return metals.GoldRates{}, ctx.Err()
            case <-t.C:
            }
        }
    }
    gr, err := m.S.FetchGoldPrices(ctx, city)
    if m.Interval > 0 {
        m.mu.Lock()
        m.last = time.Now()
        m.mu.Unlock()
    }
    return gr, err
}

// TokenBucket provides a stdlib-only token bucket limiter.
// - rate: tokens per second
// - capacity: maximum tokens the bucket can hold (burst)
type TokenBucket struct {
    rate     float64
    capacity float64

    mu     sync.Mutex
    tokens float64
    last   time.Time
}

func NewTokenBucket(tokensPerSecond float64, burst int) *TokenBucket {
    if tokensPerSecond <= 0 { tokensPerSecond = 0.0000001 }
    if burst <= 0 { burst = 1 }
    return &TokenBucket{
        rate:     tokensPerSecond,
        capacity: float64(burst),
        tokens:   float64(burst), // start full to allow an initial burst
        last:     time.Now(),
    }
}

// wait blocks until one token is available or context is canceled.
func (tb *TokenBucket) wait(ctx context.Context) error {
    for {
        tb.mu.Lock()
        now := time.Now()
        // Refill
        elapsed := now.Sub(tb.last).Seconds()
        if elapsed > 0 {
            tb.tokens += elapsed * tb.rate
            if tb.tokens > tb.capacity {
                tb.tokens = tb.capacity
            }
            tb.last = now
        }
        if tb.tokens >= 1 {
            tb.tokens -= 1
            tb.mu.Unlock()
            return nil
        }
        // Need to wait for the remaining fraction
        deficit := 1 - tb.tokens
        tb.mu.Unlock()
        // time needed to accumulate one token
        waitDur := time.Duration(deficit/tb.rate*1e9) * time.Nanosecond
        if waitDur <= 0 { waitDur = time.Millisecond }
        timer := time.NewTimer(waitDur)
        select {
        case <-ctx.Done():
            timer.Stop()
            return ctx.Err()
        case <-timer.C:
        }
    }
}

// TokenBucketSource wraps a GoldSource and gates calls using a token bucket.
type TokenBucketSource struct {
    S  GoldSource
    TB *TokenBucket
}

func (t *TokenBucketSource) FetchGoldPrices(ctx context.Context, city string) (metals.GoldRates, error) {
    if t.TB != nil {
        if err := t.TB.wait(ctx); err != nil { return metals.GoldRates{}, err }
    }
    return t.S.FetchGoldPrices(ctx, city)
}
