package history

import (
    "math/rand/v2"
    "sort"
    "sync"
    "time"
)

const (
    // MaxDays is the rolling window the series is trimmed to.
    MaxDays = 30
    // seedDays is how many prior days get synthetic points when the
    // series is too sparse for a chart.
    seedDays = 7
    // seedJitter is the max relative deviation of synthetic points.
    seedJitter = 0.02

    dateLayout = "2006-01-02"
)

// PricePoint is one daily observation of the reference price
// (gold 24k, INR per 10 grams). Synthetic marks seeded chart filler.
type PricePoint struct {
    Date      string    `json:"date"` // YYYY-MM-DD
    Price     float64   `json:"price"`
    Timestamp time.Time `json:"timestamp"`
    Synthetic bool      `json:"synthetic"`
}

// Store keeps a bounded daily price series in memory, ascending by date,
// with at most one point per date. Concurrency-safe.
type Store struct {
    maxDays int
    now     func() time.Time
    jitter  func() float64 // in [-seedJitter, +seedJitter]

    mu     sync.Mutex
    points []PricePoint
}

// NewStore creates an empty Store. Non-positive maxDays falls back to MaxDays.
func NewStore(maxDays int) *Store {
    if maxDays <= 0 {
        maxDays = MaxDays
    }
    return &Store{
        maxDays: maxDays,
        now:     time.Now,
        jitter:  func() float64 { return (rand.Float64()*2 - 1) * seedJitter },
    }
}

// StorePrice records value for today's calendar date. A second call on the
// same date overwrites the first. When the series holds fewer than seedDays
// points it is first seeded with synthetic points around value so charts
// never render nearly empty. The series is kept sorted and trimmed to the
// most recent maxDays entries.
func (s *Store) StorePrice(value float64) {
    s.mu.Lock()
    defer s.mu.Unlock()

    now := s.now()
    today := now.Format(dateLayout)

    if len(s.points) < seedDays {
        s.seedLocked(value, now)
    }

    upserted := false
    for i := range s.points {
        if s.points[i].Date == today {
            s.points[i] = PricePoint{Date: today, Price: value, Timestamp: now}
            upserted = true
            break
        }
    }
    if !upserted {
        s.points = append(s.points, PricePoint{Date: today, Price: value, Timestamp: now})
    }

    sort.Slice(s.points, func(i, j int) bool { return s.points[i].Date < s.points[j].Date })
    if n := len(s.points); n > s.maxDays {
        s.points = append(s.points[:0:0], s.points[n-s.maxDays:]...)
    }
}

// seedLocked fills the seedDays days before today with jittered copies of
// value, skipping dates that already have a point.
func (s *Store) seedLocked(value float64, now time.Time) {
    have := make(map[string]struct{}, len(s.points))
    for _, p := range s.points {
        have[p.Date] = struct{}{}
    }
    for i := seedDays; i >= 1; i-- {
        day := now.AddDate(0, 0, -i)
        date := day.Format(dateLayout)
        if _, ok := have[date]; ok {
            continue
        }
        s.points = append(s.points, PricePoint{
            Date:      date,
            Price:     value * (1 + s.jitter()),
            Timestamp: day,
            Synthetic: true,
        })
    }
}

// GetHistoricalPrices returns the points whose date is on or after
// today minus days.
func (s *Store) GetHistoricalPrices(days int) []PricePoint {
    s.mu.Lock()
    defer s.mu.Unlock()
    cutoff := s.now().AddDate(0, 0, -days).Format(dateLayout)
    out := make([]PricePoint, 0, len(s.points))
    for _, p := range s.points {
        if p.Date >= cutoff {
            out = append(out, p)
        }
    }
    return out
}

// GetAllHistoricalPrices returns a copy of the full series.
func (s *Store) GetAllHistoricalPrices() []PricePoint {
    s.mu.Lock()
    defer s.mu.Unlock()
    return append([]PricePoint(nil), s.points...)
}

// Len returns the number of stored points.
func (s *Store) Len() int {
    s.mu.Lock()
    defer s.mu.Unlock()
    return len(s.points)
}

// Clear empties the series. Reset hook for tests.
func (s *Store) Clear() {
    s.mu.Lock()
    defer s.mu.Unlock()
    s.points = nil
}
