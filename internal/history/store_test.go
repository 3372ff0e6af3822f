package history

import (
    "testing"
    "time"
)

// fixedStore returns a Store pinned to base with deterministic jitter.
func fixedStore(base time.Time) *Store {
    s := NewStore(0)
    s.now = func() time.Time { return base }
    s.jitter = func() float64 { return 0 }
    return s
}

func TestStorePrice_SeedsSparseSeries(t *testing.T) {
    base := time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC)
    s := fixedStore(base)

    s.StorePrice(70000)

    all := s.GetAllHistoricalPrices()
    if len(all) != 8 { // 7 synthetic + today's real point
        t.Fatalf("want 8 points after first store, got %d", len(all))
    }
    for i, p := range all[:7] {
        if !p.Synthetic {
            t.Fatalf("point %d (%s) should be synthetic", i, p.Date)
        }
        if p.Price != 70000 { // jitter pinned to 0
            t.Fatalf("point %d price %v, want 70000", i, p.Price)
        }
    }
    last := all[7]
    if last.Synthetic || last.Date != "2025-06-15" || last.Price != 70000 {
        t.Fatalf("unexpected real point: %+v", last)
    }
    // ascending by date
    for i := 1; i < len(all); i++ {
        if all[i-1].Date >= all[i].Date {
            t.Fatalf("series not ascending at %d: %s >= %s", i, all[i-1].Date, all[i].Date)
        }
    }
}

func TestStorePrice_UpsertSameDate(t *testing.T) {
    base := time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC)
    s := fixedStore(base)

    s.StorePrice(70000)
    s.StorePrice(70550)

    count := 0
    for _, p := range s.GetAllHistoricalPrices() {
        if p.Date == "2025-06-15" {
            count++
            if p.Price != 70550 {
                t.Fatalf("second call must win, got %v", p.Price)
            }
            if p.Synthetic {
                t.Fatalf("today's point must not be synthetic")
            }
        }
    }
    if count != 1 {
        t.Fatalf("want exactly one point for today, got %d", count)
    }
}

func TestStorePrice_BoundedWindow(t *testing.T) {
    base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
    s := fixedStore(base)

    for i := 0; i < 40; i++ {
        day := base.AddDate(0, 0, i)
        s.now = func() time.Time { return day }
        s.StorePrice(70000 + float64(i))
    }

    all := s.GetAllHistoricalPrices()
    if len(all) != MaxDays {
        t.Fatalf("want %d points after 40 days, got %d", MaxDays, len(all))
    }
    // The survivors are the 30 most recent dates: day 10 .. day 39.
    if all[0].Date != base.AddDate(0, 0, 10).Format(dateLayout) {
        t.Fatalf("oldest surviving date %s, want %s", all[0].Date, base.AddDate(0, 0, 10).Format(dateLayout))
    }
    if all[len(all)-1].Date != base.AddDate(0, 0, 39).Format(dateLayout) {
        t.Fatalf("newest date %s, want %s", all[len(all)-1].Date, base.AddDate(0, 0, 39).Format(dateLayout))
    }
}

func TestGetHistoricalPrices_FiltersByCutoff(t *testing.T) {
    base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
    s := fixedStore(base)

    for i := 0; i < 20; i++ {
        day := base.AddDate(0, 0, i)
        s.now = func() time.Time { return day }
        s.StorePrice(70000)
    }

    last := base.AddDate(0, 0, 19)
    s.now = func() time.Time { return last }
    got := s.GetHistoricalPrices(5)
    if len(got) != 6 { // today plus the 5 previous days
        t.Fatalf("want 6 points in 5-day window, got %d", len(got))
    }
    for _, p := range got {
        if p.Date < last.AddDate(0, 0, -5).Format(dateLayout) {
            t.Fatalf("point %s older than cutoff", p.Date)
        }
    }
}

func TestGetAllHistoricalPrices_DefensiveCopy(t *testing.T) {
    s := fixedStore(time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC))
    s.StorePrice(70000)

    a := s.GetAllHistoricalPrices()
    a[0].Price = -1
    b := s.GetAllHistoricalPrices()
    if b[0].Price == -1 {
        t.Fatalf("mutating the returned slice must not affect the store")
    }
}

func TestClear(t *testing.T) {
    s := fixedStore(time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC))
    s.StorePrice(70000)
    s.Clear()
    if s.Len() != 0 {
        t.Fatalf("want empty series after Clear, got %d", s.Len())
    }
}
