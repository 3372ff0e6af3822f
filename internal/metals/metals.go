package metals

import (
    "encoding/json"
    "errors"
    "time"
)

// ErrUpstream marks failures talking to a vendor API: transport errors,
// non-2xx statuses, malformed payloads and zero/missing prices.
var ErrUpstream = errors.New("upstream failure")

// ErrNoData means a fetch failed and no cached payload exists for the key.
var ErrNoData = errors.New("no data available")

// GoldRates is the normalized result of one gold-aggregator fetch.
// Prices are INR per gram.
type GoldRates struct {
    City      string  // vendor city key the rates belong to
    Matched   bool    // false when the resolver fell back to another city
    Gold24K1G float64
    Gold22K1G float64
    Silver1G  float64 // 0 when the vendor has no silver rate for the city

    // Auxiliary vendor blobs, passed through untouched for the UI.
    TrendingCities json.RawMessage
    GoldTrend      json.RawMessage
}

// CityResponse is the externally shaped per-city payload. Price fields are
// pointers so an unavailable payload serializes with explicit nulls.
type CityResponse struct {
    City           string          `json:"city"`
    Gold1G         *float64        `json:"gold_1g"`
    Gold10G        *float64        `json:"gold_10g"`
    Gold22K1G      *float64        `json:"gold_22k_1g"`
    Gold22K10G     *float64        `json:"gold_22k_10g"`
    Silver1G       *float64        `json:"silver_1g,omitempty"`
    Cached         bool            `json:"cached"`
    UpdatedAt      time.Time       `json:"updated_at"`
    TrendingCities json.RawMessage `json:"trendingCities,omitempty"`
    GoldTrend      json.RawMessage `json:"goldTrend,omitempty"`
    Error          string          `json:"error,omitempty"`
}

// Ticker is one metal's entry from the all-metals feed.
type Ticker struct {
    Rate          float64 `json:"rate"`
    SellRate      float64 `json:"sellRate"`
    BuyRate       float64 `json:"buyRate"`
    VariationType string  `json:"variationType"` // "up" or "down"
    Variation     float64 `json:"variation"`
}

// AllMetals is the normalized all-metals ticker payload.
type AllMetals struct {
    Gold      Ticker `json:"gold"`
    Silver    Ticker `json:"silver"`
    Platinum  Ticker `json:"platinum"`
    Palladium Ticker `json:"palladium"`
}
