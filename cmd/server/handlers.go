package main

import (
    "context"
    "encoding/json"
    "errors"
    "net/http"
    "strconv"
    "time"

    "goldrates/internal/history"
    "goldrates/internal/metals"
    "goldrates/internal/rates"
)

type allMetalsResponse struct {
    Success   bool              `json:"success"`
    Data      *metals.AllMetals `json:"data,omitempty"`
    UpdatedAt time.Time         `json:"updated_at"`
    Error     string            `json:"error,omitempty"`
}

type historicalResponse struct {
    Success bool                 `json:"success"`
    Data    []history.PricePoint `json:"data"`
    Days    int                  `json:"days"`
    Count   int                  `json:"count"`
}

// handleCityMetals serves the per-city gold payload. The response is always
// JSON: 200 for fresh or stale data, 503 when nothing is available at all.
func handleCityMetals(w http.ResponseWriter, r *http.Request, svc *rates.Service, city string) {
    ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
    defer cancel()

    resp, err := svc.CityGold(ctx, city)
    status := http.StatusOK
    if errors.Is(err, metals.ErrNoData) {
        status = http.StatusServiceUnavailable
    }
    writeJSON(w, status, resp)
}

func handleAllMetals(w http.ResponseWriter, r *http.Request, svc *rates.Service) {
    ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
    defer cancel()

    data, err := svc.AllMetals(ctx)
    now := time.Now().UTC()
    if err != nil {
        writeJSON(w, http.StatusInternalServerError, allMetalsResponse{UpdatedAt: now, Error: err.Error()})
        return
    }
    writeJSON(w, http.StatusOK, allMetalsResponse{Success: true, Data: &data, UpdatedAt: now})
}

func handleHistorical(w http.ResponseWriter, r *http.Request, svc *rates.Service) {
    ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
    defer cancel()

    days := parseDays(r.URL.Query().Get("days"))
    pts := svc.HistoricalPrices(ctx, days)
    writeJSON(w, http.StatusOK, historicalResponse{Success: true, Data: pts, Days: days, Count: len(pts)})
}

// parseDays clamps the days parameter to [1, history.MaxDays]; blank or
// unparseable input means the full window.
func parseDays(raw string) int {
    if raw == "" {
        return history.MaxDays
    }
    n, err := strconv.Atoi(raw)
    if err != nil {
        return history.MaxDays
    }
    if n < 1 {
        return 1
    }
    if n > history.MaxDays {
        return history.MaxDays
    }
    return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
    w.WriteHeader(status)
    enc := json.NewEncoder(w)
    enc.SetEscapeHTML(false)
    enc.Encode(v)
}
