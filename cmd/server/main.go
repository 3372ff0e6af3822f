package main

import (
    "context"
    "log"
    "net/http"
    "os"
    "os/signal"
    "strings"
    "syscall"
    "time"
    "compress/gzip"
    "io"
    "sync"

    "github.com/joho/godotenv"

    "goldrates/internal/cache"
    "goldrates/internal/config"
    "goldrates/internal/history"
    "goldrates/internal/httpx"
    "goldrates/internal/metals"
    "goldrates/internal/rates"
    "goldrates/internal/upstream"
)

func main() {
    _ = godotenv.Load() // ignore error if .env absent

    cfgPath := os.Getenv("CONFIG_FILE")
    cfg, err := config.Load(cfgPath)
    if err != nil { log.Fatalf("config: %v", err) }
    port := cfg.Server.Port

    if cfg.Gold.APIKey == "" {
        log.Println("warning: GOLD_API_KEY not set; using unauthenticated vendor access")
    }

    httpClient := httpx.New(time.Duration(cfg.Server.RequestTimeoutSec) * time.Second)
    httpClient.UserAgent = "gold-rates/1.0"

    goldOpts := []upstream.GoldClientOption{
        upstream.WithHTTPClient(httpClient.HTTP),
        upstream.WithHeader(http.Header{
            "User-Agent": []string{"gold-rates/1.0"},
        }),
    }
    if cfg.Gold.Endpoint != "" {
        goldOpts = append(goldOpts, upstream.WithBaseURL(cfg.Gold.Endpoint))
    }
    goldClient, err := upstream.NewGoldClient(cfg.Gold.APIKey, goldOpts...)
    if err != nil { log.Fatalf("gold client: %v", err) }

    // Prefer token bucket with burst if RPM is set, otherwise use min-interval
    var goldSrc upstream.GoldSource = goldClient
    if cfg.Gold.MaxRequestsPerMinute > 0 {
        rate := float64(cfg.Gold.MaxRequestsPerMinute) / 60.0
        burst := cfg.Gold.Burst
        if burst <= 0 { burst = 1 }
        goldSrc = &upstream.TokenBucketSource{S: goldSrc, TB: upstream.NewTokenBucket(rate, burst)}
    } else if cfg.Gold.MinRequestIntervalSec > 0 {
        interval := time.Duration(cfg.Gold.MinRequestIntervalSec) * time.Second
        goldSrc = &upstream.MinIntervalSource{S: goldSrc, Interval: interval}
    }

    ticker := upstream.NewTicker(upstream.TickerConfig{URL: cfg.Ticker.Endpoint}, httpClient)

    priceCache := cache.New[metals.CityResponse](time.Duration(cfg.Gold.CacheTTLSec)*time.Second, cfg.Gold.CacheMaxKeys)
    series := history.NewStore(cfg.History.MaxDays)

    svc := rates.NewService(goldSrc, ticker, priceCache, series)
    svc.SetDefaultCity(cfg.Gold.DefaultCity)

    mux := http.NewServeMux()
    mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
        w.WriteHeader(http.StatusOK)
        _, _ = w.Write([]byte("ok"))
    })
    mux.HandleFunc("GET /api/metals", func(w http.ResponseWriter, r *http.Request) {
        handleCityMetals(w, r, svc, r.URL.Query().Get("city"))
    })
    mux.HandleFunc("GET /api/metals/all", func(w http.ResponseWriter, r *http.Request) {
        handleAllMetals(w, r, svc)
    })
    mux.HandleFunc("GET /api/metals/{city}", func(w http.ResponseWriter, r *http.Request) {
        handleCityMetals(w, r, svc, r.PathValue("city"))
    })
    mux.HandleFunc("GET /api/historical", func(w http.ResponseWriter, r *http.Request) {
        handleHistorical(w, r, svc)
    })

    srv := &http.Server{
        Addr:              ":" + port,
        Handler:           withJSONHeaders(withGzip(recoverPanic(mux))),
        ReadHeaderTimeout: 5 * time.Second,
        ReadTimeout:       15 * time.Second,
        WriteTimeout:      20 * time.Second,
        IdleTimeout:       60 * time.Second,
    }

    go func() {
        log.Printf("server listening on :%s", port)
        if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
            log.Fatalf("server: %v", err)
        }
    }()

    // graceful shutdown
    ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
    defer stop()
    <-ctx.Done()
    shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
    defer cancel()
    _ = srv.Shutdown(shutdownCtx)
}

func withJSONHeaders(next http.Handler) http.Handler {
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        w.Header().Set("Content-Type", "application/json; charset=utf-8")
        // Basic CORS for browser usage; adjust as needed.
        w.Header().Set("Access-Control-Allow-Origin", "*")
        w.Header().Set("Access-Control-Allow-Methods", "GET,OPTIONS")
        w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
        if r.Method == http.MethodOptions {
            w.WriteHeader(http.StatusNoContent)
            return
        }
        next.ServeHTTP(w, r)
    })
}

// withGzip compresses response when client supports gzip.
func withGzip(next http.Handler) http.Handler {
    var gzPool = sync.Pool{New: func() any {
        // Prefer best speed to reduce CPU usage since payloads are JSON
        w, _ := gzip.NewWriterLevel(io.Discard, gzip.BestSpeed)
        return w
    }}
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
            next.ServeHTTP(w, r)
            return
        }
        gz := gzPool.Get().(*gzip.Writer)
        gz.Reset(w)
        defer func() {
            _ = gz.Close()
            gz.Reset(io.Discard)
            gzPool.Put(gz)
        }()
        w.Header().Set("Content-Encoding", "gzip")
        w.Header().Add("Vary", "Accept-Encoding")
        gw := gzipResponseWriter{ResponseWriter: w, Writer: gz}
        next.ServeHTTP(gw, r)
    })
}

type gzipResponseWriter struct {
    http.ResponseWriter
    Writer io.Writer
}

func (g gzipResponseWriter) Write(b []byte) (int, error) {
    return g.Writer.Write(b)
}

// recoverPanic protects handlers from panics.
func recoverPanic(next http.Handler) http.Handler {
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        defer func() {
            if rec := recover(); rec != nil {
                http.Error(w, "internal server error", http.StatusInternalServerError)
            }
        }()
        next.ServeHTTP(w, r)
    })
}
