package config

import (
    "encoding/json"
    "errors"
    "fmt"
    "os"
    "strings"
)

type Server struct {
    Port              string `json:"port"`
    RequestTimeoutSec int    `json:"request_timeout_sec"`
}

type Gold struct {
    Endpoint              string `json:"endpoint"`
    APIKey                string `json:"api_key"`
    DefaultCity           string `json:"default_city"`
    CacheTTLSec           int    `json:"cache_ttl_sec"`
    CacheMaxKeys          int    `json:"cache_max_keys"`
    MaxRequestsPerMinute  int    `json:"max_requests_per_minute"`
    MinRequestIntervalSec int    `json:"min_request_interval_sec"`
    Burst                 int    `json:"burst"`
}

type Ticker struct {
    Endpoint string `json:"endpoint"`
}

type History struct {
    MaxDays int `json:"max_days"`
}

type Config struct {
    Server  Server  `json:"server"`
    Gold    Gold    `json:"gold"`
    Ticker  Ticker  `json:"ticker"`
    History History `json:"history"`
}

func Default() Config {
    return Config{
        Server: Server{Port: "8080", RequestTimeoutSec: 10},
        Gold: Gold{
            DefaultCity:          "mumbai",
            CacheTTLSec:          600,
            CacheMaxKeys:         512,
            MaxRequestsPerMinute: 30,
            Burst:                5,
        },
        Ticker:  Ticker{},
        History: History{MaxDays: 30},
    }
}

// Load reads JSON config from path. If path is empty or file does not exist,
// it returns defaults. Environment variables override select fields for secrecy.
func Load(path string) (Config, error) {
    cfg := Default()
    if path == "" {
        if _, err := os.Stat("config.json"); err == nil {
            path = "config.json"
        }
    }
    if path != "" {
        b, err := os.ReadFile(path)
        if err != nil && !errors.Is(err, os.ErrNotExist) {
            return cfg, fmt.Errorf("read config: %w", err)
        }
        if err == nil {
            if err := json.Unmarshal(b, &cfg); err != nil {
                return cfg, fmt.Errorf("parse config: %w", err)
            }
        }
    }
    applyEnv(&cfg)
    return cfg, nil
}

func applyEnv(cfg *Config) {
    if v := os.Getenv("PORT"); v != "" { cfg.Server.Port = v }
    if v := os.Getenv("REQUEST_TIMEOUT_SEC"); v != "" {
        var x int; fmt.Sscanf(v, "%d", &x); if x > 0 { cfg.Server.RequestTimeoutSec = x }
    }
    if v := os.Getenv("GOLD_API_KEY"); v != "" { cfg.Gold.APIKey = v }
    if v := os.Getenv("GOLD_ENDPOINT"); v != "" { cfg.Gold.Endpoint = v }
    if v := os.Getenv("GOLD_DEFAULT_CITY"); v != "" { cfg.Gold.DefaultCity = strings.ToLower(v) }
    if v := os.Getenv("GOLD_CACHE_TTL_SEC"); v != "" {
        var x int; fmt.Sscanf(v, "%d", &x); if x > 0 { cfg.Gold.CacheTTLSec = x }
    }
    if v := os.Getenv("GOLD_CACHE_MAX_KEYS"); v != "" {
        var x int; fmt.Sscanf(v, "%d", &x); if x > 0 { cfg.Gold.CacheMaxKeys = x }
    }
    if v := os.Getenv("GOLD_MAX_RPM"); v != "" {
        var x int; fmt.Sscanf(v, "%d", &x); if x >= 0 { cfg.Gold.MaxRequestsPerMinute = x }
    }
    if v := os.Getenv("GOLD_MIN_INTERVAL_SEC"); v != "" {
        var x int; fmt.Sscanf(v, "%d", &x); if x >= 0 { cfg.Gold.MinRequestIntervalSec = x }
    }
    if v := os.Getenv("GOLD_BURST"); v != "" {
        var x int; fmt.Sscanf(v, "%d", &x); if x > 0 { cfg.Gold.Burst = x }
    }
    if v := os.Getenv("TICKER_ENDPOINT"); v != "" { cfg.Ticker.Endpoint = v }
    if v := os.Getenv("HISTORY_MAX_DAYS"); v != "" {
        var x int; fmt.Sscanf(v, "%d", &x); if x > 0 { cfg.History.MaxDays = x }
    }
}
