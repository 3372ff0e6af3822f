package upstream

import (
    "sort"
    "strings"
)

// Resolution is the outcome of a city lookup. Matched is false when the
// input could not be found and Key holds a fallback city instead.
type Resolution struct {
    Key     string
    Matched bool
}

// fallbackCities is probed in order when nothing matches the input.
var fallbackCities = []string{
    "Mumbai", "Delhi", "Chennai", "Kolkata", "Bangalore", "Hyderabad", "Pune",
}

// ResolveCity maps a free-form city token onto a key of the vendor's city
// map. It tries an ordered list of spelling variations, then a normalized
// scan over all keys, then the fixed fallback list, and finally the first
// key in sorted order. It never fails as long as cities is non-empty; the
// caller learns about fallback through Resolution.Matched.
func ResolveCity(cities map[string]CityRate, input string) Resolution {
    if len(cities) == 0 {
        return Resolution{}
    }

    for _, v := range variations(input) {
        if _, ok := cities[v]; ok {
            return Resolution{Key: v, Matched: true}
        }
    }

    // Case/spacing-insensitive scan. Sorted keys keep ties deterministic.
    keys := sortedKeys(cities)
    want := normalizeToken(input)
    if want != "" {
        for _, k := range keys {
            if normalizeToken(k) == want {
                return Resolution{Key: k, Matched: true}
            }
        }
    }

    // The priority probe tolerates the same spelling drift as the scan:
    // a vendor that lowercases its keys still hits the priority list.
    for _, fb := range fallbackCities {
        fbNorm := normalizeToken(fb)
        for _, k := range keys {
            if normalizeToken(k) == fbNorm {
                return Resolution{Key: k}
            }
        }
    }
    return Resolution{Key: keys[0]}
}

// variations builds the ordered probe list for input: the original spelling,
// hyphens as spaces, hyphens stripped, spaces as hyphens, each also
// lowercased and title-cased.
func variations(input string) []string {
    in := strings.TrimSpace(input)
    forms := []string{
        in,
        strings.ReplaceAll(in, "-", " "),
        strings.ReplaceAll(in, "-", ""),
        strings.ReplaceAll(in, " ", "-"),
    }
    seen := make(map[string]struct{}, len(forms)*3)
    out := make([]string, 0, len(forms)*3)
    add := func(s string) {
        if s == "" {
            return
        }
        if _, dup := seen[s]; !dup {
            seen[s] = struct{}{}
            out = append(out, s)
        }
    }
    for _, f := range forms {
        add(f)
        add(strings.ToLower(f))
        add(titleWords(f))
    }
    return out
}

// normalizeToken lowercases and strips separators for fuzzy comparison.
func normalizeToken(s string) string {
    s = strings.ToLower(strings.TrimSpace(s))
    s = strings.ReplaceAll(s, "-", "")
    s = strings.ReplaceAll(s, " ", "")
    return s
}

// titleWords upper-cases the first letter of each space-separated word.
func titleWords(s string) string {
    words := strings.Fields(strings.ToLower(s))
    for i, w := range words {
        words[i] = strings.ToUpper(w[:1]) + w[1:]
    }
    return strings.Join(words, " ")
}

func sortedKeys(cities map[string]CityRate) []string {
    keys := make([]string, 0, len(cities))
    for k := range cities {
        keys = append(keys, k)
    }
    sort.Strings(keys)
    return keys
}
