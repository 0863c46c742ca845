package universe

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Universe is the set of symbols the aggregator and the backfill run over.
//
// File format:
//
//	name: sp500-sample
//	symbols:
//	  - AAPL
//	  - MSFT
type Universe struct {
	Name    string   `yaml:"name"`
	Symbols []string `yaml:"symbols"`
}

// Load reads and validates a universe file.
//
// Symbols are trimmed and upper-cased; duplicates keep their first position.
// An empty symbol list is an error.
func Load(path string) (*Universe, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read universe %s: %w", path, err)
	}
	return Parse(raw)
}

// Parse decodes a universe document.
func Parse(raw []byte) (*Universe, error) {
	var u Universe
	if err := yaml.Unmarshal(raw, &u); err != nil {
		return nil, fmt.Errorf("decode universe: %w", err)
	}
	u.Symbols = Normalize(u.Symbols)
	if len(u.Symbols) == 0 {
		return nil, fmt.Errorf("universe %q has no symbols", u.Name)
	}
	return &u, nil
}

// Normalize trims, upper-cases and de-duplicates symbols, preserving order.
func Normalize(symbols []string) []string {
	seen := make(map[string]struct{}, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
