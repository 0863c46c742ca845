package app

import (
	"testing"

	"github.com/guttosm/marketpulse/config"
	"github.com/guttosm/marketpulse/internal/cache"
	"github.com/guttosm/marketpulse/internal/marketdata"
)

func TestNewSource(t *testing.T) {
	tests := []struct {
		provider string
		csvDir   string
		wantErr  bool
	}{
		{"yahoo", "", false},
		{"financego", "", false},
		{"csv", t.TempDir(), false},
		{"csv", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		cfg := config.Config{MarketData: config.MarketDataConfig{Provider: tt.provider, CSVDir: tt.csvDir}}
		src, err := NewSource(cfg, cache.SystemClock)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("%q: expected error", tt.provider)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%q: %v", tt.provider, err)
		}
		if _, ok := src.(*marketdata.CachedSource); !ok {
			t.Fatalf("%q: source %T is not cached", tt.provider, src)
		}
	}
}
