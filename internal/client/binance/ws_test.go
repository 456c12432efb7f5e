package binance

import (
	"encoding/json"
	"sort"
	"testing"

	"github.com/shopspring/decimal"
)

func TestBookTickerMid(t *testing.T) {
	tick := BookTicker{
		BidPrice: decimal.NewFromFloat(100.0),
		AskPrice: decimal.NewFromFloat(100.5),
	}
	if got := tick.Mid().InexactFloat64(); got != 100.25 {
		t.Fatalf("mid = %v, want 100.25", got)
	}

	oneSided := BookTicker{BidPrice: decimal.NewFromFloat(100.0)}
	if !oneSided.Mid().IsZero() {
		t.Fatalf("expected zero mid when ask is missing")
	}
}

func TestBookTickerDecodesStreamPayload(t *testing.T) {
	raw := []byte(`{"u":400900217,"s":"BTCUSDT","b":"65000.10","B":"31.21","a":"65000.30","A":"40.66"}`)
	var tick BookTicker
	if err := json.Unmarshal(raw, &tick); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if tick.Symbol != "BTCUSDT" {
		t.Fatalf("unexpected symbol %q", tick.Symbol)
	}
	if tick.Mid().InexactFloat64() != 65000.20 {
		t.Fatalf("unexpected mid %v", tick.Mid())
	}
}

func TestBookTickerAckDecodesEmpty(t *testing.T) {
	raw := []byte(`{"result":null,"id":1}`)
	var tick BookTicker
	_ = json.Unmarshal(raw, &tick)
	if tick.Symbol != "" {
		t.Fatalf("expected empty symbol for ack frame, got %q", tick.Symbol)
	}
}

func TestStreamName(t *testing.T) {
	if got := StreamName(" BTCUSDT "); got != "btcusdt@bookTicker" {
		t.Fatalf("unexpected stream name %q", got)
	}
	if got := StreamName(""); got != "" {
		t.Fatalf("expected empty name for blank symbol, got %q", got)
	}
}

func TestDiffSets(t *testing.T) {
	current := setFromSlice([]string{"btcusdt@bookTicker", "ethusdt@bookTicker"})
	next := setFromSlice([]string{"ethusdt@bookTicker", "solusdt@bookTicker"})
	added, removed := diffSets(current, next)
	sort.Strings(added)
	sort.Strings(removed)
	if len(added) != 1 || added[0] != "solusdt@bookTicker" {
		t.Fatalf("unexpected added %v", added)
	}
	if len(removed) != 1 || removed[0] != "btcusdt@bookTicker" {
		t.Fatalf("unexpected removed %v", removed)
	}
}
