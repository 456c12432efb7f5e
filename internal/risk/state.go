package risk

import (
	"sync"
	"time"
)

// State is the mutable risk bookkeeping shared by the gates: the all-time
// balance peak, the current day's open-loss figure and the last entry time
// per asset. It lives in memory only and is rebuilt from persistence on
// startup via Restore.
type State struct {
	mu sync.Mutex

	peakBalance float64

	dailyDay  time.Time
	dailyLoss float64

	lastTrade map[uint64]time.Time
}

func NewState(initialCapital float64) *State {
	return &State{
		peakBalance: initialCapital,
		lastTrade:   map[uint64]time.Time{},
	}
}

// Restore replays persisted history after a restart: the peak only moves up,
// and last-trade times replace the empty map.
func (s *State) Restore(maxBalance float64, lastTrades map[uint64]time.Time) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if maxBalance > s.peakBalance {
		s.peakBalance = maxBalance
	}
	for assetID, at := range lastTrades {
		if assetID == 0 || at.IsZero() {
			continue
		}
		s.lastTrade[assetID] = at.UTC()
	}
}

// ObserveBalance ratchets the peak. The peak never moves down.
func (s *State) ObserveBalance(balance float64) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if balance > s.peakBalance {
		s.peakBalance = balance
	}
}

func (s *State) Peak() float64 {
	if s == nil {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.peakBalance
}

// SetDailyLoss records the open-loss figure computed for the given day.
// The day is truncated to a UTC calendar date.
func (s *State) SetDailyLoss(day time.Time, loss float64) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dailyDay = truncateDay(day)
	s.dailyLoss = loss
}

// DailyLoss returns the cached figure and whether it belongs to the given day.
func (s *State) DailyLoss(day time.Time) (float64, bool) {
	if s == nil {
		return 0, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.dailyDay.Equal(truncateDay(day)) {
		return 0, false
	}
	return s.dailyLoss, true
}

// ResetDaily zeroes the loss figure for a new trading day.
func (s *State) ResetDaily(day time.Time) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dailyDay = truncateDay(day)
	s.dailyLoss = 0
}

func (s *State) RecordTrade(assetID uint64, at time.Time) {
	if s == nil || assetID == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastTrade[assetID] = at.UTC()
}

func (s *State) LastTradeAt(assetID uint64) (time.Time, bool) {
	if s == nil {
		return time.Time{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	at, ok := s.lastTrade[assetID]
	return at, ok
}

// Snapshot is a point-in-time copy for the read API.
type Snapshot struct {
	PeakBalance float64              `json:"peak_balance"`
	DailyDay    time.Time            `json:"daily_day"`
	DailyLoss   float64              `json:"daily_loss"`
	LastTradeAt map[uint64]time.Time `json:"last_trade_at"`
}

func (s *State) Snapshot() Snapshot {
	if s == nil {
		return Snapshot{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := Snapshot{
		PeakBalance: s.peakBalance,
		DailyDay:    s.dailyDay,
		DailyLoss:   s.dailyLoss,
		LastTradeAt: make(map[uint64]time.Time, len(s.lastTrade)),
	}
	for assetID, at := range s.lastTrade {
		out.LastTradeAt[assetID] = at
	}
	return out
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
