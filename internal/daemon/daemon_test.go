package daemon

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"xauron/internal/scanner"
	"xauron/pkg/model"
)

type fakeScanner struct {
	mu      sync.Mutex
	calls   int
	fail    bool
	session scanner.SessionFilter
}

func (f *fakeScanner) Scan(ctx context.Context) (*model.ScanResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.fail {
		return nil, errors.New("boom")
	}
	return &model.ScanResult{
		TotalScanned: 2,
		Signals:      []model.ConsensusSignal{{Symbol: "XAUUSD", Side: model.SideBuy}},
		Alerts:       []model.Alert{{ID: "a"}},
		Failures:     map[string]string{"BTCUSDT": "timeout"},
	}, nil
}

func (f *fakeScanner) SetSessionFilter(fn scanner.SessionFilter) {
	f.session = fn
}

func (f *fakeScanner) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestDaemonRun(t *testing.T) {
	fs := &fakeScanner{}
	d := NewDaemon(Config{ScanInterval: 10 * time.Millisecond, SessionAware: true}, fs, zerolog.Nop())

	if fs.session == nil {
		t.Error("Session-aware daemon should install a session filter")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 55*time.Millisecond)
	defer cancel()

	if err := d.Run(ctx); err != nil {
		t.Fatalf("Run should stop cleanly, got %v", err)
	}

	calls := fs.count()
	if calls < 3 {
		t.Errorf("Expected immediate scan plus ticks, got %d calls", calls)
	}

	st := d.Stats().GetState()
	if st.Cycles != calls || st.Signals != calls || st.Alerts != calls || st.Failures != calls {
		t.Errorf("Stats out of sync with %d cycles: %+v", calls, st)
	}
}

func TestDaemonSurvivesFailedCycles(t *testing.T) {
	fs := &fakeScanner{fail: true}
	d := NewDaemon(Config{ScanInterval: 5 * time.Millisecond}, fs, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	d.Run(ctx)

	st := d.Stats().GetState()
	if st.Errors < 2 || st.Errors != st.Cycles {
		t.Errorf("Expected repeated failed cycles, got %+v", st)
	}
	if fs.session != nil {
		t.Error("Session filter should not be installed when disabled")
	}
}

func TestGetMarketStatus(t *testing.T) {
	et := GetETLocation()

	tests := []struct {
		name   string
		symbol string
		at     time.Time
		open   bool
		reason string
	}{
		{"crypto on saturday", "BTCUSDT", time.Date(2024, 1, 20, 12, 0, 0, 0, et), true, "24/7"},
		{"gold on wednesday", "XAUUSD", time.Date(2024, 1, 17, 3, 0, 0, 0, et), true, "open"},
		{"gold friday before close", "XAUUSD", time.Date(2024, 1, 19, 16, 59, 0, 0, et), true, "open"},
		{"gold friday after close", "XAUUSD", time.Date(2024, 1, 19, 17, 0, 0, 0, et), false, "weekend"},
		{"forex saturday", "EURUSD", time.Date(2024, 1, 20, 9, 0, 0, 0, et), false, "weekend"},
		{"forex sunday before open", "EURUSD", time.Date(2024, 1, 21, 16, 0, 0, 0, et), false, "weekend"},
		{"forex sunday after open", "EURUSD", time.Date(2024, 1, 21, 17, 30, 0, 0, et), true, "open"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := GetMarketStatus(tt.symbol, tt.at)
			if st.IsOpen != tt.open || st.Reason != tt.reason {
				t.Errorf("Expected open=%v/%s, got %+v", tt.open, tt.reason, st)
			}
		})
	}

	st := GetMarketStatus("XAUUSD", time.Date(2024, 1, 19, 18, 0, 0, 0, et))
	if st.TimeToOpen != 47*time.Hour {
		t.Errorf("Expected 47h to reopen, got %v", st.TimeToOpen)
	}
}

func TestDailyStatsRollover(t *testing.T) {
	s := NewDailyStats()
	now := time.Date(2024, 1, 15, 23, 59, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	s.Record(&model.ScanResult{Signals: []model.ConsensusSignal{{}}})
	s.RecordError()
	if st := s.GetState(); st.Cycles != 2 || st.Errors != 1 || st.Signals != 1 {
		t.Errorf("Unexpected state %+v", st)
	}

	now = now.Add(2 * time.Minute)
	s.Record(&model.ScanResult{})
	if st := s.GetState(); st.Date != "2024-01-16" || st.Cycles != 1 {
		t.Errorf("Expected rollover, got %+v", st)
	}
}

func TestFormatDuration(t *testing.T) {
	tests := map[time.Duration]string{
		-time.Second:                 "0s",
		45 * time.Minute:             "45m",
		47*time.Hour + 5*time.Minute: "47h 5m",
	}
	for d, want := range tests {
		if got := FormatDuration(d); got != want {
			t.Errorf("FormatDuration(%v): expected %s, got %s", d, want, got)
		}
	}
}
