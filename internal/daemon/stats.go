package daemon

import (
	"fmt"
	"sync"
	"time"

	"xauron/pkg/model"
)

// DailyState 일일 스캔 통계
type DailyState struct {
	Date      string    `json:"date"`
	Cycles    int       `json:"cycles"`
	Errors    int       `json:"errors"`
	Signals   int       `json:"signals"`
	Alerts    int       `json:"alerts"`
	Failures  int       `json:"failures"` // per-symbol failures across cycles
	LastScan  time.Time `json:"last_scan"`
	StartTime time.Time `json:"start_time"`
}

// DailyStats counts scan activity and rolls over at UTC midnight
type DailyStats struct {
	mu    sync.RWMutex
	state DailyState
	now   func() time.Time
}

// NewDailyStats 생성자
func NewDailyStats() *DailyStats {
	return &DailyStats{now: time.Now}
}

// ensureDate 날짜가 바뀌면 리셋
func (s *DailyStats) ensureDate(now time.Time) {
	today := now.UTC().Format("2006-01-02")
	if s.state.Date != today {
		s.state = DailyState{Date: today, StartTime: now}
	}
}

// Record adds one completed cycle
func (s *DailyStats) Record(r *model.ScanResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.ensureDate(now)
	s.state.Cycles++
	s.state.Signals += len(r.Signals)
	s.state.Alerts += len(r.Alerts)
	s.state.Failures += len(r.Failures)
	s.state.LastScan = now
}

// RecordError adds one failed cycle
func (s *DailyStats) RecordError() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.ensureDate(now)
	s.state.Cycles++
	s.state.Errors++
	s.state.LastScan = now
}

// GetState 현재 상태 조회
func (s *DailyStats) GetState() DailyState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Report 한 줄 요약
func (s *DailyStats) Report() string {
	st := s.GetState()
	if st.Date == "" {
		return "no scans"
	}
	return fmt.Sprintf("%s: %d cycles (%d errors), %d signals, %d alerts, %d symbol failures, up %s",
		st.Date, st.Cycles, st.Errors, st.Signals, st.Alerts, st.Failures,
		FormatDuration(st.LastScan.Sub(st.StartTime)))
}
