package daemon

import (
	"fmt"
	"time"

	"xauron/internal/symbols"
)

// MarketStatus 마켓 상태
type MarketStatus struct {
	IsOpen     bool
	TimeToOpen time.Duration
	Reason     string // "open", "24/7", "weekend"
}

// GetETLocation US Eastern Time 로케이션
func GetETLocation() *time.Location {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		// Fallback: EST
		loc = time.FixedZone("EST", -5*60*60)
	}
	return loc
}

// GetMarketStatus reports the session for symbol at t. Crypto pairs trade
// around the clock; FX and spot metals close from Friday 17:00 to Sunday
// 17:00 New York time.
func GetMarketStatus(symbol string, t time.Time) MarketStatus {
	if symbols.IsCryptoQuoted(symbol) {
		return MarketStatus{IsOpen: true, Reason: "24/7"}
	}

	loc := GetETLocation()
	now := t.In(loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	rollover := 17 * time.Hour

	var reopen time.Time
	switch now.Weekday() {
	case time.Friday:
		if now.Sub(today) < rollover {
			return MarketStatus{IsOpen: true, Reason: "open"}
		}
		reopen = today.AddDate(0, 0, 2).Add(rollover)
	case time.Saturday:
		reopen = today.AddDate(0, 0, 1).Add(rollover)
	case time.Sunday:
		if now.Sub(today) >= rollover {
			return MarketStatus{IsOpen: true, Reason: "open"}
		}
		reopen = today.Add(rollover)
	default:
		return MarketStatus{IsOpen: true, Reason: "open"}
	}

	return MarketStatus{IsOpen: false, TimeToOpen: reopen.Sub(now), Reason: "weekend"}
}

// IsMarketOpen 마켓 열림 여부
func IsMarketOpen(symbol string, t time.Time) bool {
	return GetMarketStatus(symbol, t).IsOpen
}

// FormatDuration 시간 포맷팅
func FormatDuration(d time.Duration) string {
	if d < 0 {
		return "0s"
	}

	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}
