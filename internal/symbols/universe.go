package symbols

// Universe represents a predefined watch list for the auto-scanner
type Universe string

const (
	UniverseDefault Universe = "default" // gold + bitcoin
	UniverseMetals  Universe = "metals"
	UniverseCrypto  Universe = "crypto"
	UniverseForex   Universe = "forex"
)

// GetUniverse returns the list of symbols for a given universe
func GetUniverse(u Universe) []string {
	switch u {
	case UniverseDefault, "":
		return DefaultSymbols
	case UniverseMetals:
		return MetalSymbols
	case UniverseCrypto:
		return CryptoSymbols
	case UniverseForex:
		return ForexSymbols
	default:
		return nil
	}
}

// DefaultSymbols is what the auto-scanner watches out of the box
var DefaultSymbols = []string{"XAUUSD", "BTCUSDT"}

// DefaultIntervals are the consensus timeframes, reference (fastest) first
var DefaultIntervals = []string{"1min", "5min", "15min"}

// DefaultInterval is used when a query names no interval
const DefaultInterval = "5min"

// MetalSymbols are spot metals quoted in USD
var MetalSymbols = []string{"XAUUSD", "XAGUSD"}

// CryptoSymbols are Binance USDT pairs
var CryptoSymbols = []string{
	"BTCUSDT", "ETHUSDT", "SOLUSDT", "BNBUSDT", "XRPUSDT",
}

// ForexSymbols are the majors
var ForexSymbols = []string{
	"EURUSD", "GBPUSD", "USDJPY", "USDCHF", "AUDUSD", "USDCAD", "NZDUSD",
}
