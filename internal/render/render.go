// Package render turns engine output into localized chat and console text.
package render

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"xauron/internal/indicator"
	"xauron/internal/provider"
	"xauron/internal/strategy"
	"xauron/internal/symbols"
	"xauron/pkg/model"
)

// Lang is a message language
type Lang string

const (
	PT Lang = "pt"
	EN Lang = "en"
)

// ParseLang maps a config value to a language, defaulting to Portuguese
func ParseLang(s string) Lang {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "en", "en-us", "english":
		return EN
	default:
		return PT
	}
}

var hundred = decimal.NewFromInt(100)

// Price formats with 2 decimals at or above 100 (gold, indices, BTC) and
// 5 below (FX)
func Price(x float64) string {
	d := decimal.NewFromFloat(x)
	if d.Abs().GreaterThanOrEqual(hundred) {
		return d.StringFixed(2)
	}
	return d.StringFixed(5)
}

// Renderer produces Telegram-flavoured Markdown in one language
type Renderer struct {
	lang Lang
	text catalog
}

// New creates a renderer
func New(lang Lang) *Renderer {
	if lang != EN {
		lang = PT
	}
	return &Renderer{lang: lang, text: catalogs[lang]}
}

// Lang returns the renderer language
func (r *Renderer) Lang() Lang {
	return r.lang
}

func (r *Renderer) Welcome() string      { return r.text.welcome }
func (r *Renderer) Help() string         { return r.text.help }
func (r *Renderer) Working() string      { return r.text.working }
func (r *Renderer) Usage() string        { return r.text.usage }
func (r *Renderer) Subscribed() string   { return r.text.subscribed }
func (r *Renderer) Unsubscribed() string { return r.text.unsubscribed }

// Side localizes a side
func (r *Renderer) Side(s model.Side) string {
	return r.text.sides[s]
}

// Label returns the localized label of a reason key
func (r *Renderer) Label(key string) string {
	if l, ok := r.text.labels[key]; ok {
		return l
	}
	return key
}

// Value localizes reason values that are words (up/down, true/false, quality)
func (r *Renderer) Value(v string) string {
	if l, ok := r.text.values[v]; ok {
		return l
	}
	return v
}

// Result renders a single-timeframe analysis
func (r *Renderer) Result(res *model.AnalysisResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "📌 *Xauron — %s*\n", res.Strategy)
	fmt.Fprintf(&b, "• %s: *%s*\n", r.text.symbol, res.Symbol)
	fmt.Fprintf(&b, "• %s: *%s*\n\n", r.text.timeframe, res.Interval)

	fmt.Fprintf(&b, "%s *%s:* *%s*\n", sideIcon(res.Side), r.text.signal, r.Side(res.Side))
	fmt.Fprintf(&b, "📊 *%s:* `%d%%`\n", r.text.confidence, res.Confidence)

	if res.Plan != nil {
		b.WriteString("\n")
		r.writePlan(&b, res.Plan)
	}

	if q, ok := res.Reason("quality"); ok {
		fmt.Fprintf(&b, "\n📈 *%s:* *%s*\n", r.text.quality, r.Value(q))
	}

	fmt.Fprintf(&b, "\n🔎 *%s*\n", r.text.confirmations)
	for _, reason := range res.Reasons {
		if reason.Key == "quality" {
			continue
		}
		fmt.Fprintf(&b, "• %s: `%s`\n", r.Label(reason.Key), r.Value(reason.Value))
	}

	fmt.Fprintf(&b, "\n_%s %s UTC_", r.text.candleAt, res.Timestamp.UTC().Format("2006-01-02 15:04"))
	return b.String()
}

// Signal renders a consensus alert
func (r *Renderer) Signal(sig *model.ConsensusSignal) string {
	var b strings.Builder

	fmt.Fprintf(&b, "🧠 *Xauron — %s*\n\n", r.text.autoSignal)
	fmt.Fprintf(&b, "• %s: *%s*\n", r.text.symbol, sig.Symbol)
	fmt.Fprintf(&b, "%s *%s:* *%s*\n", sideIcon(sig.Side), r.text.signal, r.Side(sig.Side))
	fmt.Fprintf(&b, "📊 *%s:* `%d%%`\n", r.text.confidence, sig.Confidence)

	frames := make([]string, len(sig.Frames))
	for i, f := range sig.Frames {
		frames[i] = fmt.Sprintf("%s %d%%", f.Interval, f.Confidence)
	}
	fmt.Fprintf(&b, "⏱ *%s:* `%s`\n\n", r.text.timeframes, strings.Join(frames, " | "))

	if sig.Plan != nil {
		r.writePlan(&b, sig.Plan)
	}

	fmt.Fprintf(&b, "\n_%s %s (%s)_", r.text.reference, sig.ReferenceInterval, sig.Timestamp.UTC().Format(time.DateTime))
	return b.String()
}

func (r *Renderer) writePlan(b *strings.Builder, p *model.TradePlan) {
	fmt.Fprintf(b, "🎯 *%s:* `%s`\n", r.text.entry, Price(p.Entry))
	fmt.Fprintf(b, "🛡 *Stop:* `%s`\n", Price(p.Stop))
	fmt.Fprintf(b, "🔒 *%s:* `%s`\n\n", r.text.protect, Price(p.Protect))
	fmt.Fprintf(b, "🏁 *%s*\n", r.text.targets)
	fmt.Fprintf(b, "• TP1: `%s`\n", Price(p.TP1))
	fmt.Fprintf(b, "• TP2: `%s`\n", Price(p.TP2))
	fmt.Fprintf(b, "• TP3: `%s`\n", Price(p.TP3))
}

// Error renders a failed query with its symbol, interval and a readable reason
func (r *Renderer) Error(symbol, interval string, err error) string {
	var ae *strategy.AnalysisError
	if errors.As(err, &ae) {
		symbol, interval = ae.Symbol, ae.Interval
	}
	return fmt.Sprintf(r.text.errorFmt, symbol, interval, r.Cause(err))
}

// Cause explains err without Go error chains where a friendlier text exists
func (r *Renderer) Cause(err error) string {
	var ide *indicator.InsufficientDataError
	var pe *provider.ProviderError
	switch {
	case errors.As(err, &ide):
		return fmt.Sprintf(r.text.insufficient, ide.Need, ide.Got)
	case errors.Is(err, provider.ErrMissingAPIKey):
		return r.text.missingKey
	case errors.Is(err, provider.ErrNoData):
		return r.text.noData
	case errors.Is(err, symbols.ErrInvalidInterval):
		return fmt.Sprintf(r.text.badInterval, strings.Join(symbols.Intervals(), ", "))
	case errors.Is(err, symbols.ErrInvalidSymbol):
		return r.text.badSymbol
	case errors.As(err, &pe):
		return pe.Error()
	default:
		return err.Error()
	}
}

func sideIcon(s model.Side) string {
	switch s {
	case model.SideBuy:
		return "🟢"
	case model.SideSell:
		return "🔴"
	default:
		return "⏸"
	}
}
