package render

import "xauron/pkg/model"

type catalog struct {
	welcome, help, working, usage string
	subscribed, unsubscribed      string

	symbol, timeframe, timeframes string
	signal, confidence, quality   string
	confirmations, candleAt       string
	autoSignal, reference         string
	entry, protect, targets       string

	errorFmt, insufficient string
	missingKey, noData     string
	badInterval, badSymbol string

	sides  map[model.Side]string
	labels map[string]string
	values map[string]string
}

var catalogs = map[Lang]catalog{
	PT: {
		welcome: "👋 *Xauron*\n\nDigite um ativo pra eu calcular o sinal em tempo real.\n" +
			"Ex:\n• `XAUUSD`\n• `XAUUSD 5min`\n• `EURUSD 1h`\n\n" +
			"Alertas automáticos ativados. Use /stop para desativar.",
		help: "✅ Use assim:\n• `XAUUSD`\n• `XAUUSD M5`\n• `BTCUSDT 15min`\n\n" +
			"Retorno: Sinal, Confiança, Entrada, Stop, Proteção, TP1/TP2/TP3.\n" +
			"/start ativa alertas automáticos, /stop desativa.",
		working:       "⏳ Pegando candles + calculando sinal…",
		usage:         "Manda só o ativo (ex: `XAUUSD` ou `XAUUSD 5min`).",
		subscribed:    "🔔 Alertas automáticos ativados.",
		unsubscribed:  "🔕 Alertas automáticos desativados.",
		symbol:        "Símbolo",
		timeframe:     "Timeframe",
		timeframes:    "Timeframes",
		signal:        "Sinal",
		confidence:    "Confiança",
		quality:       "Qualidade do setup",
		confirmations: "Confirmações",
		candleAt:      "Último candle:",
		autoSignal:    "Sinal automático",
		reference:     "Plano do timeframe",
		entry:         "Entrada",
		protect:       "Proteção (break-even)",
		targets:       "Alvos",
		errorFmt:      "Deu erro ao analisar `%s` no `%s`.\nMotivo: `%s`",
		insufficient:  "candles insuficientes (precisa %d, recebeu %d)",
		missingKey:    "chave da API de dados não configurada",
		noData:        "o provedor não retornou candles",
		badInterval:   "timeframe inválido (use: %s)",
		badSymbol:     "ativo inválido",
		sides: map[model.Side]string{
			model.SideBuy:  "COMPRA",
			model.SideSell: "VENDA",
			model.SideWait: "AGUARDAR",
		},
		labels: map[string]string{
			"trend":         "Tendência",
			"ema_fast":      "EMA rápida",
			"ema_slow":      "EMA lenta",
			"slope":         "Inclinação",
			"rsi":           "RSI",
			"momentum":      "Momento",
			"recent_high":   "Máxima recente",
			"recent_low":    "Mínima recente",
			"breakout":      "Rompimento",
			"atr":           "ATR",
			"volatility_ok": "Volatilidade ok",
			"displacement":  "Distância da EMA",
			"clean":         "Movimento limpo",
			"vi_plus":       "VI+",
			"vi_minus":      "VI-",
			"vi_spread":     "Separação VI",
			"conf_buy":      "Pontos compra",
			"conf_sell":     "Pontos venda",
			"plan":          "Plano",
		},
		values: map[string]string{
			"up":                    "alta",
			"down":                  "baixa",
			"flat":                  "lateral",
			"buy":                   "compra",
			"sell":                  "venda",
			"neutral":               "neutro",
			"true":                  "sim",
			"false":                 "não",
			"high":                  "Alta",
			"medium":                "Média",
			"low":                   "Baixa",
			"degenerate_volatility": "ATR zero, sem plano",
		},
	},
	EN: {
		welcome: "👋 *Xauron*\n\nSend a symbol and I will compute a live signal.\n" +
			"E.g.:\n• `XAUUSD`\n• `XAUUSD 5min`\n• `EURUSD 1h`\n\n" +
			"Auto alerts enabled. Use /stop to disable.",
		help: "✅ Usage:\n• `XAUUSD`\n• `XAUUSD M5`\n• `BTCUSDT 15min`\n\n" +
			"Reply: Signal, Confidence, Entry, Stop, Protect, TP1/TP2/TP3.\n" +
			"/start enables auto alerts, /stop disables them.",
		working:       "⏳ Fetching candles + computing signal…",
		usage:         "Just send the symbol (e.g. `XAUUSD` or `XAUUSD 5min`).",
		subscribed:    "🔔 Auto alerts enabled.",
		unsubscribed:  "🔕 Auto alerts disabled.",
		symbol:        "Symbol",
		timeframe:     "Timeframe",
		timeframes:    "Timeframes",
		signal:        "Signal",
		confidence:    "Confidence",
		quality:       "Setup quality",
		confirmations: "Confirmations",
		candleAt:      "Last candle:",
		autoSignal:    "Auto signal",
		reference:     "Plan from timeframe",
		entry:         "Entry",
		protect:       "Protect (break-even)",
		targets:       "Targets",
		errorFmt:      "Failed to analyze `%s` on `%s`.\nReason: `%s`",
		insufficient:  "not enough candles (need %d, got %d)",
		missingKey:    "market data API key not configured",
		noData:        "the provider returned no candles",
		badInterval:   "invalid timeframe (use: %s)",
		badSymbol:     "invalid symbol",
		sides: map[model.Side]string{
			model.SideBuy:  "BUY",
			model.SideSell: "SELL",
			model.SideWait: "WAIT",
		},
		labels: map[string]string{
			"trend":         "Trend",
			"ema_fast":      "Fast EMA",
			"ema_slow":      "Slow EMA",
			"slope":         "Slope",
			"rsi":           "RSI",
			"momentum":      "Momentum",
			"recent_high":   "Recent high",
			"recent_low":    "Recent low",
			"breakout":      "Breakout",
			"atr":           "ATR",
			"volatility_ok": "Volatility ok",
			"displacement":  "Distance from EMA",
			"clean":         "Clean move",
			"vi_plus":       "VI+",
			"vi_minus":      "VI-",
			"vi_spread":     "VI spread",
			"conf_buy":      "Buy points",
			"conf_sell":     "Sell points",
			"plan":          "Plan",
		},
		values: map[string]string{
			"up":                    "up",
			"down":                  "down",
			"flat":                  "flat",
			"buy":                   "buy",
			"sell":                  "sell",
			"neutral":               "neutral",
			"true":                  "yes",
			"false":                 "no",
			"high":                  "High",
			"medium":                "Medium",
			"low":                   "Low",
			"degenerate_volatility": "zero ATR, no plan",
		},
	},
}
