package web

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"xauron/internal/indicator"
	"xauron/internal/provider"
	"xauron/internal/strategy"
	"xauron/internal/symbols"
	"xauron/pkg/model"
)

// ConsensusResponse carries the per-frame results even when the frames disagree
type ConsensusResponse struct {
	Symbol    string                 `json:"symbol"`
	Intervals []string               `json:"intervals"`
	Signal    *model.ConsensusSignal `json:"signal"`
	Frames    []model.AnalysisResult `json:"frames"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"strategy": s.analyzer.Strategy().Name(),
	})
}

func (s *Server) handleStrategies(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"active":     s.analyzer.Strategy().Name(),
		"strategies": strategy.AllInfo(),
	})
}

// handleAnalyze runs one timeframe: GET /api/analyze/:symbol?interval=5min
func (s *Server) handleAnalyze(c *gin.Context) {
	symbol, err := symbols.NormalizeSymbol(c.Param("symbol"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	interval := c.DefaultQuery("interval", s.opts.DefaultInterval)
	if interval, err = symbols.NormalizeInterval(interval); err != nil {
		abortWithError(c, err)
		return
	}

	res, err := s.analyzer.Analyze(c.Request.Context(), symbol, interval)
	if err != nil {
		s.logger.Warn().Err(err).Str("symbol", symbol).Str("interval", interval).Msg("analyze failed")
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// handleConsensus runs the multi-timeframe check:
// GET /api/consensus/:symbol?intervals=1min,5min,15min
func (s *Server) handleConsensus(c *gin.Context) {
	symbol, err := symbols.NormalizeSymbol(c.Param("symbol"))
	if err != nil {
		abortWithError(c, err)
		return
	}

	intervals := s.opts.Intervals
	if raw := c.Query("intervals"); raw != "" {
		intervals = nil
		for _, part := range strings.Split(raw, ",") {
			iv, err := symbols.NormalizeInterval(part)
			if err != nil {
				abortWithError(c, err)
				return
			}
			intervals = append(intervals, iv)
		}
	}

	sig, frames, err := s.analyzer.AnalyzeMTF(c.Request.Context(), symbol, intervals)
	if err != nil {
		s.logger.Warn().Err(err).Str("symbol", symbol).Strs("intervals", intervals).Msg("consensus failed")
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, ConsensusResponse{
		Symbol:    symbol,
		Intervals: intervals,
		Signal:    sig,
		Frames:    frames,
	})
}

// abortWithError maps engine and provider errors to HTTP statuses
func abortWithError(c *gin.Context, err error) {
	status, code := http.StatusInternalServerError, "internal_error"

	var pe *provider.ProviderError
	switch {
	case errors.Is(err, symbols.ErrInvalidSymbol):
		status, code = http.StatusBadRequest, "invalid_symbol"
	case errors.Is(err, symbols.ErrInvalidInterval):
		status, code = http.StatusBadRequest, "invalid_interval"
	case errors.Is(err, indicator.ErrInsufficientData):
		status, code = http.StatusUnprocessableEntity, "insufficient_data"
	case errors.Is(err, provider.ErrMissingAPIKey):
		status, code = http.StatusServiceUnavailable, "provider_not_configured"
	case errors.Is(err, provider.ErrNoData):
		status, code = http.StatusNotFound, "no_data"
	case errors.As(err, &pe):
		status, code = http.StatusBadGateway, "provider_error"
	}

	body := gin.H{"error": code, "message": err.Error()}
	var ae *strategy.AnalysisError
	if errors.As(err, &ae) {
		body["symbol"] = ae.Symbol
		body["interval"] = ae.Interval
	}
	c.AbortWithStatusJSON(status, body)
}
