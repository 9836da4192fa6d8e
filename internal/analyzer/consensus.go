package analyzer

import (
	"context"
	"errors"
	"sync"

	"xauron/pkg/model"
)

// ErrNoIntervals means a consensus was requested over zero timeframes
var ErrNoIntervals = errors.New("no intervals for consensus")

// Consensus reduces per-interval results to one signal. Every frame must
// agree on BUY or every frame on SELL; frames[0] is the reference whose
// plan is emitted. Confidence is the truncated mean of frame confidences.
// It returns nil when there is no agreement or the reference has no plan.
func Consensus(symbol string, frames []model.AnalysisResult) *model.ConsensusSignal {
	if len(frames) == 0 {
		return nil
	}

	side := frames[0].Side
	if side != model.SideBuy && side != model.SideSell {
		return nil
	}

	total := 0
	for _, f := range frames {
		if f.Side != side {
			return nil
		}
		total += f.Confidence
	}

	ref := frames[0]
	if ref.Plan == nil {
		return nil
	}
	plan := *ref.Plan

	return &model.ConsensusSignal{
		Symbol:            symbol,
		Side:              side,
		Confidence:        total / len(frames),
		ReferenceInterval: ref.Interval,
		Plan:              &plan,
		Frames:            frames,
		Timestamp:         ref.Timestamp,
	}
}

// AnalyzeMTF runs the pipeline for every interval concurrently and reduces
// the results. The first interval is the reference. Any frame failure fails
// the whole call; a nil signal with nil error means no consensus.
func (a *Analyzer) AnalyzeMTF(ctx context.Context, symbol string, intervals []string) (*model.ConsensusSignal, []model.AnalysisResult, error) {
	if len(intervals) == 0 {
		return nil, nil, ErrNoIntervals
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	frames := make([]model.AnalysisResult, len(intervals))
	errs := make([]error, len(intervals))

	var wg sync.WaitGroup
	for i, interval := range intervals {
		wg.Add(1)
		go func(i int, interval string) {
			defer wg.Done()
			res, err := a.Analyze(ctx, symbol, interval)
			if err != nil {
				errs[i] = err
				cancel()
				return
			}
			frames[i] = *res
		}(i, interval)
	}
	wg.Wait()

	// report the first failing interval in order, not a cancellation echo
	for _, err := range errs {
		if err != nil && !errors.Is(err, context.Canceled) {
			return nil, nil, err
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, nil, err
	}

	signal := Consensus(symbol, frames)
	if signal != nil {
		a.logger.Info().
			Str("symbol", symbol).
			Str("side", string(signal.Side)).
			Int("confidence", signal.Confidence).
			Msg("consensus")
	}
	return signal, frames, nil
}
