package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"

	"sellerpulse/internal/asin"
	"sellerpulse/internal/dates"
	"sellerpulse/internal/logging"
	"sellerpulse/internal/perception"
)

// Preseeded carries fields the caller already resolved, typically from
// explicit request parameters. A preseeded field bypasses extraction for
// that field entirely; it is never treated as a validation failure.
type Preseeded struct {
	DateStart        string // ISO date
	DateEnd          string
	CompareDateStart string
	CompareDateEnd   string
	ASIN             string
}

func (p Preseeded) hasDates() bool {
	return p.DateStart != "" && p.DateEnd != ""
}

func (p Preseeded) hasCompare() bool {
	return p.CompareDateStart != "" && p.CompareDateEnd != ""
}

// Pipeline sequences the end-to-end resolution flow: hardcoded lookup,
// extraction with retries, date resolution, final classification. One
// Pipeline serves concurrent requests; each run owns its ResolvedState.
type Pipeline struct {
	matcher    *HardcodedMatcher
	normalizer *RetryingNormalizer
	logger     *zap.Logger
}

// New assembles a pipeline from its stages.
func New(matcher *HardcodedMatcher, normalizer *RetryingNormalizer) *Pipeline {
	return &Pipeline{
		matcher:    matcher,
		normalizer: normalizer,
		logger:     logging.For(logging.ComponentPipeline),
	}
}

// Run resolves one question into routed, date-resolved state.
//
// The only error returned is ctx.Err() when the caller cancels; every
// internal failure degrades to a usable state with diagnostic fields set.
// On cancellation no partial state is returned.
func (p *Pipeline) Run(ctx context.Context, question string, referenceDate time.Time, pre Preseeded, history []perception.Turn) (*ResolvedState, error) {
	state := &ResolvedState{
		Question:      question,
		ReferenceDate: referenceDate,
	}

	if response, ok := p.matcher.Lookup(question); ok {
		state.Category = CategoryHardcoded
		state.Response = response
		state.NormalizerValid = true
		p.logger.Debug("hardcoded short-circuit", zap.String("question", question))
		return state, nil
	}

	if err := p.normalize(ctx, state, pre, history); err != nil {
		return nil, err
	}

	p.applyPreseeds(state, pre)
	p.resolveDates(state)
	state.Category = Classify(state)

	p.logger.Info("question resolved",
		zap.String("category", string(state.Category)),
		zap.String("date_start", state.DateStart),
		zap.String("date_end", state.DateEnd),
		zap.String("asin", state.ASIN),
		zap.Bool("normalizer_valid", state.NormalizerValid),
		zap.Int("normalizer_retries", state.NormalizerRetries))

	return state, nil
}

// normalize runs extraction unless every extractable field is already
// preseeded by the caller.
func (p *Pipeline) normalize(ctx context.Context, state *ResolvedState, pre Preseeded, history []perception.Turn) error {
	if pre.hasDates() && pre.ASIN != "" {
		state.NormalizerValid = true
		state.Category = CategoryMetricsQuery
		return nil
	}
	return p.normalizer.Normalize(ctx, state, history)
}

// applyPreseeds overrides extracted fields with caller-supplied values.
// Preseeded dates become explicit_date labels; a preseeded identifier is
// still format-checked, since a malformed one must not reach routing.
func (p *Pipeline) applyPreseeds(state *ResolvedState, pre Preseeded) {
	if pre.hasDates() {
		state.DateStartLabel = string(dates.LabelExplicitDate)
		state.DateEndLabel = string(dates.LabelExplicitDate)
		state.ExplicitDateStart = pre.DateStart
		state.ExplicitDateEnd = pre.DateEnd
		state.CustomDaysCount = 0
	}
	if pre.hasCompare() {
		state.CompareDateStartLabel = string(dates.LabelExplicitDate)
		state.CompareDateEndLabel = string(dates.LabelExplicitDate)
		state.ExplicitCompareStart = pre.CompareDateStart
		state.ExplicitCompareEnd = pre.CompareDateEnd
		state.CustomCompareDaysCount = 0
	}
	if pre.ASIN != "" {
		if id, ok := asin.Normalize(pre.ASIN); ok {
			state.ASIN = id
		}
	}
}

// resolveDates turns the symbolic labels into concrete ISO ranges. Start
// and end are resolved independently from their own labels, so a range
// like "from october to december" works endpoint by endpoint.
func (p *Pipeline) resolveDates(state *ResolvedState) {
	cal := dates.NewCalendar(state.ReferenceDate)

	start, end, swapped := p.resolvePair(cal,
		dates.Label(state.DateStartLabel), dates.Label(state.DateEndLabel),
		state.ExplicitDateStart, state.ExplicitDateEnd, state.CustomDaysCount)
	state.DateStart = start
	state.DateEnd = end
	state.DateOrderSwapped = state.DateOrderSwapped || swapped

	if state.CompareDateStartLabel != "" {
		start, end, swapped = p.resolvePair(cal,
			dates.Label(state.CompareDateStartLabel), dates.Label(state.CompareDateEndLabel),
			state.ExplicitCompareStart, state.ExplicitCompareEnd, state.CustomCompareDaysCount)
		state.CompareDateStart = start
		state.CompareDateEnd = end
		state.DateOrderSwapped = state.DateOrderSwapped || swapped
	}
}

// resolvePair resolves one (start, end) label pair, taking the start of
// the start label's range and the end of the end label's range. Reversed
// results are swap-corrected and flagged.
func (p *Pipeline) resolvePair(cal *dates.Calendar, startLabel, endLabel dates.Label,
	explicitStart, explicitEnd string, customDays int) (string, string, bool) {

	start, _, err := cal.Resolve(startLabel, explicitStart, customDays)
	if err != nil {
		p.logger.Warn("start label resolution failed, using default window",
			zap.String("label", string(startLabel)), zap.Error(err))
		start, _, _ = cal.Resolve(dates.LabelDefault, "", 0)
	}
	_, end, err := cal.Resolve(endLabel, explicitEnd, customDays)
	if err != nil {
		p.logger.Warn("end label resolution failed, using default window",
			zap.String("label", string(endLabel)), zap.Error(err))
		_, end, _ = cal.Resolve(dates.LabelDefault, "", 0)
	}

	// ISO dates compare correctly as strings.
	if start > end {
		return end, start, true
	}
	return start, end, false
}
