package pipeline

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"sellerpulse/internal/asin"
	"sellerpulse/internal/dates"
	"sellerpulse/internal/logging"
	"sellerpulse/internal/perception"
)

// MaxAttempts is the total number of extraction attempts, including the
// first one.
const MaxAttempts = 3

// normalizerPhase is the retry loop state. The loop is written as an
// explicit state machine so the exhaustion path is testable in isolation.
type normalizerPhase int

const (
	phaseAttempting normalizerPhase = iota
	phaseValid
	phaseExhausted
)

// RetryingNormalizer drives the bounded retry loop around a fallible
// Extractor, validating each attempt and feeding violations back into the
// next one. Exhausted retries fall back to safe defaults rather than
// failing the pipeline.
type RetryingNormalizer struct {
	extractor      perception.Extractor
	attemptTimeout time.Duration
	logger         *zap.Logger
}

// NewRetryingNormalizer builds a normalizer. attemptTimeout bounds a
// single extraction attempt; zero means no per-attempt bound. A timed-out
// attempt consumes one retry.
func NewRetryingNormalizer(extractor perception.Extractor, attemptTimeout time.Duration) *RetryingNormalizer {
	return &RetryingNormalizer{
		extractor:      extractor,
		attemptTimeout: attemptTimeout,
		logger:         logging.For(logging.ComponentPipeline),
	}
}

// Normalize fills the label, identifier, and provisional category fields
// of state. It returns an error only when ctx itself is cancelled; every
// other failure mode degrades to defaults with NormalizerValid = false.
func (n *RetryingNormalizer) Normalize(ctx context.Context, state *ResolvedState, history []perception.Turn) error {
	phase := phaseAttempting
	feedback := ""
	var lastGood *perception.Extraction

	for attempt := 1; phase == phaseAttempting; attempt++ {
		ext, err := n.attempt(ctx, perception.Request{
			Question:      state.Question,
			ReferenceDate: state.ReferenceDate,
			History:       history,
			Feedback:      feedback,
		})
		if ctx.Err() != nil {
			return ctx.Err()
		}

		var violations []string
		if err != nil {
			violations = []string{"extraction attempt failed: " + err.Error()}
		} else {
			violations = validateExtraction(ext)
		}

		if len(violations) == 0 {
			lastGood = ext
			phase = phaseValid
			break
		}

		feedback = appendFeedback(feedback, violations)
		state.NormalizerRetries = attempt
		n.logger.Debug("extraction attempt invalid",
			zap.Int("attempt", attempt),
			zap.Strings("violations", violations))

		if attempt >= MaxAttempts {
			phase = phaseExhausted
		}
	}

	state.NormalizerFeedback = feedback

	if phase == phaseExhausted {
		n.applyFallback(state)
		n.logger.Warn("extraction retries exhausted, falling back to defaults",
			zap.String("question", state.Question))
		return nil
	}

	n.apply(state, lastGood)
	state.NormalizerValid = true
	return nil
}

// attempt runs a single extraction with the per-attempt timeout applied.
func (n *RetryingNormalizer) attempt(ctx context.Context, req perception.Request) (*perception.Extraction, error) {
	if n.attemptTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.attemptTimeout)
		defer cancel()
	}
	return n.extractor.Extract(ctx, req)
}

// apply copies a validated extraction into the state, resolving the
// identifier on the way. A malformed identifier is dropped to absent,
// never surfaced as an error; when the extractor's candidate fails, the
// raw question text is scanned as a fallback.
func (n *RetryingNormalizer) apply(state *ResolvedState, ext *perception.Extraction) {
	state.DateStartLabel = string(ext.DateStartLabel)
	state.DateEndLabel = string(ext.DateEndLabel)
	state.CompareDateStartLabel = string(ext.CompareDateStartLabel)
	state.CompareDateEndLabel = string(ext.CompareDateEndLabel)
	state.ExplicitDateStart = ext.ExplicitDateStart
	state.ExplicitDateEnd = ext.ExplicitDateEnd
	state.ExplicitCompareStart = ext.ExplicitCompareStart
	state.ExplicitCompareEnd = ext.ExplicitCompareEnd
	state.CustomDaysCount = ext.CustomDaysCount
	state.CustomCompareDaysCount = ext.CustomCompareDaysCount

	if id, ok := asin.Normalize(ext.ASIN); ok {
		state.ASIN = id
	} else if id, ok := asin.FromText(state.Question); ok {
		state.ASIN = id
	}

	category := Category(ext.Category)
	if !category.Valid() || category == CategoryHardcoded {
		category = CategoryMetricsQuery
	}
	state.Category = category
}

// applyFallback sets the fail-open defaults after retry exhaustion.
func (n *RetryingNormalizer) applyFallback(state *ResolvedState) {
	state.DateStartLabel = string(dates.LabelDefault)
	state.DateEndLabel = string(dates.LabelDefault)
	state.CompareDateStartLabel = ""
	state.CompareDateEndLabel = ""
	state.ASIN = ""
	state.CustomDaysCount = 0
	state.Category = CategoryMetricsQuery
	state.NormalizerValid = false
}

func appendFeedback(feedback string, violations []string) string {
	joined := "- " + strings.Join(violations, "\n- ")
	if feedback == "" {
		return joined
	}
	return feedback + "\n" + joined
}
