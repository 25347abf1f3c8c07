// Package handlers turns fully-resolved pipeline state into answers.
// Each routing category has one handler; the router dispatches on the
// final category and never re-inspects the question text.
package handlers

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"sellerpulse/internal/logging"
	"sellerpulse/internal/metrics"
	"sellerpulse/internal/pipeline"
)

// Handler answers one category of resolved question.
type Handler interface {
	Handle(ctx context.Context, state *pipeline.ResolvedState) (string, error)
}

// Router dispatches resolved state to the handler for its category.
type Router struct {
	handlers map[pipeline.Category]Handler
	logger   *zap.Logger
}

// NewRouter wires the standard handler set over a metrics client.
func NewRouter(client *metrics.Client) *Router {
	return &Router{
		handlers: map[pipeline.Category]Handler{
			pipeline.CategoryHardcoded:    HardcodedHandler{},
			pipeline.CategoryMetricsQuery: MetricsHandler{Client: client},
			pipeline.CategoryCompareQuery: CompareHandler{Client: client},
			pipeline.CategoryASINProduct:  ProductHandler{Client: client},
			pipeline.CategoryOther:        OtherHandler{},
		},
		logger: logging.For(logging.ComponentPipeline),
	}
}

// Dispatch routes state to its category handler.
func (r *Router) Dispatch(ctx context.Context, state *pipeline.ResolvedState) (string, error) {
	h, ok := r.handlers[state.Category]
	if !ok {
		r.logger.Warn("no handler for category", zap.String("category", string(state.Category)))
		h = OtherHandler{}
	}
	return h.Handle(ctx, state)
}

// HardcodedHandler delivers the canned response the matcher set.
type HardcodedHandler struct{}

func (HardcodedHandler) Handle(_ context.Context, state *pipeline.ResolvedState) (string, error) {
	return state.Response, nil
}

// MetricsHandler answers store-level metric questions for one range.
type MetricsHandler struct {
	Client *metrics.Client
}

func (h MetricsHandler) Handle(ctx context.Context, state *pipeline.ResolvedState) (string, error) {
	s, err := h.Client.RangeMetrics(ctx, metrics.Range{Start: state.DateStart, End: state.DateEnd})
	if err != nil {
		return "", fmt.Errorf("failed to fetch store metrics: %w", err)
	}
	return fmt.Sprintf(
		"Between %s and %s your store made $%.2f in revenue across %d orders (%d units, %.1f%% conversion).",
		state.DateStart, state.DateEnd, s.Revenue, s.Orders, s.UnitsSold, s.ConversionRate*100), nil
}

// CompareHandler answers two-period comparison questions.
type CompareHandler struct {
	Client *metrics.Client
}

func (h CompareHandler) Handle(ctx context.Context, state *pipeline.ResolvedState) (string, error) {
	cmp, err := h.Client.CompareMetrics(ctx,
		metrics.Range{Start: state.DateStart, End: state.DateEnd},
		metrics.Range{Start: state.CompareDateStart, End: state.CompareDateEnd})
	if err != nil {
		return "", fmt.Errorf("failed to fetch comparison metrics: %w", err)
	}

	delta := cmp.Primary.Revenue - cmp.Compare.Revenue
	direction := "up"
	if delta < 0 {
		direction = "down"
		delta = -delta
	}
	return fmt.Sprintf(
		"Revenue for %s to %s was $%.2f, %s $%.2f versus $%.2f for %s to %s.",
		cmp.Primary.Range.Start, cmp.Primary.Range.End, cmp.Primary.Revenue,
		direction, delta,
		cmp.Compare.Revenue, cmp.Compare.Range.Start, cmp.Compare.Range.End), nil
}

// ProductHandler answers questions scoped to one ASIN.
type ProductHandler struct {
	Client *metrics.Client
}

func (h ProductHandler) Handle(ctx context.Context, state *pipeline.ResolvedState) (string, error) {
	s, err := h.Client.ProductMetrics(ctx, state.ASIN,
		metrics.Range{Start: state.DateStart, End: state.DateEnd})
	if err != nil {
		return "", fmt.Errorf("failed to fetch product metrics: %w", err)
	}
	return fmt.Sprintf(
		"%s made $%.2f across %d orders between %s and %s.",
		state.ASIN, s.Revenue, s.Orders, state.DateStart, state.DateEnd), nil
}

// OtherHandler answers recognized but out-of-scope questions.
type OtherHandler struct{}

func (OtherHandler) Handle(_ context.Context, _ *pipeline.ResolvedState) (string, error) {
	return "I can help with your store's sales metrics, product performance, and period comparisons. Could you rephrase your question in those terms?", nil
}
