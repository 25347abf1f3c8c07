package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sellerpulse/internal/metrics"
	"sellerpulse/internal/pipeline"
)

func testRouter(t *testing.T) *Router {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		revenue := 100.0
		if r.URL.Query().Get("date_start") == "2025-11-22" {
			revenue = 60.0
		}
		json.NewEncoder(w).Encode(metrics.Summary{
			Range: metrics.Range{
				Start: r.URL.Query().Get("date_start"),
				End:   r.URL.Query().Get("date_end"),
			},
			Revenue: revenue,
			Orders:  10,
		})
	}))
	t.Cleanup(srv.Close)
	return NewRouter(metrics.NewClient(srv.URL, "", time.Second))
}

func TestDispatchHardcoded(t *testing.T) {
	r := testRouter(t)
	out, err := r.Dispatch(context.Background(), &pipeline.ResolvedState{
		Category: pipeline.CategoryHardcoded,
		Response: "canned answer",
	})
	require.NoError(t, err)
	assert.Equal(t, "canned answer", out)
}

func TestDispatchMetricsQuery(t *testing.T) {
	r := testRouter(t)
	out, err := r.Dispatch(context.Background(), &pipeline.ResolvedState{
		Category:  pipeline.CategoryMetricsQuery,
		DateStart: "2025-12-15",
		DateEnd:   "2025-12-21",
	})
	require.NoError(t, err)
	assert.Contains(t, out, "2025-12-15")
	assert.Contains(t, out, "$100.00")
}

func TestDispatchCompareQuery(t *testing.T) {
	r := testRouter(t)
	out, err := r.Dispatch(context.Background(), &pipeline.ResolvedState{
		Category:         pipeline.CategoryCompareQuery,
		DateStart:        "2025-12-13",
		DateEnd:          "2025-12-21",
		CompareDateStart: "2025-11-22",
		CompareDateEnd:   "2025-12-21",
	})
	require.NoError(t, err)
	assert.Contains(t, out, "up $40.00")
}

func TestDispatchProductQuery(t *testing.T) {
	r := testRouter(t)
	out, err := r.Dispatch(context.Background(), &pipeline.ResolvedState{
		Category:  pipeline.CategoryASINProduct,
		ASIN:      "B0B5HN65QQ",
		DateStart: "2025-12-01",
		DateEnd:   "2025-12-21",
	})
	require.NoError(t, err)
	assert.Contains(t, out, "B0B5HN65QQ")
}

func TestDispatchOtherAndUnknown(t *testing.T) {
	r := testRouter(t)

	out, err := r.Dispatch(context.Background(), &pipeline.ResolvedState{Category: pipeline.CategoryOther})
	require.NoError(t, err)
	assert.NotEmpty(t, out)

	out2, err := r.Dispatch(context.Background(), &pipeline.ResolvedState{Category: "mystery"})
	require.NoError(t, err)
	assert.Equal(t, out, out2)
}
