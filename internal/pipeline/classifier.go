package pipeline

// Classify decides the final routing category after date and identifier
// resolution. Priority order, highest first:
//
//  1. A hardcoded match is terminal and never reaches this step.
//  2. A present identifier wins over everything else, even a compare
//     signal, because identifier-scoped questions need a different
//     data-fetch shape than store-level ones.
//  3. A second extracted period routes to compare_query.
//  4. A provisional "other" stays "other"; the question was recognized
//     as out of analytics scope and default date windows do not change
//     that.
//  5. Everything else is a store-level metrics_query.
func Classify(state *ResolvedState) Category {
	if state.Category == CategoryHardcoded {
		return CategoryHardcoded
	}
	if state.ASIN != "" {
		return CategoryASINProduct
	}
	if state.HasCompare() {
		return CategoryCompareQuery
	}
	if state.Category == CategoryOther {
		return CategoryOther
	}
	return CategoryMetricsQuery
}
