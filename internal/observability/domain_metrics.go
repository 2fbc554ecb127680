package observability

import "time"

// ObserveAnswer counts one finished chat request. outcome is a history
// status such as "succeeded" or "query_failed".
func ObserveAnswer(outcome string) {
	chatAnswersTotal.WithLabelValues(outcome).Inc()
}

func ObserveCompletion(elapsed time.Duration, err error) {
	completionRequestsTotal.Inc()
	if err != nil {
		completionFailuresTotal.Inc()
	}
	completionLatencyMs.Observe(float64(elapsed.Milliseconds()))
}

// ObserveQuery records one executor call. responseBytes is ignored when err
// is set.
func ObserveQuery(engine string, elapsed time.Duration, responseBytes int, err error) {
	queryRequestsTotal.WithLabelValues(engine).Inc()
	queryLatencyMs.WithLabelValues(engine).Observe(float64(elapsed.Milliseconds()))
	if err != nil {
		queryFailuresTotal.WithLabelValues(engine).Inc()
		return
	}
	queryResponseBytes.WithLabelValues(engine).Observe(float64(responseBytes))
}

func IncrementFallbackSQL() {
	fallbackSQLTotal.Inc()
}

func IncrementRejectedSQL() {
	rejectedSQLTotal.Inc()
}

func IncrementHistoryRecordFailure() {
	historyRecordFailuresTotal.Inc()
}
