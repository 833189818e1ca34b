package usecase

import "time"

// MetricsRecorder receives analysis telemetry. *metrics.Metrics satisfies it.
type MetricsRecorder interface {
	RecordAnalysis(mediaType, outcome string)
	ObserveDetectorCall(status string, elapsed time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) RecordAnalysis(string, string)             {}
func (nopRecorder) ObserveDetectorCall(string, time.Duration) {}
