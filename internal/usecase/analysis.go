package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/example/ai-media-check/internal/detector"
	"github.com/example/ai-media-check/internal/logging"
	"github.com/example/ai-media-check/internal/metrics"
	"github.com/example/ai-media-check/internal/scoring"
)

// AnalysisResult is the outcome of one successful analysis.
type AnalysisResult struct {
	Verdict          scoring.Verdict
	ScoreSource      string
	DetectorResponse json.RawMessage
}

// AnalysisUseCase sends media to the detector and turns its answer into a verdict.
type AnalysisUseCase struct {
	detector  detector.Client
	threshold float64
	metrics   MetricsRecorder
	logger    *zap.Logger
}

// NewAnalysisUseCase constructs a use case. A nil recorder disables metrics.
func NewAnalysisUseCase(client detector.Client, threshold float64, recorder MetricsRecorder, logger *zap.Logger) *AnalysisUseCase {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &AnalysisUseCase{
		detector:  client,
		threshold: threshold,
		metrics:   recorder,
		logger:    logger.Named("analysis_usecase"),
	}
}

// Analyze calls the detector once, extracts its score and decides the verdict.
func (uc *AnalysisUseCase) Analyze(ctx context.Context, req detector.MediaRequest) (*AnalysisResult, error) {
	requestID := logging.RequestIDFromContext(ctx)
	opLogger := logging.WithOperation(uc.logger, "usecase.analyze", requestID).
		With(zap.String("media_type", string(req.MediaType)), zap.Bool("inline", req.Base64 != ""))
	mediaType := string(req.MediaType)

	start := time.Now()
	resp, err := uc.detector.Analyze(ctx, req)
	uc.metrics.ObserveDetectorCall(detectorStatus(resp, err), time.Since(start))
	if err != nil {
		uc.metrics.RecordAnalysis(mediaType, metrics.OutcomeDetectorError)
		opLogger.Error("detector call failed", zap.Error(err))
		return nil, err
	}

	score, err := scoring.Extract(resp.Raw)
	if err != nil {
		uc.metrics.RecordAnalysis(mediaType, metrics.OutcomeScoreError)
		wrapped := logging.NewOperationError("usecase.extract_score", requestID, err)
		opLogger.Warn("could not score detector response", zap.Error(wrapped))
		return nil, wrapped
	}

	verdict := scoring.Decide(score.Percentage, uc.threshold)
	outcome := metrics.OutcomeNotAI
	if verdict.IsAI {
		outcome = metrics.OutcomeAI
	}
	uc.metrics.RecordAnalysis(mediaType, outcome)

	opLogger.Info("analysis completed",
		zap.Float64("ai_percentage", verdict.AIPercentage),
		zap.Float64("threshold", verdict.Threshold),
		zap.Bool("is_ai", verdict.IsAI),
		zap.String("score_source", score.Source),
	)

	return &AnalysisResult{
		Verdict:          verdict,
		ScoreSource:      score.Source,
		DetectorResponse: resp.Raw,
	}, nil
}

func detectorStatus(resp *detector.Response, err error) string {
	if err == nil && resp != nil {
		return strconv.Itoa(resp.StatusCode)
	}
	var httpErr *detector.HTTPError
	if errors.As(err, &httpErr) {
		return strconv.Itoa(httpErr.StatusCode)
	}
	var (
		decodeErr *detector.DecodeError
		tooLarge  *detector.ResponseTooLargeError
	)
	if errors.As(err, &decodeErr) || errors.As(err, &tooLarge) {
		return "invalid_body"
	}
	return "unreachable"
}
