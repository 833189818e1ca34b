package detector

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/example/ai-media-check/internal/logging"
)

// maxResponseSize bounds how much of a detector body is buffered.
const maxResponseSize = 10 << 20

type outboundRequest struct {
	MediaType MediaType `json:"media_type"`
	URL       string    `json:"url,omitempty"`
	Base64    string    `json:"base64,omitempty"`
}

// HTTPClient calls the detector over HTTP with a bearer credential.
type HTTPClient struct {
	endpoint string
	apiKey   string
	http     *http.Client
	maxBody  int64
	logger   *zap.Logger
}

// NewHTTPClient returns a detector client. A nil httpClient gets one bounded by timeout.
func NewHTTPClient(endpoint, apiKey string, timeout time.Duration, httpClient *http.Client, logger *zap.Logger) *HTTPClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	return &HTTPClient{
		endpoint: endpoint,
		apiKey:   apiKey,
		http:     httpClient,
		maxBody:  maxResponseSize,
		logger:   logger.Named("detector_client"),
	}
}

// Analyze issues a single POST to the detector. It never retries.
func (c *HTTPClient) Analyze(ctx context.Context, req MediaRequest) (*Response, error) {
	requestID := logging.RequestIDFromContext(ctx)
	opLogger := logging.WithOperation(c.logger, "detector.analyze", requestID)

	payload, err := json.Marshal(outboundRequest{
		MediaType: req.MediaType,
		URL:       req.URL,
		Base64:    req.Base64,
	})
	if err != nil {
		return nil, logging.NewOperationError("detector.encode_request", requestID, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, logging.NewOperationError("detector.build_request", requestID, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	if requestID != "" {
		httpReq.Header.Set(logging.RequestIDHeader, requestID)
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		wrapped := logging.NewOperationError("detector.analyze", requestID, &UnreachableError{Err: err})
		opLogger.Error("detector call failed", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
		return nil, wrapped
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		opLogger.Error("failed to read detector response", zap.Error(err), zap.Int("status", resp.StatusCode))
		return nil, logging.NewOperationError("detector.read_response", requestID, &UnreachableError{Err: err})
	}
	if int64(len(body)) > c.maxBody {
		opLogger.Warn("detector response exceeds limit", zap.Int("status", resp.StatusCode), zap.Int64("limit", c.maxBody))
		return nil, logging.NewOperationError("detector.read_response", requestID,
			&ResponseTooLargeError{StatusCode: resp.StatusCode, Limit: c.maxBody})
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		httpErr := &HTTPError{StatusCode: resp.StatusCode, Body: string(body)}
		opLogger.Warn("detector returned error status",
			zap.Int("status", resp.StatusCode),
			zap.Int("body_bytes", len(body)),
			zap.Duration("elapsed", time.Since(start)),
		)
		return nil, logging.NewOperationError("detector.analyze", requestID, httpErr)
	}

	if !json.Valid(body) {
		decodeErr := &DecodeError{Err: describeInvalidJSON(body)}
		opLogger.Warn("detector returned invalid json", zap.Int("status", resp.StatusCode), zap.Int("body_bytes", len(body)))
		return nil, logging.NewOperationError("detector.decode_response", requestID, decodeErr)
	}

	opLogger.Debug("detector responded", zap.Int("status", resp.StatusCode), zap.Duration("elapsed", time.Since(start)))
	return &Response{StatusCode: resp.StatusCode, Raw: json.RawMessage(body)}, nil
}

func describeInvalidJSON(body []byte) error {
	if len(bytes.TrimSpace(body)) == 0 {
		return errors.New("cuerpo vacío")
	}
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return err
	}
	return errors.New("contenido inesperado")
}
