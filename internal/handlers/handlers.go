package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/example/ai-media-check/internal/detector"
	"github.com/example/ai-media-check/internal/scoring"
	"github.com/example/ai-media-check/internal/usecase"
)

// MaxRequestBodySize caps the analyze payload; inline base64 media is the
// usual reason a body gets large.
const MaxRequestBodySize = 10 << 20

const unexpectedErrorMessage = "Error inesperado"

type analyzeResponse struct {
	Verdict          string          `json:"verdict"`
	AIPercentage     float64         `json:"aiPercentage"`
	Threshold        float64         `json:"threshold"`
	DetectorResponse json.RawMessage `json:"detectorResponse"`
}

// RegisterRoutes wires the HTTP handlers to the Gin router. metricsHandler may be nil.
func RegisterRoutes(router *gin.Engine, uc *usecase.AnalysisUseCase, metricsHandler http.Handler) {
	useJSONFieldNames()

	api := router.Group("/api")

	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true, "message": "API funcionando"})
	})

	api.POST("/analyze", func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxRequestBodySize)

		req, details, err := bindAnalyzeRequest(c)
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "El cuerpo de la solicitud es demasiado grande."})
				return
			}
			_ = c.Error(err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "Solicitud inválida."})
			return
		}
		if details != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Solicitud inválida.", "details": details})
			return
		}

		result, err := uc.Analyze(c.Request.Context(), req)
		if err != nil {
			_ = c.Error(err)
			c.JSON(http.StatusBadGateway, gin.H{"error": publicMessage(err)})
			return
		}

		c.JSON(http.StatusOK, analyzeResponse{
			Verdict:          result.Verdict.Label,
			AIPercentage:     result.Verdict.AIPercentage,
			Threshold:        result.Verdict.Threshold,
			DetectorResponse: result.DetectorResponse,
		})
	})

	if metricsHandler != nil {
		router.GET("/metrics", gin.WrapH(metricsHandler))
	}
}

// publicMessage returns the message of the domain error in err's chain, never
// the operation wrappers around it.
func publicMessage(err error) string {
	var (
		httpErr     *detector.HTTPError
		unreachable *detector.UnreachableError
		decodeErr   *detector.DecodeError
		tooLarge    *detector.ResponseTooLargeError
		notFound    *scoring.ScoreNotFoundError
		invalid     *scoring.InvalidScoreError
	)
	switch {
	case errors.As(err, &httpErr):
		return httpErr.Error()
	case errors.As(err, &unreachable):
		return unreachable.Error()
	case errors.As(err, &decodeErr):
		return decodeErr.Error()
	case errors.As(err, &tooLarge):
		return tooLarge.Error()
	case errors.As(err, &notFound):
		return notFound.Error()
	case errors.As(err, &invalid):
		return invalid.Error()
	default:
		return unexpectedErrorMessage
	}
}
