package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/north-cloud/media-monitor/internal/events"
	"github.com/jonesrussell/north-cloud/media-monitor/internal/logger"
)

// ErrorsHandler accepts structured error reports from clients and forwards
// them to the error event stream.
type ErrorsHandler struct {
	publisher *events.Publisher
	logger    logger.Logger
}

// NewErrorsHandler creates the handler. publisher may be nil when event
// publishing is disabled; reports are then only logged.
func NewErrorsHandler(publisher *events.Publisher, log logger.Logger) *ErrorsHandler {
	return &ErrorsHandler{
		publisher: publisher,
		logger:    log,
	}
}

type errorReport struct {
	StatusCode     int            `json:"status_code"`
	URL            string         `json:"url"`
	ErrorMessage   string         `json:"error_message"`
	StackTrace     string         `json:"stack_trace"`
	AdditionalInfo map[string]any `json:"additional_info"`
}

type errorAnalysis struct {
	Type           string `json:"type"`
	Severity       string `json:"severity"`
	Priority       string `json:"priority"`
	Recommendation string `json:"recommendation"`
}

// Report validates and records a client error report, returning a basic
// analysis with a recommendation keyed on the status code.
func (h *ErrorsHandler) Report(c *gin.Context) {
	var report errorReport
	if err := c.ShouldBindJSON(&report); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	if report.StatusCode == 0 || report.URL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Required fields: status_code, url"})
		return
	}

	analysis := analyzeStatusCode(report.StatusCode)

	h.logger.Warn("Client error report",
		logger.Int("status_code", report.StatusCode),
		logger.String("url", report.URL),
		logger.String("error_type", analysis.Type),
		logger.String("severity", analysis.Severity),
		logger.String("message", report.ErrorMessage),
		logger.String("user_agent", c.GetHeader("User-Agent")),
	)

	h.publisher.PublishAsync(events.ErrorStream, events.Event{
		EventType: events.ClientError,
		URL:       report.URL,
		Message:   report.ErrorMessage,
		Payload: map[string]any{
			"status_code": report.StatusCode,
			"error_type":  analysis.Type,
			"severity":    analysis.Severity,
			"user_agent":  c.GetHeader("User-Agent"),
			"additional":  report.AdditionalInfo,
		},
	})

	c.JSON(http.StatusOK, gin.H{
		"status":   "received",
		"analysis": analysis,
	})
}

// analyzeStatusCode maps an HTTP status code to an error type, severity and
// operator recommendation.
func analyzeStatusCode(code int) errorAnalysis {
	switch code {
	case http.StatusBadRequest:
		return errorAnalysis{"BAD_REQUEST", "warning", "low", "Verify the request parameters"}
	case http.StatusUnauthorized:
		return errorAnalysis{"UNAUTHORIZED", "warning", "low", "Check credentials and try again"}
	case http.StatusForbidden:
		return errorAnalysis{"FORBIDDEN", "warning", "low", "Access to the resource is denied"}
	case http.StatusNotFound:
		return errorAnalysis{"NOT_FOUND", "warning", "medium", "Verify the URL is correct"}
	case http.StatusRequestTimeout:
		return errorAnalysis{"TIMEOUT", "warning", "medium", "Check the network connection and try again"}
	case http.StatusInternalServerError:
		return errorAnalysis{"INTERNAL_SERVER_ERROR", "error", "high", "Contact the system administrator"}
	case http.StatusBadGateway:
		return errorAnalysis{"BAD_GATEWAY", "error", "high", "Upstream service error; try again later"}
	case http.StatusServiceUnavailable:
		return errorAnalysis{"SERVICE_UNAVAILABLE", "error", "high", "Service temporarily unavailable; try again in a few minutes"}
	case http.StatusGatewayTimeout:
		return errorAnalysis{"GATEWAY_TIMEOUT", "error", "high", "Upstream timed out; try again later"}
	default:
		return errorAnalysis{"UNKNOWN_ERROR", "error", "low", "Try again later"}
	}
}
