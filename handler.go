package patrimonial

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/rs/zerolog/log"
)

// Response headers set on a successful export.
const (
	HeaderWritten = "X-Occurrences-Written"
	HeaderSkipped = "X-Occurrences-Skipped"
)

// Handler adapts the Exporter to the function host's HTTP event.
type Handler struct {
	Exporter *Exporter
}

// NewHandler returns a handler exporting with opts.
func NewHandler(opts *Options) *Handler {
	return &Handler{Exporter: NewExporter(opts)}
}

// Handle serves one export request. Failures are reported in the response;
// the returned error is always nil so the host never retries.
func (h *Handler) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	start := time.Now()
	logger := log.With().Str("request_id", req.RequestContext.RequestID).Logger()

	if req.HTTPMethod != "" && req.HTTPMethod != http.MethodPost {
		logger.Info().Str("method", req.HTTPMethod).Int("status", http.StatusMethodNotAllowed).Msg("Export rejected")
		return errorResponse(http.StatusMethodNotAllowed, "Method Not Allowed"), nil
	}

	body := []byte(req.Body)
	if req.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(req.Body)
		if err != nil {
			logger.Error().Err(err).Int("status", http.StatusInternalServerError).Msg("Export failed")
			return errorResponse(http.StatusInternalServerError, fmt.Sprintf("decode request body: %v", err)), nil
		}
		body = decoded
	}

	res, err := h.Exporter.ExportBody(ctx, body)
	if err != nil {
		status := http.StatusInternalServerError
		if IsValidation(err) {
			status = http.StatusBadRequest
		}

		ev := logger.Error()
		if status == http.StatusBadRequest {
			ev = logger.Warn()
		}
		var exportErr *Error
		if errors.As(err, &exportErr) {
			ev = ev.Str("op", exportErr.Op)
		}
		ev.Err(err).Int("status", status).Dur("duration", time.Since(start)).Msg("Export failed")

		return errorResponse(status, err.Error()), nil
	}

	logger.Info().
		Int("status", http.StatusOK).
		Str("format", string(res.Format)).
		Int("written", res.Written).
		Int("skipped", res.Skipped).
		Int("archive_bytes", res.ArchiveSize).
		Dur("duration", time.Since(start)).
		Msg("Export completed")

	return events.APIGatewayProxyResponse{
		StatusCode: http.StatusOK,
		Headers: map[string]string{
			"Content-Type":        "application/zip",
			"Content-Disposition": fmt.Sprintf("attachment; filename=%q", ArchiveName),
			HeaderWritten:         strconv.Itoa(res.Written),
			HeaderSkipped:         strconv.Itoa(res.Skipped),
		},
		Body:            res.Body,
		IsBase64Encoded: true,
	}, nil
}

// errorResponse builds the {"error": "<message>"} response.
func errorResponse(status int, message string) events.APIGatewayProxyResponse {
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       errorBody(message),
	}
}

// errorBody renders {"error": "<message>"}, keeping the space after the colon
// that existing clients match byte for byte.
func errorBody(message string) string {
	msg, err := json.Marshal(message)
	if err != nil {
		msg = []byte(`"internal error"`)
	}
	return fmt.Sprintf(`{"error": %s}`, msg)
}
