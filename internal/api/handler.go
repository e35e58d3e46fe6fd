package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ken/internmatch/pkg/embedding"
	"github.com/ken/internmatch/pkg/recommend"
)

// Error codes returned in the "error" field of failed responses
const (
	CodeInvalidRequest = "invalid_request"
	CodeInvalidInput   = "invalid_input"
	CodeTimeout        = "timeout"
	CodeInternal       = "internal_error"
)

// Recommender produces recommendations for a request
type Recommender interface {
	Recommend(ctx context.Context, req recommend.Request) (*recommend.Result, error)
}

// RecommendRequest is the request body of POST /recommend. Both arrays are
// required and no element may be null; empty arrays and empty strings are
// accepted.
type RecommendRequest struct {
	Skills    []*string `json:"skills" binding:"required,dive,required"`
	Interests []*string `json:"interests" binding:"required,dive,required"`
}

// ToRequest converts the validated body into a service request
func (r RecommendRequest) ToRequest() recommend.Request {
	return recommend.Request{
		Skills:    deref(r.Skills),
		Interests: deref(r.Interests),
	}
}

func deref(values []*string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = *v
	}
	return out
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status      string `json:"status"`
	Model       string `json:"model"`
	CatalogSize int    `json:"catalog_size"`
}

// Handler handles HTTP requests
type Handler struct {
	recommender Recommender
	modelName   string
	catalogSize int
	timeout     time.Duration
}

// NewHandler creates a new handler. A zero timeout disables the per-request
// deadline.
func NewHandler(recommender Recommender, modelName string, catalogSize int, timeout time.Duration) *Handler {
	return &Handler{
		recommender: recommender,
		modelName:   modelName,
		catalogSize: catalogSize,
		timeout:     timeout,
	}
}

// Recommend handles POST /recommend
func (h *Handler) Recommend(c *gin.Context) {
	var body RecommendRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		status, code := bindStatus(err)
		c.JSON(status, ErrorResponse{Error: code, Message: err.Error(), RequestID: RequestIDFrom(c)})
		return
	}

	ctx := c.Request.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	result, err := h.recommender.Recommend(ctx, body.ToRequest())
	if err != nil {
		status, code := errorStatus(err)
		requestLogger(c).Errorw("recommendation failed", "error", err, "status", status)
		c.JSON(status, ErrorResponse{Error: code, Message: err.Error(), RequestID: RequestIDFrom(c)})
		return
	}

	c.JSON(http.StatusOK, result)
}

// Health handles GET /health
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:      "ok",
		Model:       h.modelName,
		CatalogSize: h.catalogSize,
	})
}

// bindStatus maps a body binding failure to a status: unreadable JSON is a
// bad request, well-formed JSON of the wrong shape is unprocessable
func bindStatus(err error) (int, string) {
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return http.StatusBadRequest, CodeInvalidRequest
	}
	return http.StatusUnprocessableEntity, CodeInvalidInput
}

func errorStatus(err error) (int, string) {
	switch {
	case embedding.IsEncodeError(err):
		return http.StatusUnprocessableEntity, CodeInvalidInput
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, CodeTimeout
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}
