package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"financas/internal/core"
	"financas/internal/importer"
	"financas/internal/log"
	"financas/internal/reconcile"
	"financas/internal/services"
	"financas/internal/store"
)

// HeaderLedgerVersion carries the ledger version a response was computed at.
const HeaderLedgerVersion = "X-Ledger-Version"

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	headers    map[string]string
	body       any
}

// NewJSONResponse creates a new response builder with default 200 status.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// Version stamps the ledger version header.
func (b *JSONResponseBuilder) Version(v string) *JSONResponseBuilder {
	return b.Header(HeaderLedgerVersion, v)
}

func (b *JSONResponseBuilder) Body(v any) *JSONResponseBuilder {
	b.body = v
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if b.body == nil {
		w.WriteHeader(b.statusCode)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	_ = json.NewEncoder(w).Encode(b.body)
}

// errorBody is the payload of every failed request.
type errorBody struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

// ErrorResponse creates a standard error response.
func ErrorResponse(statusCode int, message, detail string) *JSONResponseBuilder {
	return NewJSONResponse().
		Status(statusCode).
		Body(errorBody{Error: message, Detail: detail})
}

func BadRequestError(message, detail string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message, detail)
}

func ConflictError(detail string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusConflict, "ledger changed since it was loaded; reload and retry", detail)
}

func BadGatewayError(detail string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusBadGateway, "ledger store unavailable", detail)
}

func InternalServerError(detail string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, "internal error", detail)
}

// errBadRequest marks request errors detected by the handlers themselves.
var errBadRequest = errors.New("bad request")

var inputErrors = []error{
	errBadRequest,
	importer.ErrMalformedFile,
	reconcile.ErrForeignRow,
	reconcile.ErrDuplicateID,
	services.ErrInvalidRecurring,
	core.ErrZeroDate,
	core.ErrEmptyDescription,
	core.ErrDescriptionTooLong,
	core.ErrNegativeAmount,
	core.ErrInvalidKind,
	core.ErrUnrecognizedDate,
	core.ErrEmptyCategory,
	core.ErrInvalidAmountFormat,
}

// writeError maps err to a status code, logs it and writes the error body.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	ctx := r.Context()
	logger := log.NewStructuredLogger(log.FromContext(ctx))

	var verrs validator.ValidationErrors
	switch {
	case errors.Is(err, store.ErrVersionConflict):
		logger.LogError(ctx, "Ledger write rejected", err, log.ErrorTypeConflict, log.ComponentHTTP, op)
		ConflictError(err.Error()).Write(w)
	case errors.Is(err, services.ErrStoreUnavailable):
		logger.LogError(ctx, "Ledger store failed", err, log.ErrorTypeStore, log.ComponentHTTP, op)
		BadGatewayError(err.Error()).Write(w)
	case errors.As(err, &verrs):
		BadRequestError("invalid request", validationDetail(verrs)).Write(w)
	case isInputError(err):
		errType := log.ErrorTypeValidation
		if errors.Is(err, importer.ErrMalformedFile) {
			errType = log.ErrorTypeMalformed
		}
		log.FromContext(ctx).WarnContext(ctx, "Request rejected",
			log.NewFields().WithOperation(op).WithError(err, errType).ToSlice()...)
		BadRequestError("invalid request", err.Error()).Write(w)
	default:
		logger.LogError(ctx, "Request failed", err, log.ErrorTypeInternal, log.ComponentHTTP, op)
		InternalServerError(err.Error()).Write(w)
	}
}

func isInputError(err error) bool {
	for _, target := range inputErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
