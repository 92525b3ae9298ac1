package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/guttosm/label-print-service/internal/circuitbreaker"
	"github.com/guttosm/label-print-service/internal/domain/dto"
	"github.com/guttosm/label-print-service/internal/i18n"
	"github.com/guttosm/label-print-service/internal/logger"
	"github.com/guttosm/label-print-service/internal/service"
)

// ErrorMapping is the HTTP rendition of an error.
type ErrorMapping struct {
	Status     int
	MessageKey string
	Details    interface{}
}

// Code is the machine readable error code of the envelope.
func (m ErrorMapping) Code() string {
	return strings.TrimPrefix(m.MessageKey, "error.")
}

var sentinelMappings = []struct {
	err    error
	status int
	key    string
}{
	{service.ErrUnknownOption, http.StatusBadRequest, i18n.ErrKeyUnknownOption},
	{service.ErrMalformedPayload, http.StatusBadRequest, i18n.ErrKeyMalformedPayload},
	{service.ErrMissingField, http.StatusBadRequest, i18n.ErrKeyValidationFailed},
	{service.ErrInvalidWeight, http.StatusBadRequest, i18n.ErrKeyValidationFailed},
	{service.ErrInvalidBoxNumber, http.StatusBadRequest, i18n.ErrKeyValidationFailed},
	{service.ErrInvalidDate, http.StatusBadRequest, i18n.ErrKeyValidationFailed},
	{service.ErrInvalidLayout, http.StatusBadRequest, i18n.ErrKeyInvalidLayout},
	{service.ErrEmptyJob, http.StatusBadRequest, i18n.ErrKeyEmptyJob},
	{service.ErrEmptyBatch, http.StatusBadRequest, i18n.ErrKeyEmptyBatch},
	{service.ErrHeterogeneousBatch, http.StatusBadRequest, i18n.ErrKeyHeterogeneousBatch},
	{service.ErrJobNotFound, http.StatusNotFound, i18n.ErrKeyJobNotFound},
	{service.ErrBatchNotFound, http.StatusNotFound, i18n.ErrKeyBatchNotFound},
	{service.ErrTransactionNotFound, http.StatusNotFound, i18n.ErrKeyTransactionNotFound},
	{service.ErrPrinterNotFound, http.StatusNotFound, i18n.ErrKeyPrinterNotFound},
	{service.ErrPrinterIncompatible, http.StatusUnprocessableEntity, i18n.ErrKeyPrinterIncompatible},
	{service.ErrPrinterUnavailable, http.StatusConflict, i18n.ErrKeyPrinterUnavailable},
	{service.ErrPrinterBusy, http.StatusConflict, i18n.ErrKeyPrinterBusy},
	{service.ErrInvalidTransition, http.StatusConflict, i18n.ErrKeyInvalidTransition},
	{service.ErrManagerClosed, http.StatusServiceUnavailable, i18n.ErrKeyServiceUnavailable},
	{circuitbreaker.ErrCircuitOpen, http.StatusServiceUnavailable, i18n.ErrKeyServiceUnavailable},
	{context.DeadlineExceeded, http.StatusGatewayTimeout, i18n.ErrKeyTimeout},
}

// MapError translates service and request errors into status, message key and details.
func MapError(err error) ErrorMapping {
	var (
		batchErr   *service.BatchError
		validErr   *service.ValidationError
		parseErr   *service.ParseError
		fieldErrs  validator.ValidationErrors
		dtoErr     *dto.ValidationError
		unknownErr *dto.UnknownFieldError
		syntaxErr  *json.SyntaxError
		typeErr    *json.UnmarshalTypeError
	)

	switch {
	case errors.As(err, &batchErr):
		status := http.StatusBadRequest
		if len(batchErr.Failures) > 0 {
			status = MapError(batchErr.Failures[0].Err).Status
		}
		return ErrorMapping{Status: status, MessageKey: i18n.ErrKeyBatchRejected, Details: batchErr.Details()}
	case errors.As(err, &validErr):
		return ErrorMapping{Status: http.StatusBadRequest, MessageKey: i18n.ErrKeyValidationFailed, Details: validErr.Violations}
	case errors.As(err, &parseErr):
		return ErrorMapping{Status: http.StatusBadRequest, MessageKey: i18n.ErrKeyMalformedPayload,
			Details: map[string]string{"field": parseErr.Field, "reason": parseErr.Reason}}
	case errors.As(err, &fieldErrs):
		details := make(map[string]string, len(fieldErrs))
		for _, fe := range fieldErrs {
			details[fe.Namespace()] = fe.Tag()
		}
		return ErrorMapping{Status: http.StatusBadRequest, MessageKey: i18n.ErrKeyInvalidRequest, Details: details}
	case errors.As(err, &dtoErr):
		return ErrorMapping{Status: http.StatusBadRequest, MessageKey: i18n.ErrKeyInvalidRequest,
			Details: map[string]string{dtoErr.Field: dtoErr.Message}}
	case errors.As(err, &unknownErr):
		return ErrorMapping{Status: http.StatusBadRequest, MessageKey: i18n.ErrKeyUnknownOption,
			Details: map[string]string{"field": unknownErr.Field}}
	case errors.Is(err, dto.ErrEmptyBody), errors.As(err, &syntaxErr), errors.As(err, &typeErr),
		errors.Is(err, io.ErrUnexpectedEOF):
		return ErrorMapping{Status: http.StatusBadRequest, MessageKey: i18n.ErrKeyInvalidRequestBody}
	}

	for _, m := range sentinelMappings {
		if errors.Is(err, m.err) {
			return ErrorMapping{Status: m.status, MessageKey: m.key}
		}
	}
	return ErrorMapping{Status: http.StatusInternalServerError, MessageKey: i18n.ErrKeyInternalError}
}

// WriteError renders err as the standard error envelope and aborts the request.
func WriteError(c *gin.Context, err error) {
	m := MapError(err)
	_ = c.Error(err)

	message := i18n.GetTranslator().Translate(m.MessageKey, i18n.GetLocale(c))
	if m.Status < http.StatusInternalServerError && m.Details == nil {
		message = message + ": " + err.Error()
	}
	resp := dto.NewError(m.Code(), message).
		WithRequestID(GetRequestID(c)).
		WithDetails(m.Details)
	c.AbortWithStatusJSON(m.Status, resp)
}

// ErrorHandler returns a middleware that handles gin context errors.
// Errors are logged; an unwritten response gets the mapped error envelope.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err
		log := logger.Logger()
		ev := log.Warn()
		if c.Writer.Written() && c.Writer.Status() < http.StatusInternalServerError {
			ev = log.Debug()
		}
		if MapError(err).Status >= http.StatusInternalServerError {
			ev = log.Error()
		}
		ev.Str("request_id", GetRequestID(c)).
			Err(err).
			Str("path", c.Request.URL.Path).
			Str("method", c.Request.Method).
			Msg("Request error")

		if !c.Writer.Written() {
			WriteError(c, err)
		}
	}
}
