package http

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/guttosm/label-print-service/internal/domain/dto"
	"github.com/guttosm/label-print-service/internal/middleware"
)

var successResponsePool = sync.Pool{
	New: func() interface{} {
		return &dto.SuccessResponse{}
	},
}

// getSuccessResponse retrieves a SuccessResponse from the pool.
func getSuccessResponse() *dto.SuccessResponse {
	if resp, ok := successResponsePool.Get().(*dto.SuccessResponse); ok {
		return resp
	}
	return &dto.SuccessResponse{}
}

// putSuccessResponse returns a SuccessResponse to the pool.
func putSuccessResponse(resp *dto.SuccessResponse) {
	resp.Data = nil
	resp.RequestID = ""
	resp.Timestamp = time.Time{}
	successResponsePool.Put(resp)
}

// Validator interface for types that can validate themselves.
type Validator interface {
	Validate() error
}

// BindStrict decodes the request body into v, rejecting unknown keys, then runs the
// binding tags and the Validator hook.
func BindStrict(c *gin.Context, v interface{}) error {
	if c.Request.Body == nil {
		return dto.ErrEmptyBody
	}
	if err := dto.DecodeStrict(c.Request.Body, v); err != nil {
		return err
	}
	if binding.Validator != nil {
		if err := binding.Validator.ValidateStruct(v); err != nil {
			return err
		}
	}
	if validator, ok := v.(Validator); ok {
		if err := validator.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// BuildRequest is a generic helper to decode and validate a request body.
func BuildRequest[T any](c *gin.Context) (*T, error) {
	var req T
	if err := BindStrict(c, &req); err != nil {
		return nil, err
	}
	return &req, nil
}

// ResponseBuilder writes the standard response envelopes.
// Uses sync.Pool for DTO reuse to reduce allocations.
type ResponseBuilder struct {
	c *gin.Context
}

// NewResponseBuilder creates a new response builder for the given context.
func NewResponseBuilder(c *gin.Context) *ResponseBuilder {
	return &ResponseBuilder{c: c}
}

// Success sends a successful response with the given data.
func (b *ResponseBuilder) Success(statusCode int, data interface{}) {
	resp := getSuccessResponse()
	resp.Data = data
	resp.RequestID = middleware.GetRequestID(b.c)
	resp.Timestamp = time.Now()

	// gin serializes synchronously, so the response can go back to the pool right after.
	b.c.JSON(statusCode, resp)
	putSuccessResponse(resp)
}

// SuccessOK sends a 200 OK response with the given data.
func (b *ResponseBuilder) SuccessOK(data interface{}) {
	b.Success(http.StatusOK, data)
}

// SuccessCreated sends a 201 Created response with the given data.
func (b *ResponseBuilder) SuccessCreated(data interface{}) {
	b.Success(http.StatusCreated, data)
}

// SuccessAccepted sends a 202 Accepted response with the given data.
func (b *ResponseBuilder) SuccessAccepted(data interface{}) {
	b.Success(http.StatusAccepted, data)
}

// Error writes the mapped error envelope for err and aborts the request.
func (b *ResponseBuilder) Error(err error) {
	middleware.WriteError(b.c, err)
}
