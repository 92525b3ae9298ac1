package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/guttosm/label-print-service/internal/domain/dto"
	"github.com/guttosm/label-print-service/internal/i18n"
	"github.com/guttosm/label-print-service/internal/logger"
	"github.com/guttosm/label-print-service/internal/metrics"
)

// Recovery turns a handler panic into a 500 envelope. The panic value and
// stack go to the log under the request id; the client only sees the id.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			p := recover()
			if p == nil {
				return
			}
			// http.ErrAbortHandler signals a deliberately dropped connection.
			if p == http.ErrAbortHandler {
				panic(p)
			}

			route := c.FullPath()
			metrics.RecordPanic(route)

			requestID := GetRequestID(c)
			log := logger.Logger()
			log.Error().
				Str("request_id", requestID).
				Str("method", c.Request.Method).
				Str("route", route).
				Str("panic", fmt.Sprint(p)).
				Bytes("stack", debug.Stack()).
				Msg("handler panic recovered")

			if c.Writer.Written() {
				c.Abort()
				return
			}
			msg := i18n.GetTranslator().Translate(i18n.ErrKeyInternalError, i18n.GetLocale(c))
			c.AbortWithStatusJSON(http.StatusInternalServerError,
				dto.NewError(dto.ErrCodeInternal, msg).WithRequestID(requestID))
		}()
		c.Next()
	}
}
