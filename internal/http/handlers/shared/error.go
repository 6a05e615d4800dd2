package shared

import (
	"errors"

	"github.com/catalog-feed/internal/http/response"
	"github.com/catalog-feed/internal/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestLog 提供携带 request_id 的日志实例。
func RequestLog(c *gin.Context) *zap.SugaredLogger {
	if c == nil {
		return logger.S()
	}
	if requestID, ok := c.Get("request_id"); ok {
		if id, ok := requestID.(string); ok && id != "" {
			return logger.SW("request_id", id)
		}
	}
	return logger.S()
}

// RespondError 返回错误响应，并在有原始错误时记录日志。
func RespondError(c *gin.Context, code int, msg string, err error) {
	appErr := response.WrapError(code, msg, err)
	if err != nil {
		RequestLog(c).Errorw("handler_error",
			"code", appErr.Code,
			"message", appErr.Message,
			"error", err,
		)
	}
	response.Error(c, appErr.Code, appErr.Message)
}

// MappedError 业务错误到接口错误响应的映射。
type MappedError struct {
	Target  error
	Code    int
	Message string
	// Detail 为 true 时响应中附带原始错误信息
	Detail bool
}

// RespondMappedError 按映射规则返回错误，未命中时使用兜底响应并记录日志。
func RespondMappedError(c *gin.Context, err error, rules []MappedError, fallbackCode int, fallbackMsg string) {
	for _, rule := range rules {
		if rule.Target != nil && errors.Is(err, rule.Target) {
			msg := rule.Message
			if rule.Detail {
				msg = err.Error()
			}
			response.Error(c, rule.Code, msg)
			return
		}
	}
	RespondError(c, fallbackCode, fallbackMsg, err)
}
