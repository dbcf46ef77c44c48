package handler

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/studynote/internal/pkg/errcode"
	appErr "github.com/xxxsen/studynote/internal/pkg/errors"
	"github.com/xxxsen/studynote/internal/pkg/response"
)

func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	requestID, _ := c.Get("request_id")
	logutil.GetLogger(c.Request.Context()).Error("request failed",
		zap.Any("request_id", requestID),
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Error(err))
	switch {
	case stderrors.Is(err, appErr.ErrInvalid), stderrors.Is(err, appErr.ErrInvalidURL):
		response.Error(c, http.StatusBadRequest, errcode.ErrInvalid, "invalid request")
	case stderrors.Is(err, appErr.ErrSafetyBlocked):
		response.Error(c, http.StatusBadRequest, errcode.ErrSafetyBlocked, "content was blocked by safety settings")
	case stderrors.Is(err, appErr.ErrContentUnavailable):
		response.Error(c, http.StatusBadRequest, errcode.ErrNoContent, err.Error())
	case stderrors.Is(err, appErr.ErrNotFound):
		response.Error(c, http.StatusNotFound, errcode.ErrNotFound, "not found")
	case stderrors.Is(err, appErr.ErrQuotaExceeded):
		response.Error(c, http.StatusTooManyRequests, errcode.ErrQuotaExceeded, "rate limit or quota exceeded, try again later")
	case stderrors.Is(err, appErr.ErrNetwork):
		response.Error(c, http.StatusBadGateway, errcode.ErrAIUnavailable, "upstream service unavailable")
	case stderrors.Is(err, appErr.ErrSchemaInvalid):
		response.Error(c, http.StatusInternalServerError, errcode.ErrSchemaInvalid, "generated data was malformed")
	default:
		response.Error(c, http.StatusInternalServerError, errcode.ErrInternal, "internal error")
	}
}
