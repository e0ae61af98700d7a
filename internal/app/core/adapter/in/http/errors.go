package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/JoeShih716/go-office-ledger/internal/app/core/domain"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// statusFor 依 domain 錯誤決定 HTTP 狀態碼與錯誤代碼
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, "validation_error"
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, "conflict"
	}
	return http.StatusInternalServerError, "internal_error"
}

// AbortWithError 寫出錯誤回應，500 不回傳內部訊息
func AbortWithError(c *gin.Context, err error) {
	status, code := statusFor(err)
	resp := errorResponse{Error: code, Message: err.Error()}
	var fieldErr *domain.FieldError
	if errors.As(err, &fieldErr) {
		resp.Field = fieldErr.Field
		resp.Message = fieldErr.Message
	}
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		resp.Message = "internal server error"
	}
	c.AbortWithStatusJSON(status, resp)
}

func invalidRequestError(err error) error {
	return domain.NewFieldError("body", err.Error())
}
