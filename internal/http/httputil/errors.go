package httputil

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/hxuan190/basket-engine/internal/common"
	"github.com/hxuan190/basket-engine/internal/domain"
)

// StatusForKind maps a protocol error kind onto an HTTP status.
func StatusForKind(k domain.ErrorKind) int {
	switch k {
	case domain.KindAuthorization:
		return http.StatusForbidden
	case domain.KindInputValidation, domain.KindWiring:
		return http.StatusBadRequest
	case domain.KindArithmetic, domain.KindOutcome:
		return http.StatusUnprocessableEntity
	case domain.KindLedger:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// HandleError writes err with the status its type calls for.
func HandleError(c *gin.Context, err error) {
	var httpErr *common.HttpError
	if errors.As(err, &httpErr) {
		writeError(c, httpErr.StatusCode, httpErr.Message, httpErr.Code)
		return
	}
	if be, ok := domain.AsBasketError(err); ok {
		writeError(c, StatusForKind(be.Kind), be.Error(), be.Name+":"+strconv.FormatUint(uint64(be.Code), 10))
		return
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		writeError(c, http.StatusServiceUnavailable, err.Error(), "")
		return
	}
	writeError(c, http.StatusInternalServerError, err.Error(), "")
}
