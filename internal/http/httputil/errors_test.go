package httputil

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hxuan190/basket-engine/internal/common"
	"github.com/hxuan190/basket-engine/internal/domain"
)

func TestHandleError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tests := []struct {
		name string
		err  error
		want int
		code string
	}{
		{"authorization", domain.ErrComplianceDenied, http.StatusForbidden, "ComplianceDenied:6015"},
		{"input", domain.ErrZeroDeposit, http.StatusBadRequest, "ZeroDeposit:6007"},
		{"wiring", fmt.Errorf("leg 2: %w", domain.ErrInvalidBasketWiring), http.StatusBadRequest, "InvalidBasketWiring:6011"},
		{"arithmetic", domain.ErrArithmeticOverflow, http.StatusUnprocessableEntity, ""},
		{"outcome", domain.ErrZeroSharesMinted, http.StatusUnprocessableEntity, ""},
		{"ledger", domain.NewError(1, "InsufficientFunds", "insufficient funds", domain.KindLedger), http.StatusConflict, "InsufficientFunds:1"},
		{"http error", common.HTTPErrorNotFound(""), http.StatusNotFound, "NOT_FOUND"},
		{"canceled", context.Canceled, http.StatusServiceUnavailable, ""},
		{"other", fmt.Errorf("boom"), http.StatusInternalServerError, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			HandleError(c, tt.err)
			assert.Equal(t, tt.want, w.Code)

			var res Response
			require.NoError(t, sonic.Unmarshal(w.Body.Bytes(), &res))
			assert.False(t, res.Success)
			assert.NotEmpty(t, res.Error)
			if tt.code != "" {
				assert.Equal(t, tt.code, res.Code)
			}
		})
	}
}

func TestResponseHelpers(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tests := []struct {
		name    string
		write   func(*gin.Context)
		status  int
		success bool
		body    string
	}{
		{"success", func(c *gin.Context) { HandleSuccess(c, gin.H{"id": 1}) }, http.StatusOK, true, `{"success":true,"data":{"id":1}}`},
		{"bad request", func(c *gin.Context) { HandleBadRequest(c, "invalid body") }, http.StatusBadRequest, false, `{"success":false,"error":"invalid body"}`},
		{"not found", func(c *gin.Context) { HandleNotFound(c, "mint not found") }, http.StatusNotFound, false, `{"success":false,"error":"mint not found"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			tt.write(c)
			assert.Equal(t, tt.status, w.Code)
			assert.JSONEq(t, tt.body, w.Body.String())
		})
	}
}
