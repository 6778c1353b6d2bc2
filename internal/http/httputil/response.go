package httputil

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response is the envelope every route answers with.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Code    string      `json:"code,omitempty"`
}

func HandleSuccess(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Success: true, Data: data})
}

func HandleBadRequest(c *gin.Context, msg string) {
	writeError(c, http.StatusBadRequest, msg, "")
}

func HandleNotFound(c *gin.Context, msg string) {
	writeError(c, http.StatusNotFound, msg, "")
}

func writeError(c *gin.Context, status int, msg, code string) {
	c.JSON(status, Response{Error: msg, Code: code})
}
