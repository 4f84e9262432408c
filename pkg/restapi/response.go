package restapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"highlight-service/pkg/errno"
)

// Response is the uniform JSON envelope returned by every endpoint.
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Success writes a 200 envelope with the given payload.
func Success(ctx *gin.Context, data interface{}) {
	ctx.JSON(http.StatusOK, Response{
		Code:    errno.OK.Code,
		Message: errno.OK.Message,
		Data:    data,
	})
}

// Failed decodes err into a business code and writes the envelope. Business
// codes in the 4xx range keep their HTTP status; everything else maps to 200
// with the code carried in the body, matching the gateway contract.
func Failed(ctx *gin.Context, err error) {
	code, message := errno.DecodeErr(err)
	status := http.StatusOK
	switch {
	case code >= 400 && code < 500:
		status = code
	case code >= 500 && code < 600:
		status = http.StatusInternalServerError
	}
	ctx.JSON(status, Response{Code: code, Message: message})
}
