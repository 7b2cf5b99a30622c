package response

import "github.com/gin-gonic/gin"

const (
	CodeOK                 = 0
	CodeBadRequest         = 40000
	CodeUsernameExists     = 40001
	CodeInvalidMessages    = 40002
	CodeUnauthorized       = 40100
	CodeInvalidCredentials = 40101
	CodeChatNotFound       = 40401
	CodeInternalServer     = 50000
	CodeUnavailable        = 50300
)

const (
	MsgUsernameExists     = "El usuario ya existe"
	MsgInvalidCredentials = "Credenciales incorrectas o usuario no existe"
	MsgMissingFields      = "Por favor completa todos los campos"
	MsgPasswordTooLong    = "La contraseña no puede superar 72 bytes"
)

// RequestIDKey is the gin context key holding the request id.
const RequestIDKey = "request_id"

type APIResponse struct {
	Code      int         `json:"code"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
}

func OK(c *gin.Context, data interface{}) {
	c.JSON(200, APIResponse{
		Code:      CodeOK,
		Message:   "ok",
		Data:      data,
		RequestID: c.GetString(RequestIDKey),
	})
}

func Error(c *gin.Context, httpStatus, code int, message string) {
	c.JSON(httpStatus, APIResponse{
		Code:      code,
		Message:   message,
		RequestID: c.GetString(RequestIDKey),
	})
}
