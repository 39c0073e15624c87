package helpers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// statusError is implemented by business errors that know their HTTP status.
type statusError interface {
	error
	HTTPStatus() int
	PublicMessage() string
}

func HTTPStatusText(code int) string {
	return http.StatusText(code)
}

func RespondWithError(c *gin.Context, statusCode int, customMessage string) {
	c.AbortWithStatusJSON(statusCode, ErrorResponse{
		Error:   HTTPStatusText(statusCode),
		Message: customMessage,
	})
}

// RespondWithServiceError writes business errors with their own status and
// message. Anything else is logged and answered with a generic 500.
func RespondWithServiceError(c *gin.Context, log *logrus.Logger, err error) {
	var se statusError
	if errors.As(err, &se) {
		RespondWithError(c, se.HTTPStatus(), se.PublicMessage())
		return
	}

	_ = c.Error(err)
	log.WithError(err).WithFields(logrus.Fields{
		"method": c.Request.Method,
		"path":   c.FullPath(),
	}).Error("request failed")
	RespondWithError(c, http.StatusInternalServerError, "Something went wrong. Please try again later.")
}
