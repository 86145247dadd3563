package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/hrdmtr/genbapower-sub000/sim"
)

// errorResponse is the JSON body of every failed request.
type errorResponse struct {
	Error  string        `json:"error"`
	Kind   sim.ErrorKind `json:"kind,omitempty"`
	Reason sim.Reason    `json:"reason,omitempty"`
}

// statusFor maps a command error to an HTTP status.
func statusFor(err error) int {
	switch sim.KindOf(err) {
	case sim.KindResourceExhausted:
		return http.StatusConflict
	case sim.KindPreconditionFailed:
		return http.StatusUnprocessableEntity
	case sim.KindInvalidReference:
		return http.StatusNotFound
	}
	switch {
	case errors.Is(err, sim.ErrLoopStopped):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func writeError(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logrus.Errorf("%s %s: %v", c.Request.Method, c.FullPath(), err)
	}
	c.AbortWithStatusJSON(status, errorResponse{
		Error:  err.Error(),
		Kind:   sim.KindOf(err),
		Reason: sim.ReasonOf(err),
	})
}

func badRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
}
