package http

import (
	"errors"
	"net/http"

	"github.com/vinaysengar-17/stock-trading/internal/domain/entity/trading"

	"github.com/gin-gonic/gin"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

type envelope struct {
	Status  string `json:"status"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message"`
}

func writeSuccess(c *gin.Context, status int, data any, message string) {
	c.JSON(status, envelope{Status: statusSuccess, Data: data, Message: message})
}

func writeMessage(c *gin.Context, status int, message string) {
	c.JSON(status, envelope{Status: statusError, Message: message})
}

func writeError(c *gin.Context, status int, err error) {
	if err == nil {
		status = http.StatusInternalServerError
		err = errors.New("unknown error")
	}
	writeMessage(c, status, err.Error())
}

// writeDomainError maps service errors to a status code. Validation failures carry their field list in data.
func writeDomainError(c *gin.Context, err error) {
	var verr *trading.ValidationError
	if errors.As(err, &verr) {
		c.JSON(http.StatusBadRequest, envelope{Status: statusError, Data: verr.Fields, Message: verr.Error()})
		return
	}
	writeError(c, statusFor(err), err)
}

func statusFor(err error) int {
	var (
		noLots       *trading.NoOpenLotsError
		insufficient *trading.InsufficientInventoryError
	)
	switch {
	case errors.Is(err, trading.ErrTradeNotFound), errors.Is(err, trading.ErrLotNotFound):
		return http.StatusNotFound
	case errors.As(err, &noLots), errors.As(err, &insufficient):
		return http.StatusUnprocessableEntity
	case errors.Is(err, trading.ErrConcurrentModification):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
