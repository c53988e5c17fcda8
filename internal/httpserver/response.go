package httpserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"tiffinbox/internal/domain"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func errorBody(code, message string) errorResponse {
	return errorResponse{Code: code, Message: message}
}

// respondError maps domain errors onto HTTP statuses with a structured
// error envelope.
func respondError(c *gin.Context, err error) {
	if ce, ok := domain.AsCapacityError(err); ok {
		c.JSON(http.StatusConflict, errorBody(string(ce.Reason), ce.Error()))
		return
	}

	switch {
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, errorBody("not_found", err.Error()))
	case errors.Is(err, domain.ErrEmptyCart),
		errors.Is(err, domain.ErrQuantityOutOfRange),
		errors.Is(err, domain.ErrRenewalNotDue):
		c.JSON(http.StatusBadRequest, errorBody("invalid_request", err.Error()))
	case errors.Is(err, domain.ErrAlreadyDecided):
		c.JSON(http.StatusConflict, errorBody("already_decided", err.Error()))
	case errors.Is(err, domain.ErrNoPendingPayment):
		c.JSON(http.StatusConflict, errorBody("no_pending_payment", err.Error()))
	case errors.Is(err, domain.ErrLedgerConflict):
		c.JSON(http.StatusConflict, errorBody("ledger_conflict", err.Error()))
	default:
		c.JSON(http.StatusInternalServerError, errorBody("internal", "internal error"))
	}
}
