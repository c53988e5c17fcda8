package httpserver

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"tiffinbox/internal/domain"
)

// planResponse wraps the stored plan with its derived status so clients
// never re-derive it themselves.
type planResponse struct {
	Plan   domain.Plan       `json:"plan"`
	Status domain.PlanStatus `json:"status"`
}

func getPlanHandler(plans planService) gin.HandlerFunc {
	return func(c *gin.Context) {
		customer, err := plans.Get(c.Request.Context(), currentUserID(c))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, planResponse{
			Plan:   customer.Plan,
			Status: customer.Plan.Status(time.Now()),
		})
	}
}

func submitReceiptHandler(plans planService) gin.HandlerFunc {
	return func(c *gin.Context) {
		fileHeader, err := c.FormFile("receipt")
		if err != nil {
			c.JSON(http.StatusBadRequest, errorBody("invalid_request", "receipt file required"))
			return
		}
		file, err := fileHeader.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, errorBody("invalid_request", "cannot read receipt file"))
			return
		}
		defer file.Close()

		customer, err := plans.SubmitReceipt(
			c.Request.Context(),
			currentUserID(c),
			fileHeader.Filename,
			fileHeader.Header.Get("Content-Type"),
			file,
		)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, planResponse{
			Plan:   customer.Plan,
			Status: customer.Plan.Status(time.Now()),
		})
	}
}

func requestRenewalHandler(plans planService) gin.HandlerFunc {
	return func(c *gin.Context) {
		customer, err := plans.RequestRenewal(c.Request.Context(), currentUserID(c))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, planResponse{
			Plan:   customer.Plan,
			Status: customer.Plan.Status(time.Now()),
		})
	}
}
