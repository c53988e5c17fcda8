package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tiffinbox/internal/domain"
)

func checkoutHandler(orders orderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		order, err := orders.Checkout(c.Request.Context(), currentUserID(c))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, order)
	}
}

func listOrdersHandler(orders orderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := orders.ListMine(c.Request.Context(), currentUserID(c))
		if err != nil {
			respondError(c, err)
			return
		}
		if list == nil {
			list = []domain.Order{}
		}
		c.JSON(http.StatusOK, gin.H{"orders": list})
	}
}

func getOrderHandler(orders orderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		order, err := orders.Get(c.Request.Context(), c.Param("orderID"))
		if err != nil {
			respondError(c, err)
			return
		}
		// Customers may only read their own orders.
		if order.CustomerID != currentUserID(c) && c.GetString(ctxUserRole) != domain.RoleOwner {
			respondError(c, domain.ErrNotFound)
			return
		}
		c.JSON(http.StatusOK, order)
	}
}
