package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tiffinbox/internal/domain"
)

func pendingPaymentsHandler(svc approvalService) gin.HandlerFunc {
	return func(c *gin.Context) {
		payments, err := svc.PendingPayments(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"payments": payments})
	}
}

func approvePaymentHandler(svc approvalService) gin.HandlerFunc {
	return func(c *gin.Context) {
		customer, err := svc.ApprovePayment(c.Request.Context(), c.Param("customerID"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, customer)
	}
}

func rejectPaymentHandler(svc approvalService) gin.HandlerFunc {
	return func(c *gin.Context) {
		customer, err := svc.RejectPayment(c.Request.Context(), c.Param("customerID"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, customer)
	}
}

func ownerOrdersHandler(svc approvalService) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := domain.OrderStatus(c.DefaultQuery("status", string(domain.OrderPending)))
		switch status {
		case domain.OrderPending, domain.OrderApproved, domain.OrderCancelled:
		default:
			c.JSON(http.StatusBadRequest, errorBody("invalid_request", "unknown order status"))
			return
		}
		orders, err := svc.Orders(c.Request.Context(), status)
		if err != nil {
			respondError(c, err)
			return
		}
		if orders == nil {
			orders = []domain.Order{}
		}
		c.JSON(http.StatusOK, gin.H{"orders": orders})
	}
}

func approveOrderHandler(svc approvalService) gin.HandlerFunc {
	return func(c *gin.Context) {
		order, err := svc.ApproveOrder(c.Request.Context(), c.Param("orderID"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, order)
	}
}

func cancelOrderHandler(svc approvalService) gin.HandlerFunc {
	return func(c *gin.Context) {
		order, err := svc.CancelOrder(c.Request.Context(), c.Param("orderID"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, order)
	}
}

func dashboardHandler(svc approvalService) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := svc.Stats(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, stats)
	}
}
