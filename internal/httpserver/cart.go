package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tiffinbox/internal/domain"
)

type addCartItemRequest struct {
	ItemID string `json:"itemId" binding:"required"`
}

type setCartItemRequest struct {
	Quantity int `json:"quantity" binding:"min=0,max=10"`
}

type cartLineResponse struct {
	ItemID         string `json:"itemId"`
	Name           string `json:"name"`
	Quantity       int    `json:"quantity"`
	UnitPricePaise int64  `json:"unitPricePaise"`
	LineTotalPaise int64  `json:"lineTotalPaise"`
}

type cartResponse struct {
	Lines         []cartLineResponse `json:"lines"`
	TotalQuantity int                `json:"totalQuantity"`
	SubtotalPaise int64              `json:"subtotalPaise"`
}

func getCartHandler(carts cartService, menu menuService) gin.HandlerFunc {
	return func(c *gin.Context) {
		customerID := currentUserID(c)
		lines := carts.Lines(customerID)

		resp := cartResponse{Lines: []cartLineResponse{}}
		if len(lines) == 0 {
			c.JSON(http.StatusOK, resp)
			return
		}

		ids := make([]string, 0, len(lines))
		for _, l := range lines {
			ids = append(ids, l.ItemID)
		}
		items, err := menu.GetByIDs(c.Request.Context(), ids)
		if err != nil {
			respondError(c, err)
			return
		}

		for _, l := range lines {
			item := items[l.ItemID]
			lineTotal := item.UnitPricePaise * int64(l.Quantity)
			resp.Lines = append(resp.Lines, cartLineResponse{
				ItemID:         l.ItemID,
				Name:           item.Name,
				Quantity:       l.Quantity,
				UnitPricePaise: item.UnitPricePaise,
				LineTotalPaise: lineTotal,
			})
			resp.TotalQuantity += l.Quantity
			resp.SubtotalPaise += lineTotal
		}
		c.JSON(http.StatusOK, resp)
	}
}

func addCartItemHandler(carts cartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req addCartItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, errorBody("invalid_request", err.Error()))
			return
		}
		if err := carts.Add(c.Request.Context(), currentUserID(c), req.ItemID); err != nil {
			respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func setCartItemHandler(carts cartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req setCartItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, domain.ErrQuantityOutOfRange)
			return
		}
		carts.SetQuantity(currentUserID(c), c.Param("itemID"), req.Quantity)
		c.Status(http.StatusNoContent)
	}
}

func removeCartItemHandler(carts cartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		carts.Remove(currentUserID(c), c.Param("itemID"))
		c.Status(http.StatusNoContent)
	}
}

func clearCartHandler(carts cartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		carts.Clear(currentUserID(c))
		c.Status(http.StatusNoContent)
	}
}
