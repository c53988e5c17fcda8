package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func listMenuHandler(svc menuService) gin.HandlerFunc {
	return func(c *gin.Context) {
		items, err := svc.List(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": items})
	}
}
