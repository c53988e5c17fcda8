package httpserver

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

// eventsHandler streams committed plan/order changes as server-sent events
// so clients can refresh without polling.
func eventsHandler(events eventSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		if events == nil {
			c.JSON(http.StatusServiceUnavailable, errorBody("unavailable", "event stream not configured"))
			return
		}

		ch, cancel := events.Subscribe()
		defer cancel()

		c.Writer.Header().Set("Content-Type", "text/event-stream")
		c.Writer.Header().Set("Cache-Control", "no-cache")
		c.Writer.Header().Set("Connection", "keep-alive")

		c.Stream(func(w io.Writer) bool {
			select {
			case ev, ok := <-ch:
				if !ok {
					return false
				}
				c.SSEvent(ev.Kind, ev)
				return true
			case <-c.Request.Context().Done():
				return false
			}
		})
	}
}
