package handlers

import (
	"net/http"

	"tasks_api/internal/logger"
	"tasks_api/internal/service"
	"tasks_api/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// WS upgrades to the owner's live task feed. Browsers cannot set headers on
// websocket requests, so the token may also come as ?token=.
func WS(hub *ws.Hub, extractor *service.IdentityExtractor, allowedOrigin string) gin.HandlerFunc {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			if allowedOrigin == "" {
				return true
			}
			return r.Header.Get("Origin") == allowedOrigin
		},
	}

	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			if token := c.Query("token"); token != "" {
				header = "Bearer " + token
			}
		}

		owner, err := extractor.Owner(header)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Warn("ws upgrade failed", "owner", owner, "error", err)
			return
		}

		go ws.NewClient(owner, conn, hub).Run()
	}
}
