package api

import (
	"net/http"                     // HTTP status codes
	"thrift_market/internal/chat"  // Websocket hub and client
	"thrift_market/internal/utils" // JWT utility functions

	"github.com/gin-gonic/gin"      // Gin web framework
	"github.com/gorilla/websocket"  // Websocket transport
	"github.com/sirupsen/logrus"    // Logging library
	"gorm.io/gorm"                  // GORM ORM library
)

// upgrader performs the HTTP -> websocket upgrade. Origin checking is
// delegated to the deployment's reverse proxy.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ServeWSHandler authenticates the handshake with the same JWT used by
// the REST surface (passed as the token query parameter, since
// browsers cannot set headers on websocket connections), upgrades the
// connection and hands it to the chat hub.
func ServeWSHandler(hub *chat.Hub, db *gorm.DB, jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token") // Bearer token from the handshake
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Missing token"})
			return
		}
		claims, err := utils.ParseJWT(token, jwtSecret)
		if err != nil {
			// Reject the handshake on a bad token
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logrus.WithField("error", err.Error()).Warn("Websocket upgrade failed")
			return
		}
		client := &chat.Client{
			Hub:    hub,
			Conn:   conn,
			Send:   make(chan []byte, 256),
			UserID: claims.UserID,
			DB:     db,
		}
		client.Hub.Register <- client
		// One writer goroutine per connection; the reader runs on this
		// goroutine until the peer disconnects
		go client.WritePump()
		go client.ReadPump()
	}
}
