package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"branch-inventory-api-server/internal/auth"
	"branch-inventory-api-server/internal/session"
	"branch-inventory-api-server/internal/socket"
)

// Maximum wait for a ping from the client before the channel is considered
// dead.
const pongWait = 30 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type WebSocketHandler struct {
	Hub      *socket.Hub
	Sessions *session.Registry
	Log      *zap.SugaredLogger
}

// ServeWs opens the change-feed subscription for one session. Browsers cannot
// set an Authorization header on a websocket upgrade, so the token rides in
// the query string. The subscription is released when the connection drops or
// the session signs out, whichever comes first.
func (h *WebSocketHandler) ServeWs(c *gin.Context) {
	tokenString := c.Query("token")
	if tokenString == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Token is required"})
		return
	}

	claims, err := auth.ParseJWT(tokenString)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
		return
	}

	if _, ok := h.Sessions.Get(claims.SessionID); !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Session is no longer active"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.Log.Warnw("failed to upgrade connection", "err", err)
		return
	}

	h.Hub.Register(claims.UserID, claims.SessionID, conn)

	defer func() {
		h.Hub.Unregister(claims.UserID, claims.SessionID)
		conn.Close()
	}()

	// Client pings act as the heartbeat; each one extends the read deadline.
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPingHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, _, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				h.Log.Warnw("unexpected close on feed channel", "userID", claims.UserID, "err", err)
			}
			break
		}
	}
}
