package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/hamroengineering/hamro/internal/model"
	"github.com/hamroengineering/hamro/internal/ws"
	"github.com/hamroengineering/hamro/pkg/auth"
	"github.com/rs/zerolog/log"
)

// WSHandler handles WebSocket connections
type WSHandler struct {
	hub        *ws.Hub
	jwtManager *auth.JWTManager
	blacklist  auth.Blacklist
	upgrader   websocket.Upgrader
}

func NewWSHandler(hub *ws.Hub, jwtManager *auth.JWTManager, blacklist auth.Blacklist, origins []string) *WSHandler {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}

	return &WSHandler{
		hub:        hub,
		jwtManager: jwtManager,
		blacklist:  blacklist,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowed["*"] || allowed[origin]
			},
		},
	}
}

// HandleWebSocket upgrades HTTP to WebSocket and registers the connection with the hub.
// Client connects with: ws://host/ws?token=<jwt_token>
func (h *WSHandler) HandleWebSocket(c *gin.Context) {
	// Authenticate via query parameter (browsers can't set headers on WebSocket requests)
	tokenString := c.Query("token")
	if tokenString == "" {
		c.JSON(http.StatusUnauthorized, model.ErrorResponse{Error: "Token required"})
		return
	}

	claims, err := h.jwtManager.ValidateToken(tokenString)
	if err != nil {
		c.JSON(http.StatusUnauthorized, model.ErrorResponse{Error: "Invalid token"})
		return
	}
	revoked, err := h.blacklist.IsRevoked(c.Request.Context(), tokenString)
	if err != nil {
		log.Error().Err(err).Msg("Blacklist lookup failed")
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: "Auth server error"})
		return
	}
	if revoked {
		c.JSON(http.StatusUnauthorized, model.ErrorResponse{Error: "Token has been revoked"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Err(err).Msg("WebSocket upgrade error")
		return
	}

	client := ws.NewClient(h.hub, conn, claims.UserID)
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}
