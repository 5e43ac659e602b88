package identity

import (
	"net/http"
	"time"

	"github.com/beka-birhanu/vinom-maze-race/service/i"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// GuestResponse carries the identity handed to a guest.
type GuestResponse struct {
	PlayerID string `json:"player_id"`
	Token    string `json:"token"`
}

// IdentityServer hands out player tokens.
type IdentityServer struct {
	tokenizer i.Tokenizer
	tokenTTL  time.Duration
}

// NewIdentityServer creates a new IdentityServer.
func NewIdentityServer(t i.Tokenizer, tokenTTL time.Duration) *IdentityServer {
	return &IdentityServer{
		tokenizer: t,
		tokenTTL:  tokenTTL,
	}
}

// RegisterPublic registers public routes.
func (c *IdentityServer) RegisterPublic(route *gin.RouterGroup) {
	auth := route.Group("/auth")
	{
		auth.POST("/guest", c.guest)
	}
}

// RegisterProtected registers privileged routes.
func (c *IdentityServer) RegisterProtected(route *gin.RouterGroup) {
}

// guest issues a token for a brand new player. Callers never choose the id.
func (c *IdentityServer) guest(ctx *gin.Context) {
	playerID := uuid.New()
	token, err := c.tokenizer.Generate(map[string]interface{}{ClaimPlayerID: playerID.String()}, c.tokenTTL)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "error while issuing token"})
		return
	}

	ctx.JSON(http.StatusCreated, &GuestResponse{PlayerID: playerID.String(), Token: token})
}
