package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/campuskit/arp-api/internal/authz"
	"github.com/campuskit/arp-api/internal/middleware"
	"github.com/campuskit/arp-api/internal/models"
	"github.com/campuskit/arp-api/pkg/response"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

func principalFromContext(c *gin.Context) *authz.Principal {
	claims := claimsFromContext(c)
	if claims == nil {
		return nil
	}
	return &authz.Principal{UserID: claims.UserID, Role: claims.Role}
}

// authorize runs one access decision and, on denial, writes the error
// response. Returns false when the request must not proceed.
func authorize(c *gin.Context, engine *authz.Engine, action authz.Action, resource authz.ResourceDescriptor) bool {
	decision := engine.Decide(c.Request.Context(), principalFromContext(c), action, resource)
	if !decision.Allowed {
		response.Error(c, authz.DenyError(decision))
		return false
	}
	return true
}
