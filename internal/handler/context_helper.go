package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/sstb-school/student-affairs-api/internal/middleware"
	"github.com/sstb-school/student-affairs-api/internal/models"
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

// actorFromContext derives the capability-bearing actor. A nil return means
// guest access, which several routes accept.
func actorFromContext(c *gin.Context) *models.Actor {
	return claimsFromContext(c).Actor()
}
