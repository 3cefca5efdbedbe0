package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/apidex-io/apidex/internal/domain/entity"
)

// userJSON is the only serialized form of a user; the password hash never
// appears in it.
func userJSON(u *entity.User) gin.H {
	return gin.H{
		"id":         u.ID,
		"username":   u.Username,
		"email":      u.Email,
		"avatar_url": u.AvatarURL,
		"created_at": u.CreatedAt,
		"updated_at": u.UpdatedAt,
	}
}

func apiJSON(a *entity.APIEntry) gin.H {
	return gin.H{
		"id":          a.ID,
		"user_id":     a.UserID,
		"name":        a.Name,
		"description": a.Description,
		"endpoint":    a.Endpoint,
		"method":      a.Method,
		"status":      a.Status,
		"created_at":  a.CreatedAt,
		"updated_at":  a.UpdatedAt,
	}
}
