package handlers

import (
	"net/http"
	"time"

	"busbooking/internal/http/middleware"
	"busbooking/internal/utils"

	"github.com/gin-gonic/gin"
)

// POST /api/client-id
// Browser tanpa login memakai id ini sebagai header X-Client-ID.
func (h *Handler) IssueClientID(c *gin.Context) {
	now := time.Now()
	id, err := middleware.NewClientID(h.JWTSecret, now)
	if err != nil {
		utils.LogWarn(middleware.GetRequestID(c), "identity", "issue_client_id", err)
		respondError(c, http.StatusInternalServerError, "internal_error", "gagal membuat client id", nil)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"clientId":  id,
		"expiresAt": now.Add(middleware.ClientIDTTL).UTC(),
	})
}
