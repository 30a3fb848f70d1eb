package handlers

import (
	"net/http"

	"busbooking/internal/domain"
	"busbooking/internal/services"

	"github.com/gin-gonic/gin"
)

type completeRequest struct {
	Token     string `json:"token"`
	SessionID string `json:"sessionId"`
}

// StartCheckout creates the booking session and returns the payment redirect.
// When the provider call fails the token is still returned so the client can retry.
func (h *Handler) StartCheckout(c *gin.Context) {
	var req services.CheckoutRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	out, err := h.checkout(c).Start(c.Request.Context(), ownerOf(c), req)
	if err != nil {
		if out.Token != "" {
			respondDomainError(c, err, gin.H{"token": out.Token, "retry": true})
			return
		}
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

// RetryCheckout re-opens the payment redirect for the stored session.
func (h *Handler) RetryCheckout(c *gin.Context) {
	out, err := h.checkout(c).Retry(c.Request.Context(), ownerOf(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) GetCheckout(c *gin.Context) {
	record, err := h.sessions(c).Current(c.Request.Context(), ownerOf(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": record})
}

// CompleteCheckout is called from the payment success page. Token and
// session_id may come from the query string or the body.
func (h *Handler) CompleteCheckout(c *gin.Context) {
	req := completeRequest{Token: c.Query("token"), SessionID: c.Query("session_id")}
	if c.Request.ContentLength > 0 {
		var body completeRequest
		if !BindJSONOrError(c, &body) {
			return
		}
		if body.Token != "" {
			req.Token = body.Token
		}
		if body.SessionID != "" {
			req.SessionID = body.SessionID
		}
	}
	if req.Token == "" {
		RespondDomainError(c, domain.ValidationError{Field: "token", Msg: "token is required"})
		return
	}

	res, err := h.checkout(c).Complete(c.Request.Context(), ownerOf(c), req.Token, req.SessionID)
	if err != nil {
		if domain.IsInternal(err) || domain.IsPartialMaterialization(err) || domain.IsTotalMaterializationFailure(err) {
			respondDomainError(c, err, res)
			return
		}
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// AbandonCheckout drops a session that has not reached the payment provider.
func (h *Handler) AbandonCheckout(c *gin.Context) {
	if err := h.sessions(c).Abandon(c.Request.Context(), ownerOf(c)); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
