package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"landmarket/access"
	"landmarket/identity"
	"landmarket/listing"
)

type adminHandler struct {
	users    *identity.Service
	listings *listing.Service
}

func (h *adminHandler) moderationQueue(c *gin.Context) {
	filters := listing.ModerationFilters{
		Status:   listing.Status(c.Query("status")),
		Query:    c.Query("q"),
		Page:     queryInt(c, "page"),
		PageSize: queryInt(c, "page_size"),
	}

	result, err := h.listings.ListForModeration(c.Request.Context(), currentUser(c), filters)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, paged{Items: toLandViews(result.Items), Total: result.Total})
}

func (h *adminHandler) approve(c *gin.Context) {
	land, err := h.listings.Approve(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toLandView(land))
}

type rejectRequest struct {
	AdminNotes string `json:"admin_notes"`
}

func (h *adminHandler) reject(c *gin.Context) {
	var req rejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "InvalidInput", err.Error())
		return
	}

	land, err := h.listings.Reject(c.Request.Context(), currentUser(c), c.Param("id"), req.AdminNotes)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toLandView(land))
}

type setActiveRequest struct {
	Active *bool `json:"active"`
}

func (h *adminHandler) setUserActive(c *gin.Context) {
	var req setActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Active == nil {
		writeError(c, http.StatusBadRequest, "InvalidInput", "active required")
		return
	}

	if err := access.Require(currentUser(c), access.ActionSetUserActive, access.Resource{}); err != nil {
		fail(c, err)
		return
	}

	user, err := h.users.SetActive(c.Request.Context(), c.Param("id"), *req.Active)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserView(*user))
}
