package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"landmarket/inquiry"
)

type inquiryHandler struct {
	inquiries *inquiry.Service
}

type inquiryView struct {
	ID             string     `json:"id"`
	LandID         string     `json:"land_id"`
	BuyerID        string     `json:"buyer_id"`
	Subject        string     `json:"subject,omitempty"`
	Message        string     `json:"message"`
	ContactPhone   *string    `json:"contact_phone,omitempty"`
	SellerResponse *string    `json:"seller_response,omitempty"`
	RespondedAt    *time.Time `json:"responded_at,omitempty"`
	ReadAt         *time.Time `json:"read_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

func toInquiryView(i inquiry.Inquiry) inquiryView {
	return inquiryView{
		ID:             i.ID,
		LandID:         i.LandID,
		BuyerID:        i.BuyerID,
		Subject:        i.Subject,
		Message:        i.Message,
		ContactPhone:   i.ContactPhone,
		SellerResponse: i.SellerResponse,
		RespondedAt:    i.RespondedAt,
		ReadAt:         i.ReadAt,
		CreatedAt:      i.CreatedAt,
	}
}

func toInquiryViews(list []inquiry.Inquiry) []inquiryView {
	views := make([]inquiryView, 0, len(list))
	for _, i := range list {
		views = append(views, toInquiryView(i))
	}
	return views
}

type createInquiryRequest struct {
	LandID       string  `json:"land_id"`
	Subject      string  `json:"subject"`
	Message      string  `json:"message"`
	ContactPhone *string `json:"contact_phone"`
}

func (h *inquiryHandler) create(c *gin.Context) {
	var req createInquiryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "InvalidInput", err.Error())
		return
	}

	inq, err := h.inquiries.Create(c.Request.Context(), currentUser(c), inquiry.CreateParams{
		LandID:       req.LandID,
		Subject:      req.Subject,
		Message:      req.Message,
		ContactPhone: req.ContactPhone,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, toInquiryView(inq))
}

func (h *inquiryHandler) get(c *gin.Context) {
	inq, err := h.inquiries.Get(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toInquiryView(inq))
}

type respondRequest struct {
	Response string `json:"response"`
}

func (h *inquiryHandler) respond(c *gin.Context) {
	var req respondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "InvalidInput", err.Error())
		return
	}

	inq, err := h.inquiries.Respond(c.Request.Context(), currentUser(c), c.Param("id"), req.Response)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toInquiryView(inq))
}

func (h *inquiryHandler) markRead(c *gin.Context) {
	inq, err := h.inquiries.MarkRead(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toInquiryView(inq))
}

func inquiryFilters(c *gin.Context) inquiry.Filters {
	return inquiry.Filters{
		OnlyUnread:     c.Query("unread") == "true",
		OnlyUnanswered: c.Query("unanswered") == "true",
		Page:           queryInt(c, "page"),
		PageSize:       queryInt(c, "page_size"),
	}
}

func (h *inquiryHandler) inbox(c *gin.Context) {
	result, err := h.inquiries.Inbox(c.Request.Context(), currentUser(c), inquiryFilters(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, paged{Items: toInquiryViews(result.Items), Total: result.Total})
}

func (h *inquiryHandler) sent(c *gin.Context) {
	result, err := h.inquiries.Sent(c.Request.Context(), currentUser(c), inquiryFilters(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, paged{Items: toInquiryViews(result.Items), Total: result.Total})
}

func (h *inquiryHandler) unreadCount(c *gin.Context) {
	count, err := h.inquiries.UnreadCount(c.Request.Context(), currentUser(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread": count})
}
