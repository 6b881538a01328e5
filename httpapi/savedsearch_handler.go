package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"landmarket/listing"
	"landmarket/savedsearch"
)

type savedSearchHandler struct {
	searches *savedsearch.Service
}

type savedSearchView struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Query        string    `json:"query,omitempty"`
	Location     string    `json:"location,omitempty"`
	PropertyType string    `json:"property_type,omitempty"`
	PriceMin     float64   `json:"price_min,omitempty"`
	PriceMax     float64   `json:"price_max,omitempty"`
	SizeMin      float64   `json:"size_min,omitempty"`
	SizeMax      float64   `json:"size_max,omitempty"`
	EmailAlerts  bool      `json:"email_alerts"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func toSavedSearchView(s savedsearch.SavedSearch) savedSearchView {
	return savedSearchView{
		ID:           s.ID,
		Name:         s.Name,
		Query:        s.Query,
		Location:     s.Location,
		PropertyType: string(s.PropertyType),
		PriceMin:     s.PriceMin,
		PriceMax:     s.PriceMax,
		SizeMin:      s.SizeMin,
		SizeMax:      s.SizeMax,
		EmailAlerts:  s.EmailAlerts,
		Active:       s.Active,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}
}

type savedSearchRequest struct {
	Name         string  `json:"name"`
	Query        string  `json:"query"`
	Location     string  `json:"location"`
	PropertyType string  `json:"property_type"`
	PriceMin     float64 `json:"price_min"`
	PriceMax     float64 `json:"price_max"`
	SizeMin      float64 `json:"size_min"`
	SizeMax      float64 `json:"size_max"`
	EmailAlerts  bool    `json:"email_alerts"`
}

func (r savedSearchRequest) params() savedsearch.Params {
	return savedsearch.Params{
		Name:         r.Name,
		Query:        r.Query,
		Location:     r.Location,
		PropertyType: listing.PropertyType(r.PropertyType),
		PriceMin:     r.PriceMin,
		PriceMax:     r.PriceMax,
		SizeMin:      r.SizeMin,
		SizeMax:      r.SizeMax,
		EmailAlerts:  r.EmailAlerts,
	}
}

func (h *savedSearchHandler) create(c *gin.Context) {
	var req savedSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "InvalidInput", err.Error())
		return
	}

	search, err := h.searches.Create(c.Request.Context(), currentUser(c), req.params())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, toSavedSearchView(search))
}

func (h *savedSearchHandler) get(c *gin.Context) {
	search, err := h.searches.Get(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toSavedSearchView(search))
}

func (h *savedSearchHandler) update(c *gin.Context) {
	var req savedSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "InvalidInput", err.Error())
		return
	}

	search, err := h.searches.Update(c.Request.Context(), currentUser(c), c.Param("id"), req.params())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toSavedSearchView(search))
}

func (h *savedSearchHandler) toggle(c *gin.Context) {
	search, err := h.searches.Toggle(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toSavedSearchView(search))
}

func (h *savedSearchHandler) delete(c *gin.Context) {
	if err := h.searches.Delete(c.Request.Context(), currentUser(c), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *savedSearchHandler) list(c *gin.Context) {
	filters := savedsearch.ListFilters{
		Page:     queryInt(c, "page"),
		PageSize: queryInt(c, "page_size"),
	}
	switch c.Query("status") {
	case "active":
		active := true
		filters.Active = &active
	case "inactive":
		inactive := false
		filters.Active = &inactive
	}

	searches, total, err := h.searches.List(c.Request.Context(), currentUser(c), filters)
	if err != nil {
		fail(c, err)
		return
	}

	views := make([]savedSearchView, 0, len(searches))
	for _, s := range searches {
		views = append(views, toSavedSearchView(s))
	}
	c.JSON(http.StatusOK, paged{Items: views, Total: total})
}

func (h *savedSearchHandler) results(c *gin.Context) {
	result, err := h.searches.Results(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, paged{Items: toLandViews(result.Items), Total: result.Total})
}
