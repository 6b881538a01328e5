package httpapi

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"landmarket/listing"
)

type listingHandler struct {
	listings *listing.Service
}

type landView struct {
	ID           string      `json:"id"`
	OwnerID      string      `json:"owner_id"`
	Title        string      `json:"title"`
	Description  string      `json:"description"`
	Price        float64     `json:"price"`
	SizeAcres    float64     `json:"size_acres"`
	Location     string      `json:"location"`
	Address      string      `json:"address,omitempty"`
	PropertyType string      `json:"property_type"`
	Status       string      `json:"status"`
	IsApproved   bool        `json:"is_approved"`
	AdminNotes   string      `json:"admin_notes,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
	Images       []imageView `json:"images,omitempty"`
}

type imageView struct {
	ID        string `json:"id"`
	Ref       string `json:"ref"`
	AltText   string `json:"alt_text,omitempty"`
	IsPrimary bool   `json:"is_primary"`
	Position  int    `json:"position"`
}

func toLandView(l listing.Land) landView {
	view := landView{
		ID:           l.ID,
		OwnerID:      l.OwnerID,
		Title:        l.Title,
		Description:  l.Description,
		Price:        l.Price,
		SizeAcres:    l.SizeAcres,
		Location:     l.Location,
		Address:      l.Address,
		PropertyType: string(l.PropertyType),
		Status:       string(l.Status),
		IsApproved:   l.IsApproved(),
		AdminNotes:   l.AdminNotes,
		CreatedAt:    l.CreatedAt,
		UpdatedAt:    l.UpdatedAt,
	}
	for _, img := range l.Images {
		view.Images = append(view.Images, imageView{
			ID:        img.ID,
			Ref:       img.Ref,
			AltText:   img.AltText,
			IsPrimary: img.IsPrimary,
			Position:  img.Position,
		})
	}
	return view
}

func toLandViews(list []listing.Land) []landView {
	views := make([]landView, 0, len(list))
	for _, l := range list {
		views = append(views, toLandView(l))
	}
	return views
}

type createListingRequest struct {
	Title        string  `json:"title"`
	Description  string  `json:"description"`
	Price        float64 `json:"price"`
	SizeAcres    float64 `json:"size_acres"`
	Location     string  `json:"location"`
	Address      string  `json:"address"`
	PropertyType string  `json:"property_type"`
}

func (h *listingHandler) create(c *gin.Context) {
	var req createListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "InvalidInput", err.Error())
		return
	}

	land, err := h.listings.Create(c.Request.Context(), currentUser(c), listing.CreateParams{
		Title:        req.Title,
		Description:  req.Description,
		Price:        req.Price,
		SizeAcres:    req.SizeAcres,
		Location:     req.Location,
		Address:      req.Address,
		PropertyType: listing.PropertyType(req.PropertyType),
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, toLandView(land))
}

func (h *listingHandler) get(c *gin.Context) {
	land, err := h.listings.Get(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toLandView(land))
}

type updateListingRequest struct {
	Title        *string  `json:"title"`
	Description  *string  `json:"description"`
	Price        *float64 `json:"price"`
	SizeAcres    *float64 `json:"size_acres"`
	Location     *string  `json:"location"`
	Address      *string  `json:"address"`
	PropertyType *string  `json:"property_type"`
}

func (h *listingHandler) update(c *gin.Context) {
	var req updateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "InvalidInput", err.Error())
		return
	}

	params := listing.UpdateParams{
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		SizeAcres:   req.SizeAcres,
		Location:    req.Location,
		Address:     req.Address,
	}
	if req.PropertyType != nil {
		pt := listing.PropertyType(*req.PropertyType)
		params.PropertyType = &pt
	}

	land, err := h.listings.Update(c.Request.Context(), currentUser(c), c.Param("id"), params)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toLandView(land))
}

func (h *listingHandler) submit(c *gin.Context) {
	land, err := h.listings.Submit(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toLandView(land))
}

func (h *listingHandler) markSold(c *gin.Context) {
	land, err := h.listings.MarkSold(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toLandView(land))
}

func (h *listingHandler) delete(c *gin.Context) {
	if err := h.listings.Delete(c.Request.Context(), currentUser(c), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *listingHandler) search(c *gin.Context) {
	filters := listing.Filters{
		Query:    c.Query("q"),
		Location: c.Query("location"),
		PriceMin: queryFloat(c, "price_min"),
		PriceMax: queryFloat(c, "price_max"),
		SizeMin:  queryFloat(c, "size_min"),
		SizeMax:  queryFloat(c, "size_max"),
		Page:     queryInt(c, "page"),
		PageSize: queryInt(c, "page_size"),
	}
	for _, t := range strings.Split(c.Query("property_type"), ",") {
		if t = strings.TrimSpace(t); t != "" {
			filters.PropertyTypes = append(filters.PropertyTypes, listing.PropertyType(t))
		}
	}
	switch c.Query("sort") {
	case "price_asc":
		filters.SortBy = listing.SortByPrice
	case "price_desc":
		filters.SortBy = listing.SortByPrice
		filters.Descending = true
	case "size_asc":
		filters.SortBy = listing.SortBySize
	case "size_desc":
		filters.SortBy = listing.SortBySize
		filters.Descending = true
	case "oldest":
		filters.SortBy = listing.SortByCreated
	}

	result, err := h.listings.Search(c.Request.Context(), filters)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, paged{Items: toLandViews(result.Items), Total: result.Total})
}

func (h *listingHandler) listMine(c *gin.Context) {
	filters := listing.OwnerFilters{
		Status:   listing.Status(c.Query("status")),
		Query:    c.Query("q"),
		Page:     queryInt(c, "page"),
		PageSize: queryInt(c, "page_size"),
	}

	result, err := h.listings.ListMine(c.Request.Context(), currentUser(c), filters)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, paged{Items: toLandViews(result.Items), Total: result.Total})
}

func (h *listingHandler) stats(c *gin.Context) {
	counts, err := h.listings.Stats(c.Request.Context(), currentUser(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, counts)
}

type addImageRequest struct {
	Ref       string `json:"ref"`
	AltText   string `json:"alt_text"`
	IsPrimary bool   `json:"is_primary"`
}

func (h *listingHandler) addImage(c *gin.Context) {
	var req addImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "InvalidInput", err.Error())
		return
	}

	img, err := h.listings.AddImage(c.Request.Context(), currentUser(c), c.Param("id"), listing.AddImageParams{
		Ref:       req.Ref,
		AltText:   req.AltText,
		IsPrimary: req.IsPrimary,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, imageView{
		ID:        img.ID,
		Ref:       img.Ref,
		AltText:   img.AltText,
		IsPrimary: img.IsPrimary,
		Position:  img.Position,
	})
}

func (h *listingHandler) deleteImage(c *gin.Context) {
	if err := h.listings.DeleteImage(c.Request.Context(), currentUser(c), c.Param("id"), c.Param("imageID")); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *listingHandler) setPrimaryImage(c *gin.Context) {
	if err := h.listings.SetPrimaryImage(c.Request.Context(), currentUser(c), c.Param("id"), c.Param("imageID")); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func queryInt(c *gin.Context, key string) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return 0
	}
	return v
}

func queryFloat(c *gin.Context, key string) float64 {
	v, err := strconv.ParseFloat(c.Query(key), 64)
	if err != nil {
		return 0
	}
	return v
}
