package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"landmarket/favorite"
)

type favoriteHandler struct {
	favorites *favorite.Service
}

type favoriteView struct {
	Land    landView  `json:"land"`
	SavedAt time.Time `json:"saved_at"`
}

func (h *favoriteHandler) add(c *gin.Context) {
	fav, added, err := h.favorites.Add(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	status := http.StatusOK
	if added {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"favorited": true, "saved_at": fav.CreatedAt})
}

func (h *favoriteHandler) remove(c *gin.Context) {
	if _, err := h.favorites.Remove(c.Request.Context(), currentUser(c), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"favorited": false})
}

func (h *favoriteHandler) list(c *gin.Context) {
	entries, total, err := h.favorites.List(c.Request.Context(), currentUser(c), queryInt(c, "page"), queryInt(c, "page_size"))
	if err != nil {
		fail(c, err)
		return
	}

	views := make([]favoriteView, 0, len(entries))
	for _, e := range entries {
		views = append(views, favoriteView{Land: toLandView(e.Land), SavedAt: e.SavedAt})
	}
	c.JSON(http.StatusOK, paged{Items: views, Total: total})
}

func (h *favoriteHandler) check(c *gin.Context) {
	ok, err := h.favorites.IsFavorited(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"favorited": ok})
}
