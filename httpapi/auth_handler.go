package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"landmarket/identity"
)

type authHandler struct {
	users *identity.Service
}

type userView struct {
	ID       string  `json:"id"`
	Email    string  `json:"email"`
	FullName string  `json:"full_name"`
	Phone    *string `json:"phone,omitempty"`
	Bio      string  `json:"bio,omitempty"`
	Role     string  `json:"role"`
	Active   bool    `json:"active"`
}

func toUserView(u identity.User) userView {
	return userView{
		ID:       u.ID,
		Email:    u.Email,
		FullName: u.FullName,
		Phone:    u.Phone,
		Bio:      u.Bio,
		Role:     string(u.Role),
		Active:   u.Active,
	}
}

func (h *authHandler) register(c *gin.Context) {
	var req identity.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "InvalidInput", err.Error())
		return
	}

	user, err := h.users.Register(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, toUserView(*user))
}

func (h *authHandler) login(c *gin.Context) {
	var req identity.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "InvalidInput", err.Error())
		return
	}

	result, err := h.users.Login(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"token": result.Token,
		"user":  toUserView(result.User),
	})
}

func (h *authHandler) me(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		writeError(c, http.StatusUnauthorized, "Unauthenticated", "authentication required")
		return
	}
	c.JSON(http.StatusOK, toUserView(*user))
}
