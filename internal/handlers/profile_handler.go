package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type UpdateProfileRequest struct {
	FirstName   string `json:"first_name" binding:"required,max=100"`
	LastName    string `json:"last_name" binding:"max=100"`
	PhoneNumber string `json:"phone_number" binding:"omitempty,max=20"`
}

func (h *Handler) GetProfile(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	user, err := h.Auth.Me(c.Request.Context(), a.ID)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req UpdateProfileRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.Auth.UpdateProfile(c.Request.Context(), a.ID, req.FirstName, req.LastName, req.PhoneNumber)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}
