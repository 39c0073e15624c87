package handlers

import (
	"net/http"

	"github.com/farellandr/homestay/internal/helpers"
	"github.com/farellandr/homestay/internal/repository"
	"github.com/gin-gonic/gin"
)

type ReviewRequest struct {
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Comment string `json:"comment" binding:"max=2000"`
}

type ReviewResponseRequest struct {
	Response string `json:"response" binding:"required,max=2000"`
}

func (h *Handler) CreateReview(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	homestayID, ok := idParam(c, "id", "homestay")
	if !ok {
		return
	}
	var req ReviewRequest
	if !bindJSON(c, &req) {
		return
	}

	review, err := h.Reviews.Create(c.Request.Context(), a.ID, homestayID, req.Rating, req.Comment)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, review)
}

func (h *Handler) ListReviews(c *gin.Context) {
	homestayID, ok := idParam(c, "id", "homestay")
	if !ok {
		return
	}
	page, limit := helpers.ParsePagination(c)
	filter := repository.ReviewFilter{Page: page, Limit: limit}
	if rating := c.Query("rating"); rating != "" {
		n, err := helpers.StringToInt(rating)
		if err != nil || n < 1 || n > 5 {
			helpers.RespondWithError(c, http.StatusBadRequest, "Invalid rating value.")
			return
		}
		filter.MinRating, filter.MaxRating = n, n
	}

	result, err := h.Reviews.List(c.Request.Context(), homestayID, filter)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) UpdateReview(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id", "review")
	if !ok {
		return
	}
	var req ReviewRequest
	if !bindJSON(c, &req) {
		return
	}

	review, err := h.Reviews.Update(c.Request.Context(), a, id, req.Rating, req.Comment)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, review)
}

func (h *Handler) DeleteReview(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id", "review")
	if !ok {
		return
	}
	if err := h.Reviews.Delete(c.Request.Context(), a, id); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Review deleted successfully."})
}

func (h *Handler) RespondToReview(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id", "review")
	if !ok {
		return
	}
	var req ReviewResponseRequest
	if !bindJSON(c, &req) {
		return
	}

	review, err := h.Reviews.Respond(c.Request.Context(), a, id, req.Response)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, review)
}
