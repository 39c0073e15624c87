package handlers

import (
	"net/http"

	"github.com/farellandr/homestay/internal/helpers"
	"github.com/farellandr/homestay/internal/models"
	"github.com/farellandr/homestay/internal/repository"
	"github.com/farellandr/homestay/internal/services"
	"github.com/gin-gonic/gin"
)

type HomestayRequest struct {
	Name               string                `json:"name" binding:"required,max=100"`
	Address            string                `json:"address" binding:"required"`
	Location           string                `json:"location" binding:"max=100"`
	Description        string                `json:"description"`
	Price              int64                 `json:"price" binding:"required,gt=0"`
	Capacity           int                   `json:"capacity" binding:"required,gt=0"`
	CancellationPolicy string                `json:"cancellation_policy"`
	Status             models.HomestayStatus `json:"status" binding:"omitempty,oneof=active inactive maintenance"`
}

func (r HomestayRequest) input() services.HomestayInput {
	return services.HomestayInput{
		Name:               r.Name,
		Address:            r.Address,
		Location:           r.Location,
		Description:        r.Description,
		Price:              r.Price,
		Capacity:           r.Capacity,
		CancellationPolicy: r.CancellationPolicy,
		Status:             r.Status,
	}
}

func (h *Handler) CreateHomestay(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req HomestayRequest
	if !bindJSON(c, &req) {
		return
	}

	homestay, err := h.Homestays.Create(c.Request.Context(), a.ID, req.input())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, homestay)
}

func (h *Handler) UpdateHomestay(c *gin.Context) {
	id, ok := idParam(c, "id", "homestay")
	if !ok {
		return
	}
	var req HomestayRequest
	if !bindJSON(c, &req) {
		return
	}

	homestay, err := h.Homestays.Update(c.Request.Context(), id, req.input())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, homestay)
}

func (h *Handler) DeleteHomestay(c *gin.Context) {
	id, ok := idParam(c, "id", "homestay")
	if !ok {
		return
	}
	if err := h.Homestays.Delete(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Homestay deleted successfully."})
}

func (h *Handler) GetHomestay(c *gin.Context) {
	id, ok := idParam(c, "id", "homestay")
	if !ok {
		return
	}
	homestay, err := h.Homestays.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, homestay)
}

// ListHomestays supports ?location=&min_price=&max_price=&guests=&page=&limit=
func (h *Handler) ListHomestays(c *gin.Context) {
	page, limit := helpers.ParsePagination(c)
	filter := repository.HomestayFilter{
		Location: c.Query("location"),
		Page:     page,
		Limit:    limit,
	}
	if isAdmin(c) {
		filter.Status = models.HomestayStatus(c.Query("status"))
	}

	var ok bool
	if filter.MinPrice, ok = queryInt64(c, "min_price"); !ok {
		return
	}
	if filter.MaxPrice, ok = queryInt64(c, "max_price"); !ok {
		return
	}
	if guests := c.Query("guests"); guests != "" {
		n, err := helpers.StringToInt(guests)
		if err != nil || n < 1 {
			helpers.RespondWithError(c, http.StatusBadRequest, "Invalid guests value.")
			return
		}
		filter.MinCapacity = n
	}

	result, err := h.Homestays.Search(c.Request.Context(), filter)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ListOwnHomestays lists the caller's listings: GET /admin/homestays/mine?status=&page=&limit=
func (h *Handler) ListOwnHomestays(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	page, limit := helpers.ParsePagination(c)

	result, err := h.Homestays.ListOwned(c.Request.Context(), a.ID, models.HomestayStatus(c.Query("status")), page, limit)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// CheckAvailability answers GET /homestays/:id/availability?check_in=&check_out=
func (h *Handler) CheckAvailability(c *gin.Context) {
	id, ok := idParam(c, "id", "homestay")
	if !ok {
		return
	}
	checkIn, err := helpers.ParseDate(c.Query("check_in"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid check_in date. Use YYYY-MM-DD.")
		return
	}
	checkOut, err := helpers.ParseDate(c.Query("check_out"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid check_out date. Use YYYY-MM-DD.")
		return
	}

	result, err := h.Homestays.Availability(c.Request.Context(), id, checkIn, checkOut)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func queryInt64(c *gin.Context, name string) (*int64, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	n, err := helpers.StringToInt(raw)
	if err != nil || n < 0 {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid "+name+" value.")
		return nil, false
	}
	v := int64(n)
	return &v, true
}
