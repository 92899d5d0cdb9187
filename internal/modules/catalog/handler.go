package catalog

import (
	"errors"
	"net/http"

	"spacerental/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the public catalog routes
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	rooms := r.Group("/rooms")
	{
		rooms.GET("", h.GetRooms)
		rooms.GET("/:id", h.GetRoomByID)
		rooms.GET("/:id/availability", h.GetRoomAvailability)
	}

	r.GET("/room-categories", h.GetCategories)
}

// GetRooms handles GET /api/v1/rooms
func (h *Handler) GetRooms(c *gin.Context) {
	var q ListRoomsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid query parameters")
		return
	}

	rooms, err := h.service.ListRooms(c.Request.Context(), q)
	if err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"rooms": rooms})
}

// GetRoomByID handles GET /api/v1/rooms/:id
func (h *Handler) GetRoomByID(c *gin.Context) {
	room, err := h.service.GetRoom(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"room": room})
}

func (h *Handler) GetRoomAvailability(c *gin.Context) {
	var q AvailabilityQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "start_time (RFC 3339) and hours are required")
		return
	}

	availability, err := h.service.CheckAvailability(c.Request.Context(), c.Param("id"), q)
	if err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, availability)
}

func (h *Handler) GetCategories(c *gin.Context) {
	cats, err := h.service.Categories(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"categories": cats})
}

func handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrRoomNotFound):
		response.Error(c, http.StatusNotFound, "ROOM_NOT_FOUND", "Room not found")
	case errors.Is(err, ErrInvalidCategory):
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "category must be gaming, thinking or working")
	case errors.Is(err, ErrInvalidQuery):
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "start_time (RFC 3339) and hours >= 1 are required")
	default:
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "SERVER_ERROR", "An internal error occurred")
	}
}
