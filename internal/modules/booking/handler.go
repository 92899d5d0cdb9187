package booking

import (
	"errors"
	"net/http"

	"spacerental/internal/middleware"
	"spacerental/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

func init() {
	// Request bodies with fields the API does not know are rejected.
	binding.EnableDecoderDisallowUnknownFields = true
}

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the user booking endpoints. rg must already run JWTAuth.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	bookings := rg.Group("/bookings")
	bookings.POST("", h.CreateBooking)
	bookings.GET("/my", h.GetMyBookings)
	bookings.GET("/stats/occupancy", h.GetOccupancy)
	bookings.GET("/:id", h.GetBooking)
	bookings.POST("/:id/cancel", h.CancelBooking)
	bookings.POST("/:id/extend", h.ExtendBooking)
	bookings.POST("/:id/items", h.AddItems)
}

// RegisterAdminRoutes mounts staff endpoints under an admin-only group.
func (h *Handler) RegisterAdminRoutes(admin *gin.RouterGroup) {
	admin.GET("/bookings", h.ListBookings)
}

func (h *Handler) CreateBooking(c *gin.Context) {
	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body", err.Error())
		return
	}

	b, err := h.service.CreateBooking(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		switch {
		case errors.Is(err, ErrRoomNotFound):
			response.Error(c, http.StatusNotFound, "ROOM_NOT_FOUND", "Room not found")
		case errors.Is(err, ErrRoomNotAvailable):
			response.Error(c, http.StatusConflict, "ROOM_NOT_AVAILABLE", "Room is not available for the selected time")
		default:
			writeError(c, err, "Failed to create booking")
		}
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"booking": b})
}

func (h *Handler) CancelBooking(c *gin.Context) {
	b, err := h.service.CancelBooking(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		if IsDeclined(err) {
			response.Error(c, http.StatusBadRequest, "INVALID_CANCELLATION", "Only pending bookings can be cancelled")
			return
		}
		writeError(c, err, "Failed to cancel booking")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"booking": b})
}

func (h *Handler) ExtendBooking(c *gin.Context) {
	var req ExtendBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body", err.Error())
		return
	}

	b, err := h.service.ExtendBooking(c.Request.Context(), middleware.UserID(c), c.Param("id"), req)
	if err != nil {
		if IsDeclined(err) {
			response.Error(c, http.StatusBadRequest, "INVALID_EXTENSION", extensionMessage(err))
			return
		}
		writeError(c, err, "Failed to extend booking")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"booking": b})
}

func (h *Handler) AddItems(c *gin.Context) {
	var req AddItemsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body", err.Error())
		return
	}

	b, err := h.service.AddItems(c.Request.Context(), middleware.UserID(c), c.Param("id"), req)
	if err != nil {
		if IsDeclined(err) {
			response.Error(c, http.StatusBadRequest, "INVALID_ITEMS_ADDITION", "Items can only be added to active bookings")
			return
		}
		writeError(c, err, "Failed to add items")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"booking": b})
}

func (h *Handler) GetBooking(c *gin.Context) {
	b, err := h.service.GetBooking(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrBookingNotFound) {
			response.Error(c, http.StatusNotFound, "BOOKING_NOT_FOUND", "Booking not found")
			return
		}
		writeError(c, err, "Failed to load booking")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"booking": b})
}

func (h *Handler) GetMyBookings(c *gin.Context) {
	list := h.service.GetMyBookings(c.Request.Context(), middleware.UserID(c))
	response.Success(c, http.StatusOK, gin.H{"bookings": list, "count": len(list)})
}

func (h *Handler) ListBookings(c *gin.Context) {
	var q ListBookingsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid query parameters")
		return
	}

	list, err := h.service.ListBookings(c.Request.Context(), q)
	if err != nil {
		writeError(c, err, "Failed to list bookings")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"bookings": list, "count": len(list)})
}

func (h *Handler) GetOccupancy(c *gin.Context) {
	var q OccupancyQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid query parameters")
		return
	}

	stats, err := h.service.GetOccupancy(c.Request.Context(), q)
	if err != nil {
		switch {
		case errors.Is(err, ErrMissingParams):
			response.Error(c, http.StatusBadRequest, "MISSING_PARAMS", "room_id, start_date and end_date are required")
		case errors.Is(err, ErrInvalidRange):
			response.Error(c, http.StatusBadRequest, "INVALID_RANGE", "end_date must be after start_date")
		default:
			writeError(c, err, "Failed to compute occupancy")
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"stats": stats})
}

// writeError covers the outcomes shared by every endpoint: validation
// failures and unexpected server errors.
func writeError(c *gin.Context, err error, message string) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", verr.Fields)
		return
	}
	if IsDeclined(err) {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}
	_ = c.Error(err)
	response.Error(c, http.StatusInternalServerError, "SERVER_ERROR", message)
}

func extensionMessage(err error) string {
	switch {
	case errors.Is(err, ErrRoomNotAvailable):
		return "Room is not available for the extension window"
	case errors.Is(err, ErrBookingNotFound):
		return "Booking not found"
	default:
		return "Only active bookings can be extended"
	}
}
