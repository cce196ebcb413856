package handlers

import (
	"net/http"

	"servicehub/middleware"
	"servicehub/models"
	"servicehub/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type BookingHandler struct{}

func NewBookingHandler() *BookingHandler { return &BookingHandler{} }

// Create handles POST /api/bookings.
func (h *BookingHandler) Create(c *gin.Context) {
	var in models.BookingInput
	if !bindJSON(c, &in) {
		return
	}
	b, err := middleware.AppFrom(c).Bookings.Create(c.Request.Context(), in)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	getLogger(c).Info("Booking created", zap.String("bookingID", b.ID), zap.String("workerID", b.WorkerID))
	c.JSON(http.StatusCreated, b)
}

// List handles GET /api/bookings. Workers see the jobs assigned to them and
// everyone else the bookings they placed; ?as=customer|worker overrides that.
// ?status= narrows the loaded list.
func (h *BookingHandler) List(c *gin.Context) {
	app := middleware.AppFrom(c)
	as := c.Query("as")
	if as == "" && app.Identity.Role() == models.RoleWorker {
		as = string(models.RoleWorker)
	}

	var (
		bookings []models.Booking
		err      error
	)
	if as == string(models.RoleWorker) {
		bookings, err = app.Bookings.ListForWorker(c.Request.Context())
	} else {
		bookings, err = app.Bookings.ListForCustomer(c.Request.Context())
	}
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	if status := c.Query("status"); status != "" {
		bookings = app.Bookings.ByStatus(models.BookingStatus(status))
	}
	c.JSON(http.StatusOK, bookings)
}

// Get handles GET /api/bookings/:id. Only the booking's customer, its worker
// and admins may read it.
func (h *BookingHandler) Get(c *gin.Context) {
	app := middleware.AppFrom(c)
	user := app.Identity.User()
	if user == nil {
		utils.JSONError(c, http.StatusUnauthorized, "User not authenticated", "")
		return
	}
	b, err := app.Bookings.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	if user.UID != b.CustomerID && user.UID != b.WorkerID && app.Identity.Role() != models.RoleAdmin {
		utils.JSONError(c, http.StatusForbidden, "Unauthorized", "")
		return
	}
	c.JSON(http.StatusOK, b)
}

type transitionRequest struct {
	Status models.BookingStatus `json:"status" binding:"required"`
	Notes  string               `json:"notes"`
}

// Transition handles PATCH /api/bookings/:id/status.
func (h *BookingHandler) Transition(c *gin.Context) {
	var in transitionRequest
	if !bindJSON(c, &in) {
		return
	}
	b, err := middleware.AppFrom(c).Bookings.Transition(c.Request.Context(), c.Param("id"), in.Status, in.Notes)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

type completeRequest struct {
	Rating int    `json:"rating"`
	Review string `json:"review"`
}

// Complete handles POST /api/bookings/:id/complete.
func (h *BookingHandler) Complete(c *gin.Context) {
	var in completeRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &in) {
		return
	}
	b, err := middleware.AppFrom(c).Bookings.Complete(c.Request.Context(), c.Param("id"), in.Rating, in.Review)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}
