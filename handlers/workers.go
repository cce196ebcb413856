package handlers

import (
	"net/http"

	"servicehub/middleware"
	"servicehub/models"
	"servicehub/services/workers"
	"servicehub/utils"

	"github.com/gin-gonic/gin"
)

type WorkerHandler struct{}

func NewWorkerHandler() *WorkerHandler { return &WorkerHandler{} }

// List handles GET /api/workers. ?service=id returns verified workers for a
// service, best rated first; ?verified=true filters the full listing.
func (h *WorkerHandler) List(c *gin.Context) {
	store := middleware.AppFrom(c).Workers
	ctx := c.Request.Context()

	if serviceID := c.Query("service"); serviceID != "" {
		views, err := store.FetchByService(ctx, serviceID)
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, views)
		return
	}

	views, err := store.FetchAll(ctx)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	if c.Query("verified") == "true" {
		views = store.Verified()
	}
	c.JSON(http.StatusOK, views)
}

// Get handles GET /api/workers/:id.
func (h *WorkerHandler) Get(c *gin.Context) {
	view, err := middleware.AppFrom(c).Workers.FetchByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// Reviews handles GET /api/workers/:id/reviews. A failed lookup yields an
// empty list.
func (h *WorkerHandler) Reviews(c *gin.Context) {
	c.JSON(http.StatusOK, middleware.AppFrom(c).Workers.FetchReviews(c.Request.Context(), c.Param("id")))
}

// UpdateProfile handles PUT /api/workers/me/profile. Fields outside the
// profile allow-list are ignored.
func (h *WorkerHandler) UpdateProfile(c *gin.Context) {
	var in workers.ProfileInput
	if !bindJSON(c, &in) {
		return
	}
	out, err := middleware.AppFrom(c).Workers.UpdateProfile(c.Request.Context(), in)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// UpdateServices handles PUT /api/workers/me/services.
func (h *WorkerHandler) UpdateServices(c *gin.Context) {
	var in struct {
		Services []string `json:"services"`
	}
	if !bindJSON(c, &in) {
		return
	}
	services, err := middleware.AppFrom(c).Workers.UpdateServices(c.Request.Context(), in.Services)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"services": services})
}

// UpdateAvailability handles PUT /api/workers/me/availability.
func (h *WorkerHandler) UpdateAvailability(c *gin.Context) {
	var in models.Availability
	if !bindJSON(c, &in) {
		return
	}
	out, err := middleware.AppFrom(c).Workers.UpdateAvailability(c.Request.Context(), in)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// UpdateStatus handles PUT /api/workers/me/status.
func (h *WorkerHandler) UpdateStatus(c *gin.Context) {
	var in struct {
		Status string `json:"status" binding:"required"`
	}
	if !bindJSON(c, &in) {
		return
	}
	out, err := middleware.AppFrom(c).Workers.UpdateCurrentStatus(c.Request.Context(), in.Status)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// Wallet handles GET /api/workers/me/wallet.
func (h *WorkerHandler) Wallet(c *gin.Context) {
	wallet, err := middleware.AppFrom(c).Workers.Wallet(c.Request.Context())
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, wallet)
}
