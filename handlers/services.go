package handlers

import (
	"net/http"
	"strings"

	"servicehub/middleware"
	"servicehub/models"
	"servicehub/utils"

	"github.com/gin-gonic/gin"
)

type ServiceHandler struct{}

func NewServiceHandler() *ServiceHandler { return &ServiceHandler{} }

// List handles GET /api/services. ?category=x narrows to one category and
// ?categories=a,b to several.
func (h *ServiceHandler) List(c *gin.Context) {
	store := middleware.AppFrom(c).Catalog
	ctx := c.Request.Context()

	var (
		services []models.Service
		err      error
	)
	switch {
	case c.Query("categories") != "":
		services, err = store.FetchByCategories(ctx, splitList(c.Query("categories")))
	case c.Query("category") != "":
		services, err = store.FetchByCategory(ctx, c.Query("category"))
	default:
		services, err = store.FetchAll(ctx)
	}
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, services)
}

// Get handles GET /api/services/:id.
func (h *ServiceHandler) Get(c *gin.Context) {
	svc, err := middleware.AppFrom(c).Catalog.FetchByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, svc)
}

// Categories handles GET /api/categories.
func (h *ServiceHandler) Categories(c *gin.Context) {
	categories, err := middleware.AppFrom(c).Catalog.Categories(c.Request.Context())
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, categories)
}

// Create handles POST /api/services.
func (h *ServiceHandler) Create(c *gin.Context) {
	var in models.Service
	if !bindJSON(c, &in) {
		return
	}
	svc, err := middleware.AppFrom(c).Catalog.Add(c.Request.Context(), in)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, svc)
}

// Update handles PUT /api/services/:id.
func (h *ServiceHandler) Update(c *gin.Context) {
	var upd models.ServiceUpdate
	if !bindJSON(c, &upd) {
		return
	}
	svc, err := middleware.AppFrom(c).Catalog.Update(c.Request.Context(), c.Param("id"), upd)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, svc)
}

// Delete handles DELETE /api/services/:id.
func (h *ServiceHandler) Delete(c *gin.Context) {
	if err := middleware.AppFrom(c).Catalog.Delete(c.Request.Context(), c.Param("id")); err != nil {
		utils.RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func splitList(raw string) []string {
	out := []string{}
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
