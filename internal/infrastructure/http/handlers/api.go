// Package handlers provides HTTP handlers for the REST API
package handlers

import (
	"net/http"
	"time"

	"github.com/TroydonAnabolic/meal-planner-website-sub000/internal/ports/inbound"
	"github.com/TroydonAnabolic/meal-planner-website-sub000/pkg/errors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

// APIHandlers handles REST API requests
type APIHandlers struct {
	mealPlans inbound.MealPlanService
	profiles  inbound.ClientProfileService
	logger    *zap.Logger
}

// NewAPIHandlers creates a new API handlers instance
func NewAPIHandlers(
	mealPlans inbound.MealPlanService,
	profiles inbound.ClientProfileService,
	logger *zap.Logger,
) *APIHandlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &APIHandlers{
		mealPlans: mealPlans,
		profiles:  profiles,
		logger:    logger.Named("api"),
	}
}

// RegisterRoutes mounts the v1 API on router
func (h *APIHandlers) RegisterRoutes(router gin.IRouter) {
	v1 := router.Group("/api/v1")

	clients := v1.Group("/clients/:clientID")
	clients.POST("/meal-plans", h.GenerateMealPlan)
	clients.GET("/meal-plans", h.ListMealPlans)
	clients.PUT("/profile", h.UpsertProfile)
	clients.GET("/profile", h.GetProfile)

	plans := v1.Group("/meal-plans/:planID")
	plans.GET("", h.GetMealPlan)
	plans.POST("/shopping-list", h.RebuildShoppingList)
}

// generateMealPlanRequest is the wire form of a generate command
type generateMealPlanRequest struct {
	StartDate   string                  `json:"start_date"`
	Days        int                     `json:"days"`
	Slots       []string                `json:"slots"`
	Preferences *inbound.PreferencesDTO `json:"preferences"`
	Exclusions  []string                `json:"exclusions"`
}

// GenerateMealPlan handles POST /api/v1/clients/:clientID/meal-plans
func (h *APIHandlers) GenerateMealPlan(c *gin.Context) {
	var req generateMealPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(errors.NewBadRequestError("Request body must be a JSON meal plan request").WithCause(err))
		return
	}

	cmd := inbound.GenerateMealPlanCommand{
		ClientID:    c.Param("clientID"),
		Days:        req.Days,
		Slots:       req.Slots,
		Preferences: req.Preferences,
		Exclusions:  req.Exclusions,
	}
	if req.StartDate != "" {
		startDate, err := time.Parse(dateLayout, req.StartDate)
		if err != nil {
			_ = c.Error(errors.NewBadRequestError("start_date must be formatted as YYYY-MM-DD").WithCause(err))
			return
		}
		cmd.StartDate = startDate
	}

	plan, err := h.mealPlans.GenerateMealPlan(c.Request.Context(), cmd)
	if err != nil {
		_ = c.Error(err)
		return
	}

	message := "Meal plan generated"
	if !plan.Shopping.Complete {
		message = "Meal plan generated with a partial shopping list"
	}
	c.JSON(http.StatusCreated, APIResponse{Success: true, Data: plan, Message: message})
}

// ListMealPlans handles GET /api/v1/clients/:clientID/meal-plans
func (h *APIHandlers) ListMealPlans(c *gin.Context) {
	var params inbound.PaginationParams
	if err := c.ShouldBindQuery(&params); err != nil {
		_ = c.Error(errors.NewBadRequestError("offset and limit must be integers").WithCause(err))
		return
	}

	list, err := h.mealPlans.ListMealPlans(c.Request.Context(), c.Param("clientID"), params)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, APIResponse{Success: true, Data: list})
}

// GetMealPlan handles GET /api/v1/meal-plans/:planID
func (h *APIHandlers) GetMealPlan(c *gin.Context) {
	planID, ok := planIDParam(c)
	if !ok {
		return
	}

	plan, err := h.mealPlans.GetMealPlan(c.Request.Context(), planID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, APIResponse{Success: true, Data: plan})
}

// RebuildShoppingList handles POST /api/v1/meal-plans/:planID/shopping-list
func (h *APIHandlers) RebuildShoppingList(c *gin.Context) {
	planID, ok := planIDParam(c)
	if !ok {
		return
	}

	list, err := h.mealPlans.RebuildShoppingList(c.Request.Context(), planID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	h.logger.Debug("Shopping list rebuilt",
		zap.String("plan_id", planID.String()),
		zap.Int("items", len(list.Items)),
		zap.Bool("complete", list.Complete),
	)
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: list})
}

// UpsertProfile handles PUT /api/v1/clients/:clientID/profile
func (h *APIHandlers) UpsertProfile(c *gin.Context) {
	var cmd inbound.UpsertProfileCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		_ = c.Error(errors.NewBadRequestError("Request body must be a JSON profile").WithCause(err))
		return
	}
	cmd.ClientID = c.Param("clientID")

	profile, err := h.profiles.UpsertProfile(c.Request.Context(), cmd)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, APIResponse{Success: true, Data: profile, Message: "Profile saved"})
}

// GetProfile handles GET /api/v1/clients/:clientID/profile
func (h *APIHandlers) GetProfile(c *gin.Context) {
	profile, err := h.profiles.GetProfile(c.Request.Context(), c.Param("clientID"))
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, APIResponse{Success: true, Data: profile})
}

func planIDParam(c *gin.Context) (uuid.UUID, bool) {
	planID, err := uuid.Parse(c.Param("planID"))
	if err != nil {
		_ = c.Error(errors.NewBadRequestError("planID must be a UUID").WithCause(err))
		return uuid.Nil, false
	}
	return planID, true
}
