package controller

import (
	goerrors "errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/babdal-backend/internal/app/model"
	"github.com/ikkim/babdal-backend/internal/app/service"
	"github.com/ikkim/babdal-backend/internal/errors"
	"github.com/ikkim/babdal-backend/internal/middleware"
)

type RecurringOrderController struct {
	recurringService service.RecurringOrderService
}

func NewRecurringOrderController(recurringService service.RecurringOrderService) *RecurringOrderController {
	return &RecurringOrderController{
		recurringService: recurringService,
	}
}

type UpdateRecurrenceRequest struct {
	Config model.RecurrenceConfig `json:"config" binding:"required"`
}

// List returns all recurring order definitions
// GET /api/v1/recurring-orders
func (ctrl *RecurringOrderController) List(c *gin.Context) {
	orders := ctrl.recurringService.List()
	c.JSON(http.StatusOK, gin.H{
		"recurring_orders": orders,
		"count":            len(orders),
	})
}

// Get returns one definition
// GET /api/v1/recurring-orders/:id
func (ctrl *RecurringOrderController) Get(c *gin.Context) {
	order, err := ctrl.recurringService.Get(c.Param("id"))
	if err != nil {
		errors.NotFound(c, errors.RecurringNotFound, "정기 주문을 찾을 수 없습니다")
		return
	}
	c.JSON(http.StatusOK, order)
}

// UpdateConfig replaces a definition's recurrence rule
// PUT /api/v1/recurring-orders/:id/config
func (ctrl *RecurringOrderController) UpdateConfig(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	id := c.Param("id")

	var req UpdateRecurrenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid recurrence config request", map[string]interface{}{
			"id":    id,
			"error": err.Error(),
		})
		errors.BadRequest(c, errors.ValidationInvalidInput, "잘못된 요청입니다")
		return
	}

	order, err := ctrl.recurringService.UpdateConfig(id, req.Config)
	if err != nil {
		switch {
		case goerrors.Is(err, model.ErrInvalidRecurrence):
			errors.BadRequest(c, errors.RecurringInvalidConfig, "반복 설정이 올바르지 않습니다")
		case goerrors.Is(err, service.ErrRecurringOrderNotFound):
			errors.NotFound(c, errors.RecurringNotFound, "정기 주문을 찾을 수 없습니다")
		default:
			log.Error("Failed to update recurrence config", err, map[string]interface{}{
				"id": id,
			})
			errors.InternalError(c, "")
		}
		return
	}

	c.JSON(http.StatusOK, order)
}

// Toggle flips the definition's active flag
// POST /api/v1/recurring-orders/:id/toggle
func (ctrl *RecurringOrderController) Toggle(c *gin.Context) {
	order, err := ctrl.recurringService.ToggleActive(c.Param("id"))
	if err != nil {
		errors.NotFound(c, errors.RecurringNotFound, "정기 주문을 찾을 수 없습니다")
		return
	}
	c.JSON(http.StatusOK, order)
}

// Delete removes the definition permanently
// DELETE /api/v1/recurring-orders/:id
func (ctrl *RecurringOrderController) Delete(c *gin.Context) {
	if err := ctrl.recurringService.Delete(c.Param("id")); err != nil {
		errors.NotFound(c, errors.RecurringNotFound, "정기 주문을 찾을 수 없습니다")
		return
	}
	c.Status(http.StatusNoContent)
}

// Upcoming returns active definitions due within the window
// GET /api/v1/recurring-orders/upcoming?within_hours=24
func (ctrl *RecurringOrderController) Upcoming(c *gin.Context) {
	withinHours := 24
	if raw := c.Query("within_hours"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			errors.BadRequest(c, errors.ValidationInvalidInput, "within_hours가 올바르지 않습니다")
			return
		}
		withinHours = parsed
	}

	orders := ctrl.recurringService.Upcoming(withinHours)
	c.JSON(http.StatusOK, gin.H{
		"recurring_orders": orders,
		"count":            len(orders),
	})
}

// Stats returns the aggregate view over all definitions
// GET /api/v1/recurring-orders/stats
func (ctrl *RecurringOrderController) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, ctrl.recurringService.Stats())
}
