package controller

import (
	goerrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/babdal-backend/internal/app/model"
	"github.com/ikkim/babdal-backend/internal/app/service"
	"github.com/ikkim/babdal-backend/internal/errors"
	"github.com/ikkim/babdal-backend/internal/middleware"
)

type CheckoutController struct {
	checkoutService service.CheckoutService
}

func NewCheckoutController(checkoutService service.CheckoutService) *CheckoutController {
	return &CheckoutController{
		checkoutService: checkoutService,
	}
}

type CheckoutRequest struct {
	DeliveryAddressID string                  `json:"delivery_address_id"`
	PaymentMethodID   string                  `json:"payment_method_id"`
	Recurrence        *model.RecurrenceConfig `json:"recurrence,omitempty"`
}

// Checkout places the order and optionally registers a recurring definition
// POST /api/v1/checkout
func (ctrl *CheckoutController) Checkout(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid checkout request", map[string]interface{}{
			"error": err.Error(),
		})
		errors.BadRequest(c, errors.ValidationInvalidInput, "잘못된 요청입니다")
		return
	}

	result, err := ctrl.checkoutService.Checkout(c.Request.Context(), service.CheckoutRequest{
		DeliveryAddressID: req.DeliveryAddressID,
		PaymentMethodID:   req.PaymentMethodID,
		Recurrence:        req.Recurrence,
	})
	if err != nil {
		switch {
		case goerrors.Is(err, service.ErrEmptyCart):
			errors.BadRequest(c, errors.CartEmpty, "장바구니가 비어 있습니다")
		case goerrors.Is(err, model.ErrInvalidRecurrence):
			errors.BadRequest(c, errors.RecurringInvalidConfig, "반복 설정이 올바르지 않습니다")
		default:
			log.Error("Checkout failed", err, nil)
			errors.InternalError(c, "")
		}
		return
	}

	c.JSON(http.StatusCreated, result)
}
