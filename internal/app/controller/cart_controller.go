package controller

import (
	goerrors "errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/babdal-backend/internal/app/model"
	"github.com/ikkim/babdal-backend/internal/app/service"
	"github.com/ikkim/babdal-backend/internal/errors"
	"github.com/ikkim/babdal-backend/internal/middleware"
	"github.com/shopspring/decimal"
)

type CartController struct {
	cartService service.CartService
}

func NewCartController(cartService service.CartService) *CartController {
	return &CartController{
		cartService: cartService,
	}
}

type ProductPayload struct {
	ID           string          `json:"id" binding:"required"`
	Name         string          `json:"name"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	MerchantID   string          `json:"merchant_id" binding:"required"`
	MerchantName string          `json:"merchant_name"`
}

type ToppingPayload struct {
	ID    string          `json:"id" binding:"required"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

type AddItemRequest struct {
	Product             ProductPayload   `json:"product" binding:"required"`
	Quantity            int              `json:"quantity"`
	Toppings            []ToppingPayload `json:"toppings"`
	SpecialInstructions string           `json:"special_instructions"`
	// ReplaceCart confirms a destructive merchant switch. Without it a
	// mismatching merchant is rejected so the client can prompt first.
	ReplaceCart bool `json:"replace_cart"`
}

type UpdateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

// GetCart returns the current cart state
// GET /api/v1/cart
func (ctrl *CartController) GetCart(c *gin.Context) {
	c.JSON(http.StatusOK, ctrl.cartService.State())
}

// AddItem adds a product to the cart
// POST /api/v1/cart/items
func (ctrl *CartController) AddItem(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid add item request", map[string]interface{}{
			"error": err.Error(),
		})
		errors.BadRequest(c, errors.ValidationInvalidInput, "잘못된 요청입니다")
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	product := model.Product{
		ID:           req.Product.ID,
		Name:         req.Product.Name,
		UnitPrice:    req.Product.UnitPrice,
		MerchantID:   req.Product.MerchantID,
		MerchantName: req.Product.MerchantName,
	}

	// The engine replaces the cart unconditionally on a merchant switch;
	// the confirmation gate lives here.
	if !ctrl.cartService.CanAddItem(product) && !req.ReplaceCart {
		log.Warn("Merchant mismatch without replace confirmation", map[string]interface{}{
			"product_id":  product.ID,
			"merchant_id": product.MerchantID,
		})
		errors.Conflict(c, errors.CartMerchantMismatch, "다른 가게의 상품입니다. 장바구니를 비우고 담을까요?")
		return
	}

	toppings := make([]model.Topping, len(req.Toppings))
	for n, t := range req.Toppings {
		toppings[n] = model.Topping{ID: t.ID, Name: t.Name, Price: t.Price}
	}

	line, err := ctrl.cartService.AddItem(product, req.Quantity, toppings, req.SpecialInstructions)
	if err != nil {
		switch {
		case goerrors.Is(err, service.ErrInvalidQuantity):
			errors.BadRequest(c, errors.CartInvalidQuantity, "수량은 1 이상이어야 합니다")
		case goerrors.Is(err, service.ErrInvalidProduct):
			errors.BadRequest(c, errors.CartInvalidProduct, "상품 정보가 올바르지 않습니다")
		default:
			log.Error("Failed to add cart item", err, nil)
			errors.InternalError(c, "")
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"line": line,
		"cart": ctrl.cartService.State(),
	})
}

// UpdateQuantity updates a line's quantity (0 or less removes the line)
// PUT /api/v1/cart/items/:id
func (ctrl *CartController) UpdateQuantity(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	lineID := c.Param("id")

	var req UpdateQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid update quantity request", map[string]interface{}{
			"line_id": lineID,
			"error":   err.Error(),
		})
		errors.BadRequest(c, errors.ValidationInvalidInput, "잘못된 요청입니다")
		return
	}

	if err := ctrl.cartService.UpdateQuantity(lineID, req.Quantity); err != nil {
		if goerrors.Is(err, service.ErrLineNotFound) {
			errors.NotFound(c, errors.CartLineNotFound, "장바구니 항목을 찾을 수 없습니다")
			return
		}
		log.Error("Failed to update cart line", err, map[string]interface{}{
			"line_id": lineID,
		})
		errors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, ctrl.cartService.State())
}

// RemoveItem removes a line from the cart
// DELETE /api/v1/cart/items/:id
func (ctrl *CartController) RemoveItem(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	lineID := c.Param("id")

	if err := ctrl.cartService.RemoveItem(lineID); err != nil {
		if goerrors.Is(err, service.ErrLineNotFound) {
			errors.NotFound(c, errors.CartLineNotFound, "장바구니 항목을 찾을 수 없습니다")
			return
		}
		log.Error("Failed to remove cart line", err, map[string]interface{}{
			"line_id": lineID,
		})
		errors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, ctrl.cartService.State())
}

// ClearCart resets the cart to empty
// DELETE /api/v1/cart
func (ctrl *CartController) ClearCart(c *gin.Context) {
	ctrl.cartService.Clear()
	c.JSON(http.StatusOK, ctrl.cartService.State())
}

// CanAddItem reports whether the product can join the cart as-is
// GET /api/v1/cart/can-add?merchant_id=...&product_id=...
func (ctrl *CartController) CanAddItem(c *gin.Context) {
	merchantID := c.Query("merchant_id")
	if merchantID == "" {
		errors.BadRequest(c, errors.ValidationInvalidInput, "merchant_id가 필요합니다")
		return
	}
	product := model.Product{
		ID:         c.Query("product_id"),
		MerchantID: merchantID,
	}
	c.JSON(http.StatusOK, gin.H{
		"can_add": ctrl.cartService.CanAddItem(product),
	})
}

// LineQuantity returns the quantity of the line matching the identity key
// GET /api/v1/cart/line-quantity?product_id=...&topping_ids=a,b&special_instructions=...
func (ctrl *CartController) LineQuantity(c *gin.Context) {
	productID := c.Query("product_id")
	if productID == "" {
		errors.BadRequest(c, errors.ValidationInvalidInput, "product_id가 필요합니다")
		return
	}

	var toppingIDs []string
	if raw := c.Query("topping_ids"); raw != "" {
		toppingIDs = strings.Split(raw, ",")
	}

	quantity := ctrl.cartService.LineQuantity(productID, toppingIDs, c.Query("special_instructions"))
	c.JSON(http.StatusOK, gin.H{
		"quantity": quantity,
	})
}
