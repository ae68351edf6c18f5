package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/pos-sucursales/internal/application/dto"
	"github.com/jhoicas/pos-sucursales/internal/application/inventory"
	"github.com/jhoicas/pos-sucursales/internal/domain/entity"
)

// InventoryHandler maneja movimientos manuales de inventario (protegido).
type InventoryHandler struct {
	uc *inventory.RegisterMovementUseCase
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(uc *inventory.RegisterMovementUseCase) *InventoryHandler {
	return &InventoryHandler{uc: uc}
}

// RegisterMovement godoc
// @Summary      Registrar movimiento de inventario (in, out o transfer)
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RegisterMovementRequest  true  "Producto, tipo y cantidad"
// @Success      201
// @Failure      400   {object}  dto.StockErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/inventory/movements [post]
func (h *InventoryHandler) RegisterMovement(c *fiber.Ctx) error {
	var in dto.RegisterMovementRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if in.Product == "" || in.Quantity <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "product y quantity > 0 son requeridos"})
	}
	switch in.Type {
	case entity.MovementTypeIn, entity.MovementTypeOut, entity.MovementTypeTransfer:
	default:
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "type debe ser in, out o transfer"})
	}
	if in.Type == entity.MovementTypeTransfer && in.ToProduct == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "transfer requiere to_product"})
	}
	if err := h.uc.RegisterMovement(c.UserContext(), GetIdentity(c), in); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusCreated)
}

// ListMovements godoc
// @Summary      Historial de movimientos filtrado por producto
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        product  query  string  true   "ID del producto"
// @Param        page     query  int     false  "Página"  default(1)
// @Param        limit    query  int     false  "Límite"  default(20)
// @Success      200      {object}  dto.MovementListResponse
// @Failure      404      {object}  dto.ErrorResponse
// @Router       /api/inventory/movements [get]
func (h *InventoryHandler) ListMovements(c *fiber.Ctx) error {
	productID := c.Query("product")
	if productID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "product es requerido"})
	}
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "query inválido"})
	}
	out, err := h.uc.ListByProduct(GetIdentity(c), productID, page)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// ListByProduct godoc
// @Summary      Historial de movimientos de un producto
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id     path   string  true   "ID del producto"
// @Param        page   query  int     false  "Página"  default(1)
// @Param        limit  query  int     false  "Límite"  default(20)
// @Success      200    {object}  dto.MovementListResponse
// @Failure      404    {object}  dto.ErrorResponse
// @Router       /api/inventory/products/{id}/movements [get]
func (h *InventoryHandler) ListByProduct(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "MISSING_ID", Message: "id es requerido"})
	}
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "query inválido"})
	}
	out, err := h.uc.ListByProduct(GetIdentity(c), id, page)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}
