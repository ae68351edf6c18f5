package dto

import "time"

// RegisterMovementRequest movimiento manual de inventario.
// Para in/out: Product, Type, Quantity, Reason.
// Para transfer: Product (origen), ToProduct (producto equivalente en la sucursal
// destino), Type=transfer, Quantity.
type RegisterMovementRequest struct {
	Product   string `json:"product"`
	ToProduct string `json:"to_product"`
	Type      string `json:"type"` // in, out, transfer
	Quantity  int64  `json:"quantity"`
	Reason    string `json:"reason"`
	Reference string `json:"reference"`
}

// MovementResponse entrada del libro de movimientos.
type MovementResponse struct {
	ID        string    `json:"id"`
	ProductID string    `json:"product_id"`
	Branch    string    `json:"branch"`
	Type      string    `json:"type"`
	Quantity  int64     `json:"quantity"`
	Reason    string    `json:"reason,omitempty"`
	Reference string    `json:"reference,omitempty"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

// MovementListResponse listado paginado de movimientos.
type MovementListResponse struct {
	Items []MovementResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}
