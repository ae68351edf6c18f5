package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceItemRequest línea de factura en el request.
type InvoiceItemRequest struct {
	Product  string          `json:"product"` // ID del producto
	Quantity int64           `json:"quantity"`
	Price    decimal.Decimal `json:"price"`    // precio unitario; 0 = usar precio del catálogo
	Discount decimal.Decimal `json:"discount"` // descuento por línea, post-multiplicación
}

// CreateInvoiceRequest datos para crear una factura.
// Branch solo lo respetan los admin; para no-admin se estampa la sucursal del token.
type CreateInvoiceRequest struct {
	Customer      string               `json:"customer"`
	Items         []InvoiceItemRequest `json:"items"`
	Tax           decimal.Decimal      `json:"tax"`
	Discount      decimal.Decimal      `json:"discount"`
	PaymentMethod string               `json:"payment_method"`
	Notes         string               `json:"notes"`
	Branch        string               `json:"branch"`
}

// InvoiceItemResponse línea de factura en la respuesta.
type InvoiceItemResponse struct {
	ID          string          `json:"id"`
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int64           `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Discount    decimal.Decimal `json:"discount"`
	Total       decimal.Decimal `json:"total"`
}

// InvoiceResponse factura completa.
type InvoiceResponse struct {
	ID            string                `json:"id"`
	Number        string                `json:"number"`
	Branch        string                `json:"branch"`
	CustomerName  string                `json:"customer_name"`
	Items         []InvoiceItemResponse `json:"items"`
	Subtotal      decimal.Decimal       `json:"subtotal"`
	Tax           decimal.Decimal       `json:"tax"`
	Discount      decimal.Decimal       `json:"discount"`
	Total         decimal.Decimal       `json:"total"`
	PaymentMethod string                `json:"payment_method"`
	PaymentStatus string                `json:"payment_status"`
	Notes         string                `json:"notes,omitempty"`
	CreatedBy     string                `json:"created_by"`
	CreatedAt     time.Time             `json:"created_at"`
}

// InvoiceListResponse listado paginado de facturas.
type InvoiceListResponse struct {
	Items []InvoiceResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}

// CreatePaymentRequest datos para registrar un pago.
type CreatePaymentRequest struct {
	Amount        decimal.Decimal `json:"amount"`
	PaymentType   string          `json:"payment_type"` // credit | debit
	PaymentMethod string          `json:"payment_method"`
	Invoice       string          `json:"invoice"` // opcional: ID de la factura
	Reference     string          `json:"reference"`
	Notes         string          `json:"notes"`
	Branch        string          `json:"branch"`
}

// PaymentResponse pago registrado.
type PaymentResponse struct {
	ID            string          `json:"id"`
	InvoiceID     string          `json:"invoice_id,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentType   string          `json:"payment_type"`
	PaymentMethod string          `json:"payment_method"`
	Reference     string          `json:"reference,omitempty"`
	Notes         string          `json:"notes,omitempty"`
	Branch        string          `json:"branch"`
	CreatedBy     string          `json:"created_by"`
	CreatedAt     time.Time       `json:"created_at"`
}

// PaymentListResponse listado paginado de pagos.
type PaymentListResponse struct {
	Items []PaymentResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}
