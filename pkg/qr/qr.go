package qr

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// PayloadTypeProduct es el único tipo de payload QR soportado.
const PayloadTypeProduct = "product"

// ProductPayload es el contenido JSON del QR de un producto. El render a imagen
// lo hace un colaborador externo; aquí solo se produce y valida el payload.
type ProductPayload struct {
	Type   string          `json:"type"`
	ID     string          `json:"id"`
	SKU    string          `json:"sku"`
	Name   string          `json:"name"`
	Price  decimal.Decimal `json:"price"`
	Branch string          `json:"branch,omitempty"`
}

// Encode serializa el payload a JSON tras validarlo.
func Encode(p ProductPayload) ([]byte, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(p)
}

// Decode parsea y valida un payload QR. Rechaza cualquier JSON que no sea un
// payload de producto válido.
func Decode(data []byte) (*ProductPayload, error) {
	var p ProductPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("payload QR malformado: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Validate exige type=="product", id/sku/name no vacíos y price > 0.
func (p ProductPayload) Validate() error {
	if p.Type != PayloadTypeProduct {
		return fmt.Errorf("tipo de payload QR inválido: %q", p.Type)
	}
	if p.ID == "" || p.SKU == "" || p.Name == "" {
		return fmt.Errorf("payload QR incompleto: id, sku y name son requeridos")
	}
	if !p.Price.GreaterThan(decimal.Zero) {
		return fmt.Errorf("payload QR inválido: price debe ser positivo")
	}
	return nil
}
