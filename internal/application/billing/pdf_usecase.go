package billing

import (
	"context"
	"fmt"

	"github.com/jhoicas/pos-sucursales/internal/domain"
	"github.com/jhoicas/pos-sucursales/internal/domain/auth"
	"github.com/jhoicas/pos-sucursales/internal/domain/repository"
)

// PDFUseCase genera la representación gráfica (PDF) de una factura.
type PDFUseCase struct {
	invoiceRepo repository.InvoiceRepository
	generator   InvoicePDFGenerator
}

// NewPDFUseCase construye el caso de uso.
func NewPDFUseCase(invoiceRepo repository.InvoiceRepository, generator InvoicePDFGenerator) *PDFUseCase {
	return &PDFUseCase{invoiceRepo: invoiceRepo, generator: generator}
}

// DownloadInvoicePDF carga la factura con sus líneas, verifica el scope de
// sucursal y genera el PDF.
//
// Retorna:
//   - (pdfBytes, filename, nil) si todo sale bien.
//   - domain.ErrNotFound        si la factura no existe.
//   - domain.ErrForbidden       si la factura no pertenece a la sucursal del token.
func (uc *PDFUseCase) DownloadInvoicePDF(ctx context.Context, identity *auth.Identity, invoiceID string) (pdfBytes []byte, filename string, err error) {
	if !identity.HasPermission(auth.PermReadInvoices) {
		return nil, "", domain.ErrForbidden
	}
	inv, err := uc.invoiceRepo.GetByID(invoiceID)
	if err != nil {
		return nil, "", fmt.Errorf("pdf: obtener factura: %w", err)
	}
	if inv == nil {
		return nil, "", domain.ErrNotFound
	}
	if !identity.CanAccessBranch(inv.Branch) {
		return nil, "", domain.ErrForbidden
	}
	items, err := uc.invoiceRepo.GetItemsByInvoiceID(invoiceID)
	if err != nil {
		return nil, "", fmt.Errorf("pdf: obtener líneas: %w", err)
	}
	inv.Items = items

	pdfBytes, err = uc.generator.Generate(inv)
	if err != nil {
		return nil, "", fmt.Errorf("pdf: generación fallida: %w", err)
	}
	filename = fmt.Sprintf("factura_%s.pdf", inv.Number)
	return pdfBytes, filename, nil
}
