package auth

// Permisos conocidos por la aplicación. Los de catálogo/inventario usan el esquema
// "<verbo>:<recurso>" y por tanto los cubren los comodines "<verbo>:all";
// los de facturación son strings literales sin expansión.
const (
	PermBillingCreate   = "billing.create"
	PermBillingPayments = "billing.payments"

	PermReadProducts   = "read:products"
	PermWriteProducts  = "write:products"
	PermDeleteProducts = "delete:products"

	PermReadInventory  = "read:inventory"
	PermWriteInventory = "write:inventory"

	PermReadInvoices = "read:invoices"
	PermReadPayments = "read:payments"
)
