package repository

// CounterRepository define el puerto para secuencias con incremento-y-lectura
// atómico en el store. Next nunca devuelve dos veces el mismo valor para el mismo
// nombre, incluso bajo concurrencia; jamás implementar como "count + 1".
type CounterRepository interface {
	Next(name string) (int64, error)
}

// Nombre de la secuencia del consecutivo de facturas.
const CounterInvoiceNumber = "invoice_number"
