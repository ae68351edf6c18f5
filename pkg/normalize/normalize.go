package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// quitar marcas diacríticas: NFD descompone, se eliminan los combining marks, NFC recompone.
var remover = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// SearchTerm normaliza un término de búsqueda: minúsculas, sin acentos y sin
// espacios sobrantes, para que "Jabón" encuentre "jabon" y viceversa.
func SearchTerm(s string) string {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return ""
	}
	out, _, err := transform.String(remover, s)
	if err != nil {
		return s
	}
	return out
}
