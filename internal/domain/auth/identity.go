package auth

import "strings"

// Roles conocidos. Role es texto libre en el token; solo "admin" tiene semántica especial.
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleUser    = "user"
)

// Comodines de permiso: "<verbo>:all" autoriza cualquier permiso con ese prefijo de verbo.
// Solo estos tres; ningún otro patrón se expande.
var wildcardVerbs = [...]string{"read", "write", "delete"}

// Identity es el claim de identidad de la petición: se construye una vez al verificar
// el token y es inmutable durante la vida de la petición. Todas las decisiones de
// acceso (rol, permiso, sucursal) viven aquí y en ningún otro lugar.
type Identity struct {
	UserID      string
	Email       string
	Role        string
	Permissions []string
	Branch      string
}

// IsAdmin indica si la identidad tiene el rol admin (bypass incondicional).
func (id *Identity) IsAdmin() bool {
	return id != nil && id.Role == RoleAdmin
}

// HasPermission decide si la identidad tiene el permiso solicitado.
// admin → siempre true, incluso con permiso vacío. Identidad nil o permiso vacío → false.
// No-admin: match exacto del string, o comodín "read:all"/"write:all"/"delete:all"
// cuando el permiso solicitado comparte el verbo. Función pura, nunca panic.
func (id *Identity) HasPermission(permission string) bool {
	if id == nil {
		return false
	}
	if id.IsAdmin() {
		return true
	}
	if permission == "" {
		return false
	}
	for _, p := range id.Permissions {
		if p == permission {
			return true
		}
	}
	for _, verb := range wildcardVerbs {
		if strings.HasPrefix(permission, verb+":") && id.hasExact(verb+":all") {
			return true
		}
	}
	return false
}

// HasRole compara el rol de forma exacta y sensible a mayúsculas. nil/vacío → false.
func (id *Identity) HasRole(role string) bool {
	if id == nil || role == "" {
		return false
	}
	return id.Role == role
}

// CanAccessBranch decide el acceso a una sucursal. admin → siempre true (incluso con
// sucursal vacía). No-admin: requiere sucursal asignada y que coincida exactamente
// con la solicitada; una sucursal solicitada vacía es false.
func (id *Identity) CanAccessBranch(branch string) bool {
	if id == nil {
		return false
	}
	if id.IsAdmin() {
		return true
	}
	if branch == "" || id.Branch == "" {
		return false
	}
	return id.Branch == branch
}

func (id *Identity) hasExact(permission string) bool {
	for _, p := range id.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}
