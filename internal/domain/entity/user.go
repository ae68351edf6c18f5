package entity

import "time"

// User representa un usuario del sistema. Role y Permissions viajan en el JWT
// para que las decisiones de acceso no consulten la DB por petición.
type User struct {
	ID           string
	Email        string
	PasswordHash string // bcrypt, nunca plano en dominio después de persistir
	Name         string
	Role         string   // admin, manager, user... (texto libre)
	Permissions  []string // p. ej. "read:products", "write:all", "billing.create"
	Branch       string   // sucursal asignada; vacío solo tiene sentido para admin
	Status       string   // active, inactive, suspended
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
