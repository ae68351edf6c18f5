package jwt

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/jhoicas/pos-sucursales/internal/domain/auth"
)

// Claims incluye los claims estándar JWT más los campos de identidad de la aplicación.
// Role, Permissions y Branch viajan en el token para que las decisiones de acceso
// no consulten la DB por petición.
type Claims struct {
	jwt.RegisteredClaims
	UserID      string   `json:"user_id"`
	Email       string   `json:"email"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions,omitempty"`
	Branch      string   `json:"branch,omitempty"`
}

// Generate genera un token JWT firmado (HS256) con la identidad completa.
func Generate(secret string, identity auth.Identity, issuer string, expMinutes int) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("jwt: secret vacío")
	}
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   identity.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(expMinutes) * time.Minute)),
		},
		UserID:      identity.UserID,
		Email:       identity.Email,
		Role:        identity.Role,
		Permissions: identity.Permissions,
		Branch:      identity.Branch,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// Resolve valida el token y devuelve la identidad tipada.
// Retorna (nil, false) si el token es inválido, expirado, malformado o con firma
// incorrecta; nunca propaga el error de verificación al caller.
func Resolve(secret, tokenString string) (*auth.Identity, bool) {
	if secret == "" || tokenString == "" {
		return nil, false
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("método de firma inesperado: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return nil, false
	}
	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, false
	}
	return &auth.Identity{
		UserID:      claims.UserID,
		Email:       claims.Email,
		Role:        claims.Role,
		Permissions: claims.Permissions,
		Branch:      claims.Branch,
	}, true
}
