// Package jwt inspecciona los bearer tokens que emite el servicio de catálogo.
//
// La consola trata el token como opaco: nunca verifica la firma (no conoce el
// secreto). Si el token tiene forma de JWT se lee el claim exp para detectar la
// expiración sin gastar una petición; si no, se considera vigente.
package jwt

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims claims estándar más el nombre de usuario que incluye el catálogo.
type Claims struct {
	jwt.RegisteredClaims
	Username string `json:"username,omitempty"`
}

// Info resultado de inspeccionar un token.
type Info struct {
	IsJWT     bool
	Subject   string
	Username  string
	Issuer    string
	ExpiresAt time.Time // cero si el token no declara exp
}

// Inspect decodifica el token sin verificar la firma.
// Un token que no es JWT no es un error: devuelve Info{IsJWT: false}.
func Inspect(tokenString string) Info {
	claims := &Claims{}
	_, _, err := jwt.NewParser().ParseUnverified(tokenString, claims)
	if err != nil {
		return Info{}
	}
	info := Info{
		IsJWT:    true,
		Subject:  claims.Subject,
		Username: claims.Username,
		Issuer:   claims.Issuer,
	}
	if claims.ExpiresAt != nil {
		info.ExpiresAt = claims.ExpiresAt.Time
	}
	return info
}

// Expired indica si el token declara un exp anterior a now.
func Expired(tokenString string, now time.Time) bool {
	info := Inspect(tokenString)
	if !info.IsJWT || info.ExpiresAt.IsZero() {
		return false
	}
	return !now.Before(info.ExpiresAt)
}

// Generate genera un token firmado HS256. Lo usa el catálogo simulado de los tests
// y el comando de desarrollo; la consola nunca firma tokens en producción.
func Generate(secret, username, issuer string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("jwt: secret vacío")
	}
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Username: username,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// Parse valida firma y expiración y devuelve el usuario del token.
func Parse(secret, tokenString string) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("jwt: secret vacío")
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("método de firma inesperado: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return "", err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("claims inválidos")
	}
	return claims.Username, nil
}
