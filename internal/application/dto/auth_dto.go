package dto

// LoginRequest cuerpo de POST /auth/login.
type LoginRequest struct {
	Username string `json:"username" form:"username" validate:"required"`
	Password string `json:"password" form:"password" validate:"required"`
}

// LoginResponse respuesta del catálogo con el bearer token.
type LoginResponse struct {
	Token string `json:"token"`
}
