package model

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest is checked with go-playground/validator before an
// identity is created. An empty role means worker.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"max=120"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Role     string `json:"role" validate:"omitempty,oneof=creator admin moderator worker"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// CreateRowRequest carries a row for POST /tables/{table}. Keys are column
// names; the primary key may be omitted.
type CreateRowRequest struct {
	Row map[string]any `json:"row"`
}
