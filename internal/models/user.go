package models

const UserTypeAdmin = "admin"

type User struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Type == UserTypeAdmin
}

// Credentials is the body accepted by the login route.
type Credentials struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type Registration struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Phone    string `json:"phone,omitempty"`
	CPF      string `json:"cpf,omitempty"`
}

// AuthResult is what the auth service returns on login.
type AuthResult struct {
	Token  string `json:"token"`
	UserID string `json:"userId"`
	User   User   `json:"user"`
}
