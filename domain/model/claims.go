package model

import "github.com/golang-jwt/jwt"

const RoleAdmin = "admin"

// AdminClaims is the JWT payload accepted by the admin endpoints
type AdminClaims struct {
	UserName string `json:"username"`
	Role     string `json:"role"`
	jwt.StandardClaims
}
