package models

import "github.com/golang-jwt/jwt/v5"

// ClassType is the delivery modality shared by students and classes.
type ClassType string

const (
	ClassTypePhysical ClassType = "physical"
	ClassTypeOnline   ClassType = "online"
)

// Valid reports whether t is a known modality.
func (t ClassType) Valid() bool {
	return t == ClassTypePhysical || t == ClassTypeOnline
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}

// JWTClaims are the claims carried by access tokens of the hosted auth service.
type JWTClaims struct {
	Email string `json:"email,omitempty"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// UserID returns the token subject.
func (c *JWTClaims) UserID() string {
	if c == nil {
		return ""
	}
	return c.Subject
}
