package models

import "time"

// UserType partitions accounts into the two roles the exchange knows about:
// ops accounts upload documents, client accounts download them.
type UserType string

const (
	UserTypeOps    UserType = "ops"
	UserTypeClient UserType = "client"
)

// Valid reports whether t is one of the two known roles.
func (t UserType) Valid() bool {
	return t == UserTypeOps || t == UserTypeClient
}

// DashboardPath returns the home route for the role.
func (t UserType) DashboardPath() string {
	if t == UserTypeOps {
		return "/ops-dashboard"
	}
	return "/client-dashboard"
}

// User is the identity record shared by the portal and the gateway.
// UserType is fixed at creation and never changes; it determines which
// dashboard the user may reach. IsVerified flips false to true exactly once,
// when email verification succeeds.
type User struct {
	ID         string     `json:"id"`
	Email      string     `json:"email"`
	UserType   UserType   `json:"userType"`
	IsVerified bool       `json:"isVerified"`
	CreatedAt  *time.Time `json:"createdAt,omitempty"`
}

// GatewayUser is the gateway-side record, extending User with credentials.
// VerificationToken is nil once the account has been verified.
type GatewayUser struct {
	User
	PasswordHash      []byte
	VerificationToken *string
	UpdatedAt         time.Time
}
