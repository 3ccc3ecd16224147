package model

import (
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Role codes as constants
const (
	RoleCashier = "Cashier"
	RoleManager = "Manager"
)

// Privilege codes checked by the HTTP middleware
const (
	PrivRegister      = "register:use"
	PrivInventoryView = "inventory:view"
	PrivInventoryEdit = "inventory:edit"
	PrivAuditView     = "audit:view"
	PrivReportView    = "report:view"
	PrivUserManage    = "user:manage"
)

// RolePrivileges defines what each role may do. Managers can also ring up sales.
var RolePrivileges = map[string][]string{
	RoleCashier: {PrivRegister, PrivInventoryView},
	RoleManager: {PrivRegister, PrivInventoryView, PrivInventoryEdit, PrivAuditView, PrivReportView, PrivUserManage},
}

// User represents an authenticated user in the system
type User struct {
	BaseModel
	Name         string     `gorm:"type:varchar(255);uniqueIndex;not null" json:"name" validate:"required"`
	Password     string     `gorm:"type:varchar(255);not null" json:"-"` // Hidden from JSON
	Role         string     `gorm:"type:varchar(20);not null" json:"role" validate:"required,role"`
	IsActive     bool       `gorm:"default:true" json:"is_active"`
	TokenVersion string     `gorm:"type:varchar(255);default:''" json:"-"` // For single session enforcement
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
}

// SetPassword hashes and sets the user's password
func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hashedPassword)
	return nil
}

// CheckPassword verifies if the provided password matches the stored hash
func (u *User) CheckPassword(password string) bool {
	if u.Password == "" {
		return false
	}
	err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password))
	return err == nil
}

// Privileges returns the privilege codes granted by the user's role
func (u *User) Privileges() []string {
	privs := RolePrivileges[u.Role]
	out := make([]string, len(privs))
	copy(out, privs)
	return out
}

// DisplayName is the actor label written to audit rows, e.g. "Ana (Manager)".
func (u *User) DisplayName() string {
	if u.Role == "" {
		return u.Name
	}
	return fmt.Sprintf("%s (%s)", u.Name, u.Role)
}

// UserResponse is used for API responses (without sensitive data)
type UserResponse struct {
	ID          uint       `json:"id"`
	Name        string     `json:"name"`
	Role        string     `json:"role"`
	IsActive    bool       `json:"is_active"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	Privileges  []string   `json:"privileges"`
}

// ToResponse converts User to UserResponse
func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:          u.ID,
		Name:        u.Name,
		Role:        u.Role,
		IsActive:    u.IsActive,
		LastLoginAt: u.LastLoginAt,
		Privileges:  u.Privileges(),
	}
}
