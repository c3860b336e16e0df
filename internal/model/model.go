// Package model contains domain entities and DTOs used across layers.
// I keep it lean and focused on data shapes; the only behaviour is the patch merge.
package model

import (
	"strings"
	"time"
)

// User is an account owned by a tenant. PasswordHash never leaves the process.
type User struct {
	ID           int64     `json:"id"`
	UserName     string    `json:"user_name"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	TenantID     int64     `json:"tenant_id"`
	Roles        []string  `json:"roles"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (u User) EntityID() int64 { return u.ID }

func (u User) WithID(id int64) User {
	u.ID = id
	return u
}

// Role is a named permission bundle a user can be a member of.
type Role struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func (r Role) EntityID() int64 { return r.ID }

func (r Role) WithID(id int64) Role {
	r.ID = id
	return r
}

// UserViewModel is the create-user request body. Password is write-only.
type UserViewModel struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	RoleID   int64  `json:"role_id" binding:"required,gt=0"`
}

// UserPatch is a partial update; nil fields are absent and left untouched.
type UserPatch struct {
	UserName *string `json:"user_name"`
	Email    *string `json:"email" binding:"omitempty,email"`
	Name     *string `json:"name"`
	TenantID *int64  `json:"tenant_id" binding:"omitempty,gt=0"`
}

// Apply copies every present field of p onto u.
func (p UserPatch) Apply(u *User) {
	if p.UserName != nil {
		u.UserName = *p.UserName
	}
	if p.Email != nil {
		u.Email = NormalizeEmail(*p.Email)
	}
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.TenantID != nil {
		u.TenantID = *p.TenantID
	}
}

// Empty reports whether the patch carries no fields.
func (p UserPatch) Empty() bool {
	return p.UserName == nil && p.Email == nil && p.Name == nil && p.TenantID == nil
}

// NormalizeEmail is the canonical form used for uniqueness checks and storage.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
