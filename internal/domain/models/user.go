// internal/domain/models/user.go
package models

import (
	"fmt"
	"strconv"
)

// UserType is the numeric role stored on a user document.
type UserType int

const (
	UserTypeAdmin      UserType = 1
	UserTypeVolunteer  UserType = 2
	UserTypeDispatcher UserType = 3
)

// String returns the lowercase role name, or "unknown".
func (t UserType) String() string {
	switch t {
	case UserTypeAdmin:
		return "admin"
	case UserTypeVolunteer:
		return "volunteer"
	case UserTypeDispatcher:
		return "dispatcher"
	default:
		return "unknown"
	}
}

// User is the profile document kept in the "user" collection.
//
// NOTE:
//   - ID is the join key to the identity store and must equal Account.AccountID.
//     Neither store enforces it, so the two can drift apart.
//   - CreatedAt is kept as the RFC 3339 string the admin dashboard writes.
type User struct {
	ID                    string   `json:"id"`
	FirstName             string   `json:"firstName"`
	LastName              string   `json:"lastName"`
	Email                 string   `json:"email"`
	UserType              UserType `json:"userType"`
	RequirePasswordChange bool     `json:"requirePasswordChange"`
	CreatedAt             string   `json:"createdAt,omitempty"`
}

// FullName joins first and last name with a single space.
func (u User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// Doc returns the document representation written to the store.
func (u User) Doc() map[string]any {
	doc := map[string]any{
		"id":                    u.ID,
		"firstName":             u.FirstName,
		"lastName":              u.LastName,
		"email":                 u.Email,
		"userType":              int64(u.UserType),
		"requirePasswordChange": u.RequirePasswordChange,
	}
	if u.CreatedAt != "" {
		doc["createdAt"] = u.CreatedAt
	}
	return doc
}

// ParseUserType accepts a role name ("admin", "volunteer", "dispatcher") or
// its number.
func ParseUserType(s string) (UserType, error) {
	for _, t := range []UserType{UserTypeAdmin, UserTypeVolunteer, UserTypeDispatcher} {
		if s == t.String() || s == strconv.Itoa(int(t)) {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown user type %q", s)
}
