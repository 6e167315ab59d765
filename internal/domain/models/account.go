// internal/domain/models/account.go
package models

import "time"

// Account is a login identity held by the identity provider.
// AccountID is opaque and is reused as the id of the matching User document.
type Account struct {
	AccountID    string     `json:"accountId" bson:"_id"`
	Email        string     `json:"email" bson:"email"`
	DisplayName  string     `json:"displayName,omitempty" bson:"display_name,omitempty"`
	CreatedAt    time.Time  `json:"createdAt" bson:"created_at"`
	LastSignInAt *time.Time `json:"lastSignInAt,omitempty" bson:"last_sign_in_at,omitempty"`
}
