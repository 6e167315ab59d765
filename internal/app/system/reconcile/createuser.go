// internal/app/system/reconcile/createuser.go
package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/dalemusser/dispatchhub/internal/app/store/identity"
	userstore "github.com/dalemusser/dispatchhub/internal/app/store/users"
	"github.com/dalemusser/dispatchhub/internal/domain/models"
	"go.uber.org/zap"
)

// NewUser describes an account plus user document to create together.
type NewUser struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	UserType  models.UserType
}

// CreateUser creates the identity account, then the user document keyed by
// the new account id with requirePasswordChange set. If the document write
// fails the account is deleted again so no orphan is left behind.
func (s *Service) CreateUser(ctx context.Context, nu NewUser, now time.Time) (models.User, error) {
	u := models.User{
		FirstName:             nu.FirstName,
		LastName:              nu.LastName,
		Email:                 nu.Email,
		UserType:              nu.UserType,
		RequirePasswordChange: true,
		CreatedAt:             now.UTC().Format(time.RFC3339),
	}

	id, err := s.ids.CreateAccount(ctx, identity.Profile{
		Email:       nu.Email,
		Password:    nu.Password,
		DisplayName: u.FullName(),
	})
	if err != nil {
		return models.User{}, fmt.Errorf("reconcile: create account: %w", err)
	}
	u.ID = id

	if err := userstore.New(s.docs).Save(ctx, u); err != nil {
		s.log.Error("user document write failed; removing new account",
			zap.String("account_id", id),
			zap.String("email", nu.Email),
			zap.Error(err))
		if derr := s.ids.DeleteAccount(ctx, id); derr != nil {
			// The orphan cleanup will find this account later.
			s.log.Error("compensating account delete failed",
				zap.String("account_id", id),
				zap.Error(derr))
		}
		return models.User{}, fmt.Errorf("reconcile: write user document: %w", err)
	}

	s.log.Info("user created",
		zap.String("account_id", id),
		zap.String("email", nu.Email),
		zap.String("user_type", nu.UserType.String()))
	return u, nil
}
