package service

import (
	"context"
	"time"

	"go-meeting-sync/core/errors"
	"go-meeting-sync/core/logger"
	"go-meeting-sync/modules/calendar/entity"
	"go-meeting-sync/modules/calendar/provider"
	"go-meeting-sync/modules/calendar/repository"

	"github.com/google/uuid"
)

// integrationResolver turns a user into a ready provider client, creating
// the integration row from the stored OAuth credential on first use.
type integrationResolver struct {
	calendars    repository.CalendarRepository
	credentials  repository.CredentialRepository
	providers    ProviderFactory
	providerName string
}

func (r *integrationResolver) integration(ctx context.Context, userID uuid.UUID) (*entity.CalendarIntegration, error) {
	integ, err := r.calendars.GetIntegration(ctx, userID, r.providerName)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to load calendar integration", err)
	}
	if integ != nil {
		return integ, nil
	}

	cred, err := r.credentials.GetCredential(ctx, userID, r.providerName)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to load credential", err)
	}
	if cred == nil {
		return nil, errors.NewAppError(errors.ErrNotFound, "no calendar connected", nil)
	}

	integ = &entity.CalendarIntegration{
		UserID:       userID,
		Provider:     r.providerName,
		AccessToken:  cred.AccessToken,
		RefreshToken: cred.RefreshToken,
		Scope:        cred.ScopeString(),
	}
	if !cred.Expiry.IsZero() {
		expiry := cred.Expiry
		integ.TokenExpiresAt = &expiry
	}

	err = r.calendars.CreateIntegration(ctx, integ)
	if errors.HasCode(err, errors.ErrAlreadyExists) {
		// created concurrently
		return r.calendars.GetIntegration(ctx, userID, r.providerName)
	}
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to create calendar integration", err)
	}
	if err := r.calendars.AdoptEvents(ctx, integ); err != nil {
		logger.Warn("CalendarSync:Integration:AdoptEvents:Error", "integration_id", integ.ID, "error", err)
	}
	logger.Info("CalendarSync:Integration:Created", "user_id", userID, "integration_id", integ.ID, "scope", integ.Scope)
	return integ, nil
}

func credentialOf(integ *entity.CalendarIntegration) provider.Credential {
	cred := provider.Credential{
		AccessToken:  integ.AccessToken,
		RefreshToken: integ.RefreshToken,
		Scopes:       provider.ParseScopes(integ.Scope),
	}
	if integ.TokenExpiresAt != nil {
		cred.Expiry = *integ.TokenExpiresAt
	}
	return cred
}

// client builds a provider client for integ. Refreshed tokens are written
// to the integration row and to the credential store.
func (r *integrationResolver) client(ctx context.Context, integ *entity.CalendarIntegration) (provider.Calendar, error) {
	saver := provider.TokenSaverFunc(func(ctx context.Context, token provider.Token) error {
		var expiry *time.Time
		if !token.Expiry.IsZero() {
			t := token.Expiry
			expiry = &t
		}
		if err := r.calendars.UpdateIntegrationTokens(ctx, integ.ID, token.AccessToken, token.RefreshToken, expiry); err != nil {
			return err
		}
		integ.AccessToken = token.AccessToken
		integ.RefreshToken = token.RefreshToken
		integ.TokenExpiresAt = expiry
		if err := r.credentials.SaveTokens(ctx, integ.UserID, integ.Provider, token); err != nil {
			logger.Warn("CalendarSync:SaveTokens:CredentialStore:Error", "user_id", integ.UserID, "error", err)
		}
		return nil
	})

	return r.providers.New(ctx, credentialOf(integ), integ.CalendarID, saver)
}

// clientForUser resolves the user's integration and builds its client.
func (r *integrationResolver) clientForUser(ctx context.Context, userID uuid.UUID) (*entity.CalendarIntegration, provider.Calendar, error) {
	integ, err := r.integration(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	cal, err := r.client(ctx, integ)
	if err != nil {
		return nil, nil, err
	}
	return integ, cal, nil
}
