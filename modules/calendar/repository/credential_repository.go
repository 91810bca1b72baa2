package repository

import (
	"context"
	"database/sql"
	stderrors "errors"
	"strings"
	"time"

	"go-meeting-sync/core/database"
	"go-meeting-sync/core/logger"
	"go-meeting-sync/modules/calendar/entity"
	"go-meeting-sync/modules/calendar/provider"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// CredentialRepository is the credential store backed by social_logins.
type CredentialRepository interface {
	GetCredential(ctx context.Context, userID uuid.UUID, providerName string) (*provider.Credential, error)
	SaveCredential(ctx context.Context, userID uuid.UUID, providerName string, cred provider.Credential) error
	SaveTokens(ctx context.Context, userID uuid.UUID, providerName string, token provider.Token) error
	Deactivate(ctx context.Context, userID uuid.UUID, providerName string) error
}

type credentialRepository struct {
	db database.Database
}

func NewCredentialRepository(db database.Database) CredentialRepository {
	return &credentialRepository{db: db}
}

// GetCredential returns nil when the user never signed in with the provider
// or holds no access token.
func (r *credentialRepository) GetCredential(ctx context.Context, userID uuid.UUID, providerName string) (*provider.Credential, error) {
	var login entity.SocialLogin
	query := `
		SELECT id, user_id, provider, provider_email, access_token, refresh_token, token_expires_at,
			scopes, is_active, created_at, updated_at
		FROM social_logins
		WHERE user_id = $1 AND provider = $2 AND is_active = TRUE
	`
	err := r.db.GetContext(ctx, &login, query, userID, providerName)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		logger.Error("CredentialRepository:GetCredential:Error", "error", err, "user_id", userID, "provider", providerName)
		return nil, err
	}
	if login.AccessToken == nil || *login.AccessToken == "" {
		return nil, nil
	}

	cred := &provider.Credential{
		AccessToken: *login.AccessToken,
		Scopes:      provider.ParseScopes(strings.Join(login.Scopes, " ")),
	}
	if login.RefreshToken != nil {
		cred.RefreshToken = *login.RefreshToken
	}
	if login.TokenExpiresAt != nil {
		cred.Expiry = *login.TokenExpiresAt
	}
	return cred, nil
}

func (r *credentialRepository) SaveCredential(ctx context.Context, userID uuid.UUID, providerName string, cred provider.Credential) error {
	var expiresAt *time.Time
	if !cred.Expiry.IsZero() {
		expiresAt = &cred.Expiry
	}

	query := `
		INSERT INTO social_logins (user_id, provider, access_token, refresh_token, token_expires_at, scopes, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE)
		ON CONFLICT (user_id, provider)
		DO UPDATE SET
			access_token = EXCLUDED.access_token,
			refresh_token = COALESCE(NULLIF(EXCLUDED.refresh_token, ''), social_logins.refresh_token),
			token_expires_at = EXCLUDED.token_expires_at,
			scopes = EXCLUDED.scopes,
			is_active = TRUE,
			updated_at = NOW()
	`
	err := r.db.ExecContext(ctx, query,
		userID, providerName, cred.AccessToken, cred.RefreshToken, expiresAt, pq.Array(cred.Scopes),
	)
	if err != nil {
		logger.Error("CredentialRepository:SaveCredential:Error", "error", err, "user_id", userID)
		return err
	}
	return nil
}

func (r *credentialRepository) SaveTokens(ctx context.Context, userID uuid.UUID, providerName string, token provider.Token) error {
	var expiresAt *time.Time
	if !token.Expiry.IsZero() {
		expiresAt = &token.Expiry
	}

	query := `
		UPDATE social_logins
		SET access_token = $1, refresh_token = COALESCE(NULLIF($2, ''), refresh_token), token_expires_at = $3, updated_at = NOW()
		WHERE user_id = $4 AND provider = $5
	`
	err := r.db.ExecContext(ctx, query, token.AccessToken, token.RefreshToken, expiresAt, userID, providerName)
	if err != nil {
		logger.Error("CredentialRepository:SaveTokens:Error", "error", err, "user_id", userID)
		return err
	}
	return nil
}

// Deactivate hides the credential from GetCredential until the user
// connects again.
func (r *credentialRepository) Deactivate(ctx context.Context, userID uuid.UUID, providerName string) error {
	query := `
		UPDATE social_logins
		SET is_active = FALSE, updated_at = NOW()
		WHERE user_id = $1 AND provider = $2
	`
	err := r.db.ExecContext(ctx, query, userID, providerName)
	if err != nil {
		logger.Error("CredentialRepository:Deactivate:Error", "error", err, "user_id", userID)
		return err
	}
	return nil
}
