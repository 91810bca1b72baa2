package repository

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"time"

	"go-meeting-sync/core/database"
	"go-meeting-sync/core/errors"
	"go-meeting-sync/core/security"
	"go-meeting-sync/modules/calendar/entity"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const uniqueViolation = "23505"

type CalendarRepository interface {
	// Integrations
	GetIntegration(ctx context.Context, userID uuid.UUID, provider string) (*entity.CalendarIntegration, error)
	GetIntegrationByID(ctx context.Context, id uuid.UUID) (*entity.CalendarIntegration, error)
	ListIntegrationsByUser(ctx context.Context, userID uuid.UUID) ([]entity.CalendarIntegration, error)
	ListActiveIntegrations(ctx context.Context, provider string) ([]entity.CalendarIntegration, error)
	CreateIntegration(ctx context.Context, integ *entity.CalendarIntegration) error
	UpdateIntegration(ctx context.Context, integ *entity.CalendarIntegration) error
	UpdateIntegrationTokens(ctx context.Context, id uuid.UUID, accessToken, refreshToken string, expiresAt *time.Time) error
	SoftDeleteIntegration(ctx context.Context, userID uuid.UUID, provider string) error
	AdoptEvents(ctx context.Context, integ *entity.CalendarIntegration) error

	// Mirror rows
	GetEventByMeetingID(ctx context.Context, meetingID uuid.UUID) (*entity.CalendarEvent, error)
	ListEventsByMeetingID(ctx context.Context, meetingID uuid.UUID) ([]entity.CalendarEvent, error)
	GetEventByExternalID(ctx context.Context, integrationID uuid.UUID, externalID string) (*entity.CalendarEvent, error)
	GetEventByUserAndExternalID(ctx context.Context, userID uuid.UUID, externalID string) (*entity.CalendarEvent, error)
	ListEventsByUserAndWindow(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]entity.CalendarEvent, error)
	CreateEvent(ctx context.Context, ev *entity.CalendarEvent) error
	UpdateEvent(ctx context.Context, ev *entity.CalendarEvent) error
	LinkMeeting(ctx context.Context, eventID, meetingID uuid.UUID) error
	SoftDeleteEvent(ctx context.Context, eventID uuid.UUID) error
}

type calendarRepository struct {
	db     database.Database
	cipher *security.TokenCipher
}

func NewCalendarRepository(db database.Database, cipher *security.TokenCipher) CalendarRepository {
	return &calendarRepository{db: db, cipher: cipher}
}

// mapWriteError turns a unique-index violation into ErrAlreadyExists.
func mapWriteError(err error, what string) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if stderrors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return errors.NewAppError(errors.ErrAlreadyExists, what+" already exists", err)
	}
	return err
}

const integrationColumns = `
	id, user_id, provider, access_token, refresh_token, token_expires_at,
	scope, calendar_id, is_deleted, created_at, updated_at`

func (r *calendarRepository) decryptIntegration(integ *entity.CalendarIntegration) error {
	var err error
	if integ.AccessToken, err = r.cipher.Decrypt(integ.AccessToken); err != nil {
		return fmt.Errorf("decrypt access token: %w", err)
	}
	if integ.RefreshToken, err = r.cipher.Decrypt(integ.RefreshToken); err != nil {
		return fmt.Errorf("decrypt refresh token: %w", err)
	}
	return nil
}

func (r *calendarRepository) encryptTokens(accessToken, refreshToken string) (string, string, error) {
	access, err := r.cipher.Encrypt(accessToken)
	if err != nil {
		return "", "", fmt.Errorf("encrypt access token: %w", err)
	}
	refresh, err := r.cipher.Encrypt(refreshToken)
	if err != nil {
		return "", "", fmt.Errorf("encrypt refresh token: %w", err)
	}
	return access, refresh, nil
}

func (r *calendarRepository) getIntegration(ctx context.Context, query string, args ...any) (*entity.CalendarIntegration, error) {
	var integ entity.CalendarIntegration
	if err := r.db.GetContext(ctx, &integ, query, args...); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if err := r.decryptIntegration(&integ); err != nil {
		return nil, err
	}
	return &integ, nil
}

func (r *calendarRepository) selectIntegrations(ctx context.Context, query string, args ...any) ([]entity.CalendarIntegration, error) {
	var integrations []entity.CalendarIntegration
	if err := r.db.SelectContext(ctx, &integrations, query, args...); err != nil {
		return nil, err
	}
	for i := range integrations {
		if err := r.decryptIntegration(&integrations[i]); err != nil {
			return nil, err
		}
	}
	return integrations, nil
}

// GetIntegration returns the active integration, or nil when there is none.
func (r *calendarRepository) GetIntegration(ctx context.Context, userID uuid.UUID, provider string) (*entity.CalendarIntegration, error) {
	query := `SELECT` + integrationColumns + `
		FROM calendar_integrations
		WHERE user_id = $1 AND provider = $2 AND is_deleted = FALSE`
	return r.getIntegration(ctx, query, userID, provider)
}

// GetIntegrationByID also returns soft-deleted rows; check IsDeleted.
func (r *calendarRepository) GetIntegrationByID(ctx context.Context, id uuid.UUID) (*entity.CalendarIntegration, error) {
	query := `SELECT` + integrationColumns + `
		FROM calendar_integrations
		WHERE id = $1`
	return r.getIntegration(ctx, query, id)
}

func (r *calendarRepository) ListIntegrationsByUser(ctx context.Context, userID uuid.UUID) ([]entity.CalendarIntegration, error) {
	query := `SELECT` + integrationColumns + `
		FROM calendar_integrations
		WHERE user_id = $1 AND is_deleted = FALSE
		ORDER BY created_at DESC`
	return r.selectIntegrations(ctx, query, userID)
}

func (r *calendarRepository) ListActiveIntegrations(ctx context.Context, provider string) ([]entity.CalendarIntegration, error) {
	query := `SELECT` + integrationColumns + `
		FROM calendar_integrations
		WHERE provider = $1 AND is_deleted = FALSE
		ORDER BY created_at`
	return r.selectIntegrations(ctx, query, provider)
}

func (r *calendarRepository) CreateIntegration(ctx context.Context, integ *entity.CalendarIntegration) error {
	access, refresh, err := r.encryptTokens(integ.AccessToken, integ.RefreshToken)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO calendar_integrations (user_id, provider, access_token, refresh_token, token_expires_at, scope, calendar_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`
	err = r.db.QueryRowContext(ctx, query,
		integ.UserID, integ.Provider, access, refresh, integ.TokenExpiresAt, integ.Scope, integ.CalendarID,
	).Scan(&integ.ID, &integ.CreatedAt, &integ.UpdatedAt)
	return mapWriteError(err, "calendar integration")
}

func (r *calendarRepository) UpdateIntegration(ctx context.Context, integ *entity.CalendarIntegration) error {
	access, refresh, err := r.encryptTokens(integ.AccessToken, integ.RefreshToken)
	if err != nil {
		return err
	}

	query := `
		UPDATE calendar_integrations
		SET access_token = $1, refresh_token = $2, token_expires_at = $3, scope = $4, calendar_id = $5, updated_at = NOW()
		WHERE id = $6 AND is_deleted = FALSE
	`
	return r.db.ExecContext(ctx, query, access, refresh, integ.TokenExpiresAt, integ.Scope, integ.CalendarID, integ.ID)
}

func (r *calendarRepository) UpdateIntegrationTokens(ctx context.Context, id uuid.UUID, accessToken, refreshToken string, expiresAt *time.Time) error {
	access, refresh, err := r.encryptTokens(accessToken, refreshToken)
	if err != nil {
		return err
	}

	query := `
		UPDATE calendar_integrations
		SET access_token = $1, refresh_token = $2, token_expires_at = $3, updated_at = NOW()
		WHERE id = $4
	`
	return r.db.ExecContext(ctx, query, access, refresh, expiresAt, id)
}

func (r *calendarRepository) SoftDeleteIntegration(ctx context.Context, userID uuid.UUID, provider string) error {
	query := `
		UPDATE calendar_integrations
		SET is_deleted = TRUE, updated_at = NOW()
		WHERE user_id = $1 AND provider = $2 AND is_deleted = FALSE
	`
	return r.db.ExecContext(ctx, query, userID, provider)
}

// AdoptEvents moves active mirror rows left on the owner's disconnected
// integrations of the same provider onto integ.
func (r *calendarRepository) AdoptEvents(ctx context.Context, integ *entity.CalendarIntegration) error {
	query := `
		UPDATE calendar_events e
		SET integration_id = $1, updated_at = NOW()
		FROM calendar_integrations i
		WHERE i.id = e.integration_id AND i.user_id = $2 AND i.provider = $3
			AND i.is_deleted = TRUE AND e.is_deleted = FALSE
	`
	return mapWriteError(r.db.ExecContext(ctx, query, integ.ID, integ.UserID, integ.Provider), "calendar event")
}

const eventColumns = `
	e.id, e.integration_id, e.external_event_id, e.meeting_id, e.title, e.start_time, e.end_time,
	e.location, e.description, e.html_link, e.is_deleted, e.created_at, e.updated_at`

func (r *calendarRepository) getEvent(ctx context.Context, query string, args ...any) (*entity.CalendarEvent, error) {
	var ev entity.CalendarEvent
	if err := r.db.GetContext(ctx, &ev, query, args...); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &ev, nil
}

func (r *calendarRepository) GetEventByMeetingID(ctx context.Context, meetingID uuid.UUID) (*entity.CalendarEvent, error) {
	query := `SELECT` + eventColumns + `
		FROM calendar_events e
		WHERE e.meeting_id = $1 AND e.is_deleted = FALSE
		ORDER BY e.created_at
		LIMIT 1`
	return r.getEvent(ctx, query, meetingID)
}

func (r *calendarRepository) ListEventsByMeetingID(ctx context.Context, meetingID uuid.UUID) ([]entity.CalendarEvent, error) {
	query := `SELECT` + eventColumns + `
		FROM calendar_events e
		WHERE e.meeting_id = $1 AND e.is_deleted = FALSE
		ORDER BY e.created_at`
	var events []entity.CalendarEvent
	if err := r.db.SelectContext(ctx, &events, query, meetingID); err != nil {
		return nil, err
	}
	return events, nil
}

func (r *calendarRepository) GetEventByExternalID(ctx context.Context, integrationID uuid.UUID, externalID string) (*entity.CalendarEvent, error) {
	query := `SELECT` + eventColumns + `
		FROM calendar_events e
		WHERE e.integration_id = $1 AND e.external_event_id = $2 AND e.is_deleted = FALSE`
	return r.getEvent(ctx, query, integrationID, externalID)
}

func (r *calendarRepository) GetEventByUserAndExternalID(ctx context.Context, userID uuid.UUID, externalID string) (*entity.CalendarEvent, error) {
	query := `SELECT` + eventColumns + `
		FROM calendar_events e
		JOIN calendar_integrations i ON i.id = e.integration_id
		WHERE i.user_id = $1 AND e.external_event_id = $2 AND e.is_deleted = FALSE
		ORDER BY e.created_at
		LIMIT 1`
	return r.getEvent(ctx, query, userID, externalID)
}

func (r *calendarRepository) ListEventsByUserAndWindow(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]entity.CalendarEvent, error) {
	query := `SELECT` + eventColumns + `
		FROM calendar_events e
		JOIN calendar_integrations i ON i.id = e.integration_id
		WHERE i.user_id = $1 AND i.is_deleted = FALSE AND e.is_deleted = FALSE
			AND e.end_time >= $2 AND e.start_time < $3
		ORDER BY e.start_time`
	var events []entity.CalendarEvent
	if err := r.db.SelectContext(ctx, &events, query, userID, start, end); err != nil {
		return nil, err
	}
	return events, nil
}

// CreateEvent fails with ErrAlreadyExists when an active row already holds
// the same (integration, external id) or the same meeting.
func (r *calendarRepository) CreateEvent(ctx context.Context, ev *entity.CalendarEvent) error {
	query := `
		INSERT INTO calendar_events (integration_id, external_event_id, meeting_id, title, start_time, end_time, location, description, html_link)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		ev.IntegrationID, ev.ExternalEventID, ev.MeetingID, ev.Title, ev.StartTime, ev.EndTime,
		ev.Location, ev.Description, ev.HTMLLink,
	).Scan(&ev.ID, &ev.CreatedAt, &ev.UpdatedAt)
	return mapWriteError(err, "calendar event")
}

func (r *calendarRepository) UpdateEvent(ctx context.Context, ev *entity.CalendarEvent) error {
	query := `
		UPDATE calendar_events
		SET integration_id = $1, external_event_id = $2, meeting_id = $3, title = $4, start_time = $5, end_time = $6,
			location = $7, description = $8, html_link = $9, updated_at = NOW()
		WHERE id = $10
	`
	err := r.db.ExecContext(ctx, query,
		ev.IntegrationID, ev.ExternalEventID, ev.MeetingID, ev.Title, ev.StartTime, ev.EndTime,
		ev.Location, ev.Description, ev.HTMLLink, ev.ID,
	)
	return mapWriteError(err, "calendar event")
}

func (r *calendarRepository) LinkMeeting(ctx context.Context, eventID, meetingID uuid.UUID) error {
	query := `UPDATE calendar_events SET meeting_id = $1, updated_at = NOW() WHERE id = $2`
	return mapWriteError(r.db.ExecContext(ctx, query, meetingID, eventID), "calendar event for meeting")
}

func (r *calendarRepository) SoftDeleteEvent(ctx context.Context, eventID uuid.UUID) error {
	query := `UPDATE calendar_events SET is_deleted = TRUE, updated_at = NOW() WHERE id = $1`
	return r.db.ExecContext(ctx, query, eventID)
}
