package provider

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go-meeting-sync/core/constants"
	"go-meeting-sync/core/errors"
	"go-meeting-sync/core/logger"

	"golang.org/x/oauth2"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// Calendar is the verb set the sync engines need from a provider.
type Calendar interface {
	ListEvents(ctx context.Context, start, end time.Time, maxResults int64) ([]*calendar.Event, error)
	GetEvent(ctx context.Context, eventID string) (*calendar.Event, error)
	CreateEvent(ctx context.Context, body *calendar.Event) (*calendar.Event, error)
	UpdateEvent(ctx context.Context, eventID string, body *calendar.Event) (*calendar.Event, error)
	DeleteEvent(ctx context.Context, eventID string) error
}

// TokenSaver persists a refreshed token.
type TokenSaver interface {
	SaveTokens(ctx context.Context, token Token) error
}

type TokenSaverFunc func(ctx context.Context, token Token) error

func (f TokenSaverFunc) SaveTokens(ctx context.Context, token Token) error {
	return f(ctx, token)
}

type Options struct {
	OAuth *oauth2.Config
	// Endpoint overrides the Calendar API base URL.
	Endpoint   string
	CalendarID string
	Timeout    time.Duration
	// HTTPClient supplies the base transport; nil means http.DefaultTransport.
	HTTPClient *http.Client
}

// Adapter wraps the Google Calendar v3 API. Every call runs under
// Options.Timeout. An unauthorized response triggers one token refresh
// followed by exactly one retry.
type Adapter struct {
	opts  Options
	saver TokenSaver
	scope string

	mu      sync.Mutex
	cred    Credential
	service *calendar.Service
}

func NewAdapter(ctx context.Context, cred Credential, saver TokenSaver, opts Options) (*Adapter, error) {
	scope, ok := SelectScope(cred.Scopes)
	if !ok {
		return nil, errors.NewAppError(errors.ErrPermissionDenied, "no calendar scope granted", nil)
	}
	if opts.CalendarID == "" {
		opts.CalendarID = constants.DefaultCalendarID
	}
	if opts.Timeout <= 0 {
		opts.Timeout = constants.DefaultTimeout
	}

	a := &Adapter{opts: opts, saver: saver, scope: scope, cred: cred}
	if err := a.rebuild(ctx); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *Adapter) Scope() string {
	return a.scope
}

func (a *Adapter) CanWrite() bool {
	return CanWrite(a.scope)
}

func (a *Adapter) rebuild(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	var base http.RoundTripper = http.DefaultTransport
	if a.opts.HTTPClient != nil && a.opts.HTTPClient.Transport != nil {
		base = a.opts.HTTPClient.Transport
	}

	client := &http.Client{
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{
				AccessToken: a.cred.AccessToken,
				TokenType:   "Bearer",
			}),
			Base: base,
		},
	}

	clientOpts := []option.ClientOption{option.WithHTTPClient(client)}
	if a.opts.Endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(a.opts.Endpoint))
	}

	svc, err := calendar.NewService(ctx, clientOpts...)
	if err != nil {
		return errors.NewAppError(errors.ErrSyncFailed, "failed to create calendar client", err)
	}
	a.service = svc
	return nil
}

func (a *Adapter) current() (*calendar.Service, string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.service, a.cred.RefreshToken
}

func (a *Adapter) requireWrite(op string) error {
	if a.CanWrite() {
		return nil
	}
	return errors.NewAppError(errors.ErrPermissionDenied, fmt.Sprintf("%s requires calendar write access", op), nil)
}

func (a *Adapter) call(ctx context.Context, fn func(ctx context.Context, svc *calendar.Service) error) error {
	svc, _ := a.current()
	callCtx, cancel := context.WithTimeout(ctx, a.opts.Timeout)
	defer cancel()
	return fn(callCtx, svc)
}

// do runs fn, refreshing the token and retrying once on 401.
func (a *Adapter) do(ctx context.Context, op string, fn func(ctx context.Context, svc *calendar.Service) error) error {
	err := a.call(ctx, fn)
	if err == nil {
		return nil
	}
	if !isStatus(err, http.StatusUnauthorized) {
		return translate(op, err)
	}

	if refreshErr := a.refresh(ctx); refreshErr != nil {
		logger.Warn("ProviderAdapter:Refresh:Error", "op", op, "error", refreshErr)
		return errors.NewAppError(errors.ErrTokenExpired, "calendar authorization expired", refreshErr)
	}

	err = a.call(ctx, fn)
	if err == nil {
		return nil
	}
	if isStatus(err, http.StatusUnauthorized) {
		return errors.NewAppError(errors.ErrTokenExpired, "calendar authorization expired", err)
	}
	return translate(op, err)
}

func (a *Adapter) refresh(ctx context.Context) error {
	_, refreshToken := a.current()
	if refreshToken == "" {
		return fmt.Errorf("no refresh token")
	}
	if a.opts.OAuth == nil {
		return fmt.Errorf("oauth client not configured")
	}

	refreshCtx, cancel := context.WithTimeout(ctx, a.opts.Timeout)
	defer cancel()

	tok, err := a.opts.OAuth.TokenSource(refreshCtx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		return fmt.Errorf("exchange refresh token: %w", err)
	}

	next := Token{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		Expiry:       tok.Expiry,
	}
	if next.RefreshToken == "" {
		next.RefreshToken = refreshToken
	}

	a.mu.Lock()
	a.cred.AccessToken = next.AccessToken
	a.cred.RefreshToken = next.RefreshToken
	a.cred.Expiry = next.Expiry
	a.mu.Unlock()

	if a.saver != nil {
		if err := a.saver.SaveTokens(ctx, next); err != nil {
			// the retry can still use the in-memory token
			logger.Error("ProviderAdapter:Refresh:SaveTokens:Error", "error", err)
		}
	}

	return a.rebuild(ctx)
}

func (a *Adapter) ListEvents(ctx context.Context, start, end time.Time, maxResults int64) ([]*calendar.Event, error) {
	var items []*calendar.Event
	err := a.do(ctx, "list events", func(ctx context.Context, svc *calendar.Service) error {
		items = items[:0]
		pageToken := ""
		for {
			call := svc.Events.List(a.opts.CalendarID).
				TimeMin(start.Format(time.RFC3339)).
				TimeMax(end.Format(time.RFC3339)).
				SingleEvents(true).
				OrderBy("startTime").
				ShowDeleted(false).
				Context(ctx)
			if maxResults > 0 {
				call = call.MaxResults(min(maxResults-int64(len(items)), constants.ReverseSyncMaxResults))
			}
			if pageToken != "" {
				call = call.PageToken(pageToken)
			}

			page, err := call.Do()
			if err != nil {
				return err
			}
			items = append(items, page.Items...)

			pageToken = page.NextPageToken
			if pageToken == "" || (maxResults > 0 && int64(len(items)) >= maxResults) {
				return nil
			}
		}
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// GetEvent returns nil without error when the event no longer exists.
func (a *Adapter) GetEvent(ctx context.Context, eventID string) (*calendar.Event, error) {
	var ev *calendar.Event
	err := a.do(ctx, "get event", func(ctx context.Context, svc *calendar.Service) error {
		var err error
		ev, err = svc.Events.Get(a.opts.CalendarID, eventID).Context(ctx).Do()
		return err
	})
	if errors.HasCode(err, errors.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return ev, nil
}

func (a *Adapter) CreateEvent(ctx context.Context, body *calendar.Event) (*calendar.Event, error) {
	if err := a.requireWrite("create event"); err != nil {
		return nil, err
	}

	var created *calendar.Event
	err := a.do(ctx, "create event", func(ctx context.Context, svc *calendar.Service) error {
		call := svc.Events.Insert(a.opts.CalendarID, body).Context(ctx)
		if body.ConferenceData != nil {
			call = call.ConferenceDataVersion(1)
		}
		var err error
		created, err = call.Do()
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// UpdateEvent fails with ErrNotFound when the event no longer exists.
func (a *Adapter) UpdateEvent(ctx context.Context, eventID string, body *calendar.Event) (*calendar.Event, error) {
	if err := a.requireWrite("update event"); err != nil {
		return nil, err
	}

	var updated *calendar.Event
	err := a.do(ctx, "update event", func(ctx context.Context, svc *calendar.Service) error {
		call := svc.Events.Update(a.opts.CalendarID, eventID, body).Context(ctx)
		if body.ConferenceData != nil {
			call = call.ConferenceDataVersion(1)
		}
		var err error
		updated, err = call.Do()
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteEvent treats an already missing event as deleted.
func (a *Adapter) DeleteEvent(ctx context.Context, eventID string) error {
	if err := a.requireWrite("delete event"); err != nil {
		return err
	}

	err := a.do(ctx, "delete event", func(ctx context.Context, svc *calendar.Service) error {
		return svc.Events.Delete(a.opts.CalendarID, eventID).Context(ctx).Do()
	})
	if errors.HasCode(err, errors.ErrNotFound) {
		return nil
	}
	return err
}

func isStatus(err error, codes ...int) bool {
	var gErr *googleapi.Error
	if !stderrors.As(err, &gErr) {
		return false
	}
	for _, c := range codes {
		if gErr.Code == c {
			return true
		}
	}
	return false
}

func translate(op string, err error) error {
	switch {
	case isStatus(err, http.StatusNotFound, http.StatusGone):
		return errors.NewAppError(errors.ErrNotFound, op+": event not found", err)
	case isStatus(err, http.StatusForbidden):
		return errors.NewAppError(errors.ErrPermissionDenied, op+": forbidden by provider", err)
	case stderrors.Is(err, context.DeadlineExceeded):
		return errors.NewAppError(errors.ErrSyncFailed, op+": provider timed out", err)
	default:
		return errors.NewAppError(errors.ErrSyncFailed, op+" failed", err)
	}
}

// GoogleFactory builds adapters sharing one OAuth client configuration.
type GoogleFactory struct {
	opts Options
}

func NewGoogleFactory(opts Options) *GoogleFactory {
	return &GoogleFactory{opts: opts}
}

// New builds an adapter for cred. calendarID overrides the factory default
// when non-empty.
func (f *GoogleFactory) New(ctx context.Context, cred Credential, calendarID string, saver TokenSaver) (Calendar, error) {
	opts := f.opts
	if calendarID != "" {
		opts.CalendarID = calendarID
	}
	return NewAdapter(ctx, cred, saver, opts)
}
