package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go-meeting-sync/core/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	"google.golang.org/api/calendar/v3"
)

// fakeGoogle serves the Calendar v3 events endpoints and an OAuth2 token
// endpoint. Only requests bearing validToken are authorized.
type fakeGoogle struct {
	t *testing.T

	mu         sync.Mutex
	validToken string
	issueToken string
	events     map[string]*calendar.Event
	delay      time.Duration
	failWith   int

	apiCalls   atomic.Int32
	tokenCalls atomic.Int32
	lastQuery  string
}

func (f *fakeGoogle) query() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastQuery
}

func newFakeGoogle(t *testing.T) (*fakeGoogle, *httptest.Server) {
	f := &fakeGoogle{
		t:          t,
		validToken: "fresh",
		issueToken: "fresh",
		events:     map[string]*calendar.Event{},
	}
	srv := httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(srv.Close)
	return f, srv
}

func writeGoogleError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{"code": code, "message": msg},
	})
}

func (f *fakeGoogle) serve(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/token" {
		f.tokenCalls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": f.issueToken,
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
		return
	}

	f.apiCalls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastQuery = r.URL.RawQuery

	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if r.Header.Get("Authorization") != "Bearer "+f.validToken {
		writeGoogleError(w, http.StatusUnauthorized, "Invalid Credentials")
		return
	}
	if f.failWith != 0 {
		writeGoogleError(w, f.failWith, "backend error")
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/calendar/v3")
	const base = "/calendars/primary/events"
	if !strings.HasPrefix(path, base) {
		http.NotFound(w, r)
		return
	}
	id := strings.TrimPrefix(strings.TrimPrefix(path, base), "/")

	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodGet && id == "":
		items := make([]*calendar.Event, 0, len(f.events))
		for _, ev := range f.events {
			items = append(items, ev)
		}
		_ = json.NewEncoder(w).Encode(&calendar.Events{Items: items})
	case r.Method == http.MethodPost && id == "":
		var ev calendar.Event
		_ = json.NewDecoder(r.Body).Decode(&ev)
		ev.Id = "evt-" + ev.Summary
		f.events[ev.Id] = &ev
		_ = json.NewEncoder(w).Encode(&ev)
	case r.Method == http.MethodGet:
		ev, ok := f.events[id]
		if !ok {
			writeGoogleError(w, http.StatusNotFound, "Not Found")
			return
		}
		_ = json.NewEncoder(w).Encode(ev)
	case r.Method == http.MethodPut:
		if _, ok := f.events[id]; !ok {
			writeGoogleError(w, http.StatusNotFound, "Not Found")
			return
		}
		var ev calendar.Event
		_ = json.NewDecoder(r.Body).Decode(&ev)
		ev.Id = id
		f.events[id] = &ev
		_ = json.NewEncoder(w).Encode(&ev)
	case r.Method == http.MethodDelete:
		if _, ok := f.events[id]; !ok {
			writeGoogleError(w, http.StatusGone, "Resource has been deleted")
			return
		}
		delete(f.events, id)
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "unsupported", http.StatusMethodNotAllowed)
	}
}

func testOptions(srv *httptest.Server) Options {
	return Options{
		OAuth: &oauth2.Config{
			ClientID:     "client",
			ClientSecret: "secret",
			Endpoint: oauth2.Endpoint{
				TokenURL:  srv.URL + "/token",
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		Endpoint: srv.URL + "/",
		Timeout:  2 * time.Second,
	}
}

type recordingSaver struct {
	saved []Token
}

func (s *recordingSaver) SaveTokens(_ context.Context, t Token) error {
	s.saved = append(s.saved, t)
	return nil
}

func TestSelectScope(t *testing.T) {
	tests := []struct {
		name    string
		granted string
		want    string
		ok      bool
	}{
		{"full wins", calendar.CalendarEventsReadonlyScope + " " + calendar.CalendarScope, calendar.CalendarScope, true},
		{"events over readonly", "calendar.readonly,calendar.events", calendar.CalendarEventsScope, true},
		{"readonly over events readonly", "calendar.events.readonly calendar.readonly", calendar.CalendarReadonlyScope, true},
		{"unknown only", "openid email profile", "", false},
		{"empty", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SelectScope(ParseScopes(tt.granted))
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCredentialUnmarshalAcceptsBothScopeShapes(t *testing.T) {
	var a Credential
	require.NoError(t, json.Unmarshal([]byte(`{
		"access_token": "at",
		"refresh_token": "rt",
		"expires_at": 1700000000,
		"scope": "openid https://www.googleapis.com/auth/calendar.events"
	}`), &a))
	assert.Equal(t, "at", a.AccessToken)
	assert.Equal(t, "rt", a.RefreshToken)
	assert.Equal(t, int64(1700000000), a.Expiry.Unix())
	assert.Contains(t, a.Scopes, calendar.CalendarEventsScope)

	var b Credential
	require.NoError(t, json.Unmarshal([]byte(`{
		"access_token": "at",
		"granted_scopes": ["https://www.googleapis.com/auth/calendar.readonly"]
	}`), &b))
	assert.Equal(t, []string{calendar.CalendarReadonlyScope}, b.Scopes)
	assert.True(t, b.Expiry.IsZero())

	var c Credential
	assert.Error(t, json.Unmarshal([]byte(`{"scope": 42}`), &c))
}

func TestNewAdapterWithoutKnownScope(t *testing.T) {
	_, srv := newFakeGoogle(t)

	_, err := NewAdapter(context.Background(), Credential{
		AccessToken: "fresh",
		Scopes:      []string{"openid"},
	}, nil, testOptions(srv))

	assert.True(t, errors.HasCode(err, errors.ErrPermissionDenied))
}

func TestReadOnlyScopeBlocksWritesWithoutNetwork(t *testing.T) {
	fake, srv := newFakeGoogle(t)

	a, err := NewAdapter(context.Background(), Credential{
		AccessToken: "fresh",
		Scopes:      []string{calendar.CalendarReadonlyScope},
	}, nil, testOptions(srv))
	require.NoError(t, err)
	assert.False(t, a.CanWrite())

	_, err = a.CreateEvent(context.Background(), &calendar.Event{Summary: "Weekly Sync"})
	assert.True(t, errors.HasCode(err, errors.ErrPermissionDenied))

	_, err = a.UpdateEvent(context.Background(), "evt-1", &calendar.Event{Summary: "Weekly Sync"})
	assert.True(t, errors.HasCode(err, errors.ErrPermissionDenied))

	err = a.DeleteEvent(context.Background(), "evt-1")
	assert.True(t, errors.HasCode(err, errors.ErrPermissionDenied))

	assert.Equal(t, int32(0), fake.apiCalls.Load())
	assert.Equal(t, int32(0), fake.tokenCalls.Load())
}

func TestRefreshOnceThenRetry(t *testing.T) {
	fake, srv := newFakeGoogle(t)
	fake.events["evt-1"] = &calendar.Event{Id: "evt-1", Summary: "Weekly Sync"}
	saver := &recordingSaver{}

	a, err := NewAdapter(context.Background(), Credential{
		AccessToken:  "stale",
		RefreshToken: "refresh-1",
		Scopes:       []string{calendar.CalendarEventsScope},
	}, saver, testOptions(srv))
	require.NoError(t, err)

	events, err := a.ListEvents(context.Background(), time.Now(), time.Now().Add(time.Hour), 10)
	require.NoError(t, err)
	require.Len(t, events, 1)

	assert.Equal(t, int32(2), fake.apiCalls.Load())
	assert.Equal(t, int32(1), fake.tokenCalls.Load())
	require.Len(t, saver.saved, 1)
	assert.Equal(t, "fresh", saver.saved[0].AccessToken)
	assert.Equal(t, "refresh-1", saver.saved[0].RefreshToken, "refresh token is kept when the provider omits it")
	assert.False(t, saver.saved[0].Expiry.IsZero())

	// the rebuilt client keeps working without another refresh
	_, err = a.GetEvent(context.Background(), "evt-1")
	require.NoError(t, err)
	assert.Equal(t, int32(1), fake.tokenCalls.Load())
}

func TestSecondUnauthorizedIsTokenExpired(t *testing.T) {
	fake, srv := newFakeGoogle(t)
	fake.issueToken = "still-wrong"

	a, err := NewAdapter(context.Background(), Credential{
		AccessToken:  "stale",
		RefreshToken: "refresh-1",
		Scopes:       []string{calendar.CalendarScope},
	}, &recordingSaver{}, testOptions(srv))
	require.NoError(t, err)

	_, err = a.ListEvents(context.Background(), time.Now(), time.Now().Add(time.Hour), 10)
	assert.True(t, errors.HasCode(err, errors.ErrTokenExpired))
	assert.Equal(t, int32(2), fake.apiCalls.Load())
	assert.Equal(t, int32(1), fake.tokenCalls.Load())
}

func TestUnauthorizedWithoutRefreshToken(t *testing.T) {
	fake, srv := newFakeGoogle(t)

	a, err := NewAdapter(context.Background(), Credential{
		AccessToken: "stale",
		Scopes:      []string{calendar.CalendarScope},
	}, nil, testOptions(srv))
	require.NoError(t, err)

	_, err = a.CreateEvent(context.Background(), &calendar.Event{Summary: "x"})
	assert.True(t, errors.HasCode(err, errors.ErrTokenExpired))
	assert.Equal(t, int32(1), fake.apiCalls.Load())
	assert.Equal(t, int32(0), fake.tokenCalls.Load())
}

func TestMissingEvents(t *testing.T) {
	_, srv := newFakeGoogle(t)

	a, err := NewAdapter(context.Background(), Credential{
		AccessToken: "fresh",
		Scopes:      []string{calendar.CalendarScope},
	}, nil, testOptions(srv))
	require.NoError(t, err)

	ev, err := a.GetEvent(context.Background(), "missing")
	assert.NoError(t, err)
	assert.Nil(t, ev)

	_, err = a.UpdateEvent(context.Background(), "missing", &calendar.Event{Summary: "x"})
	assert.True(t, errors.HasCode(err, errors.ErrNotFound))

	assert.NoError(t, a.DeleteEvent(context.Background(), "missing"))
}

func TestCreateWithConferenceData(t *testing.T) {
	fake, srv := newFakeGoogle(t)

	a, err := NewAdapter(context.Background(), Credential{
		AccessToken: "fresh",
		Scopes:      []string{calendar.CalendarEventsScope},
	}, nil, testOptions(srv))
	require.NoError(t, err)

	created, err := a.CreateEvent(context.Background(), &calendar.Event{
		Summary: "Planning",
		ConferenceData: &calendar.ConferenceData{
			CreateRequest: &calendar.CreateConferenceRequest{
				RequestId:             "req-1",
				ConferenceSolutionKey: &calendar.ConferenceSolutionKey{Type: "hangoutsMeet"},
			},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "evt-Planning", created.Id)
	assert.Contains(t, fake.query(), "conferenceDataVersion=1")
}

func TestProviderFailuresBecomeSyncFailed(t *testing.T) {
	fake, srv := newFakeGoogle(t)
	fake.failWith = http.StatusInternalServerError

	a, err := NewAdapter(context.Background(), Credential{
		AccessToken: "fresh",
		Scopes:      []string{calendar.CalendarScope},
	}, nil, testOptions(srv))
	require.NoError(t, err)

	_, err = a.CreateEvent(context.Background(), &calendar.Event{Summary: "x"})
	assert.True(t, errors.HasCode(err, errors.ErrSyncFailed))

	fake.mu.Lock()
	fake.failWith = http.StatusForbidden
	fake.mu.Unlock()
	_, err = a.CreateEvent(context.Background(), &calendar.Event{Summary: "x"})
	assert.True(t, errors.HasCode(err, errors.ErrPermissionDenied))
}

func TestCallsAreTimeoutBounded(t *testing.T) {
	fake, srv := newFakeGoogle(t)
	fake.delay = 300 * time.Millisecond

	opts := testOptions(srv)
	opts.Timeout = 50 * time.Millisecond

	a, err := NewAdapter(context.Background(), Credential{
		AccessToken: "fresh",
		Scopes:      []string{calendar.CalendarScope},
	}, nil, opts)
	require.NoError(t, err)

	start := time.Now()
	_, err = a.ListEvents(context.Background(), time.Now(), time.Now().Add(time.Hour), 10)
	assert.True(t, errors.HasCode(err, errors.ErrSyncFailed))
	assert.Less(t, time.Since(start), 250*time.Millisecond)
}
