package provider

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Credential is the persisted OAuth token set of one user and provider.
// On the wire the granted scopes arrive either as "scope" (space delimited)
// or "granted_scopes" (string or list); expires_at is epoch seconds.
type Credential struct {
	AccessToken  string
	RefreshToken string
	Expiry       time.Time
	Scopes       []string
}

type credentialJSON struct {
	AccessToken   string          `json:"access_token"`
	RefreshToken  string          `json:"refresh_token,omitempty"`
	ExpiresAt     int64           `json:"expires_at,omitempty"`
	Scope         json.RawMessage `json:"scope,omitempty"`
	GrantedScopes json.RawMessage `json:"granted_scopes,omitempty"`
}

func (c *Credential) UnmarshalJSON(data []byte) error {
	var raw credentialJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	scopes, err := decodeScopes(raw.Scope)
	if err != nil {
		return fmt.Errorf("scope: %w", err)
	}
	granted, err := decodeScopes(raw.GrantedScopes)
	if err != nil {
		return fmt.Errorf("granted_scopes: %w", err)
	}

	*c = Credential{
		AccessToken:  raw.AccessToken,
		RefreshToken: raw.RefreshToken,
		Scopes:       append(scopes, granted...),
	}
	if raw.ExpiresAt > 0 {
		c.Expiry = time.Unix(raw.ExpiresAt, 0).UTC()
	}
	return nil
}

func (c Credential) MarshalJSON() ([]byte, error) {
	raw := credentialJSON{
		AccessToken:  c.AccessToken,
		RefreshToken: c.RefreshToken,
	}
	if !c.Expiry.IsZero() {
		raw.ExpiresAt = c.Expiry.Unix()
	}
	if len(c.Scopes) > 0 {
		scope, _ := json.Marshal(c.ScopeString())
		raw.Scope = scope
	}
	return json.Marshal(raw)
}

func decodeScopes(raw json.RawMessage) ([]string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return ParseScopes(s), nil
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("expected string or list of strings")
	}
	return ParseScopes(strings.Join(list, " ")), nil
}

func (c Credential) ScopeString() string {
	return strings.Join(c.Scopes, " ")
}

// Token is what a refresh produces and what gets persisted afterwards.
type Token struct {
	AccessToken  string
	RefreshToken string
	Expiry       time.Time
}
