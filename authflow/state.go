// Package authflow holds the short-lived state of an OAuth redirect
// round-trip: the opaque state parameter sent to the identity provider and
// the persisted copy it is checked against on callback.
package authflow

import (
	"encoding/base64"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/partsbay/storefront/internal/errors"
)

// PendingState is the CSRF guard for one login attempt. It travels to the
// identity provider base64-encoded in the state query parameter and is
// persisted locally until the callback consumes it.
type PendingState struct {
	Nonce     string    `json:"nonce"`
	Origin    string    `json:"origin"`
	ReturnURL string    `json:"returnUrl,omitempty"`
	IssuedAt  time.Time `json:"issuedAt"`
}

// NewPendingState creates a pending state for the given page origin
func NewPendingState(origin, returnURL string, now time.Time) *PendingState {
	return &PendingState{
		Nonce:     uuid.New().String(),
		Origin:    origin,
		ReturnURL: returnURL,
		IssuedAt:  now,
	}
}

// Encode serializes the state into the opaque wire form
func (p *PendingState) Encode() (string, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// Decode parses an opaque state parameter. A state that fails to decode is a
// CSRF rejection, not a parse error.
func Decode(state string) (*PendingState, error) {
	raw, err := base64.RawURLEncoding.DecodeString(state)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCSRFStateInvalid, "state is not base64url")
	}
	var p PendingState
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, errors.Wrapf(errors.ErrCSRFStateInvalid, "state is not valid JSON")
	}
	if p.Nonce == "" {
		return nil, errors.Wrapf(errors.ErrCSRFStateInvalid, "state has no nonce")
	}
	return &p, nil
}

// Validate enforces the origin and age checks. It must run before any
// network exchange.
func (p *PendingState) Validate(origin string, now time.Time, maxAge time.Duration) error {
	if p.Origin != origin {
		return errors.Wrapf(errors.ErrCSRFStateInvalid, "state origin %q does not match %q", p.Origin, origin)
	}
	if now.Sub(p.IssuedAt) > maxAge {
		return errors.Wrapf(errors.ErrCSRFStateInvalid, "state issued %s ago exceeds %s", now.Sub(p.IssuedAt).Round(time.Second), maxAge)
	}
	return nil
}
