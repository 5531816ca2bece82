package authflow

import (
	"encoding/json"
	goerrors "errors"

	"github.com/partsbay/storefront/internal/errors"
	"github.com/partsbay/storefront/storage"
)

// stateKey is the transient key-value entry holding the pending-auth nonce.
// The session store's Clear wipes the same key.
const stateKey = "auth_state"

// Store persists at most one pending state per process. A second Put
// replaces the first: only the most recent login attempt can complete.
type Store struct {
	kv storage.KV
}

// NewStore creates a pending-state store over the given key-value backend
func NewStore(kv storage.KV) *Store {
	return &Store{kv: kv}
}

// Put persists a pending state ahead of the provider redirect
func (s *Store) Put(p *PendingState) error {
	if p == nil {
		return goerrors.New("pending state cannot be nil")
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return s.kv.Set(stateKey, string(raw))
}

// Take consumes the pending state matching nonce: it is deleted before being
// returned, so a duplicate callback can never exchange the same code twice.
// A missing or mismatched nonce is a CSRF rejection.
func (s *Store) Take(nonce string) (*PendingState, error) {
	raw, err := s.kv.Get(stateKey)
	if goerrors.Is(err, storage.ErrNotFound) {
		return nil, errors.Wrapf(errors.ErrCSRFStateInvalid, "no pending login attempt")
	}
	if err != nil {
		return nil, err
	}

	// Delete before use, whatever the outcome
	if err := s.kv.Delete(stateKey); err != nil {
		return nil, err
	}

	var p PendingState
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, errors.Wrapf(errors.ErrCSRFStateInvalid, "stored pending state is corrupt")
	}
	if p.Nonce != nonce {
		return nil, errors.Wrapf(errors.ErrCSRFStateInvalid, "state nonce does not match the pending login attempt")
	}
	return &p, nil
}
