package token

import (
	"context"
	"crypto/subtle"
)

// AuthoritativeLookup fetches the event's true capability token from the
// store. Implemented by the event store adapter.
type AuthoritativeLookup func(ctx context.Context, eventID string) (string, error)

// Resolver answers ownership questions for a (device, event) pair.
//
// A cached token is necessary but not sufficient: IsOwner always checks
// the cached value against the authoritative token from the store, so a
// stale or poisoned cache never grants false ownership.
type Resolver struct {
	Cache  Cache
	Lookup AuthoritativeLookup
}

// Attach persists a freshly minted token into the device cache at event
// creation time. A client with no device id has no cache to attach to.
func (r *Resolver) Attach(ctx context.Context, deviceID, eventID, tok string) error {
	if deviceID == "" {
		return nil
	}
	return r.Cache.Put(ctx, deviceID, eventID, tok)
}

// ImportFromLink persists a token carried in an organizer link,
// unconditionally (last writer wins). This is how an organizer
// re-establishes ownership on a second device. An empty device id would
// pool every device-less client under one cache key, so it is a no-op.
func (r *Resolver) ImportFromLink(ctx context.Context, deviceID, eventID, tok string) error {
	if tok == "" || deviceID == "" {
		return nil
	}
	return r.Cache.Put(ctx, deviceID, eventID, tok)
}

// IsOwner reports whether the device holds the event's capability.
// A cache miss, or no device id at all, is simply "not the organizer";
// lookup failures propagate so callers can fail closed.
func (r *Resolver) IsOwner(ctx context.Context, deviceID, eventID string) (bool, error) {
	if deviceID == "" {
		return false, nil
	}
	cached, ok, err := r.Cache.Get(ctx, deviceID, eventID)
	if err != nil {
		return false, err
	}
	if !ok || cached == "" {
		return false, nil
	}

	authoritative, err := r.Lookup(ctx, eventID)
	if err != nil {
		return false, err
	}
	return subtle.ConstantTimeCompare([]byte(cached), []byte(authoritative)) == 1, nil
}

// VerifyDirect checks a token presented inline (header or query) against
// the authoritative one, bypassing the cache. Used for single-shot
// organizer operations.
func (r *Resolver) VerifyDirect(ctx context.Context, eventID, tok string) (bool, error) {
	if tok == "" {
		return false, nil
	}
	authoritative, err := r.Lookup(ctx, eventID)
	if err != nil {
		return false, err
	}
	return subtle.ConstantTimeCompare([]byte(tok), []byte(authoritative)) == 1, nil
}
