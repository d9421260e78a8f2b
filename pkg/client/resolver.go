package client

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"os/user"
	"regexp"
	"runtime"
	"strings"
	"sync"

	"github.com/google/uuid"
)

var deviceIDPattern = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

// FingerprintFunc computes a device fingerprint from local signals.
type FingerprintFunc func(ctx context.Context) (string, error)

// HashFunc digests the identifier/fingerprint combination. A nil hash
// makes the resolver fall back to the bare device identifier.
type HashFunc func(data string) string

// Resolver derives the stable anonymous device identity: a persisted
// random identifier combined with a fingerprint, hashed to a 64-hex
// digest. Resolve never fails; every degraded path still yields a
// usable identifier.
type Resolver struct {
	storage     Storage
	fingerprint FingerprintFunc
	hash        HashFunc

	// The fingerprint is computed at most once per process; concurrent
	// callers block on the same in-flight computation.
	fpOnce sync.Once
	fp     string
}

// ResolverOption customizes a Resolver.
type ResolverOption func(*Resolver)

// WithFingerprint replaces the default fingerprint computation.
func WithFingerprint(fn FingerprintFunc) ResolverOption {
	return func(r *Resolver) { r.fingerprint = fn }
}

// WithHash replaces the digest function. Passing nil disables hashing,
// leaving the bare device identifier.
func WithHash(fn HashFunc) ResolverOption {
	return func(r *Resolver) { r.hash = fn }
}

// NewResolver creates a Resolver on the given storage.
func NewResolver(storage Storage, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		storage:     storage,
		fingerprint: HostFingerprint,
		hash:        sha256Hex,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the combined device identity: the 64-hex digest of
// "deviceID|fingerprint". Fingerprint failure degrades to an empty
// fingerprint; a missing digest function degrades to the bare device
// identifier. Only a total storage failure yields an empty string.
func (r *Resolver) Resolve(ctx context.Context) string {
	id := r.deviceID()
	if id == "" {
		return ""
	}
	if r.hash == nil {
		return id
	}
	return r.hash(id + "|" + r.memoizedFingerprint(ctx))
}

// deviceID loads the persisted identifier, regenerating and persisting
// a fresh one when it is absent or malformed. Persistence failures are
// ignored: the id still serves this process.
func (r *Resolver) deviceID() string {
	stored, err := r.storage.Get(DeviceIDKey)
	if err == nil {
		normalized := strings.ToLower(strings.TrimSpace(stored))
		if deviceIDPattern.MatchString(normalized) {
			return normalized
		}
	}

	fresh, err := uuid.NewRandom()
	if err != nil {
		return ""
	}
	id := fresh.String()
	_ = r.storage.Set(DeviceIDKey, id)
	return id
}

func (r *Resolver) memoizedFingerprint(ctx context.Context) string {
	r.fpOnce.Do(func() {
		fp, err := r.fingerprint(ctx)
		if err != nil {
			fp = ""
		}
		r.fp = fp
	})
	return r.fp
}

// HostFingerprint is the default fingerprint: a digest of stable host
// signals. It carries no stored identity and is recomputed per process
// lifetime.
func HostFingerprint(ctx context.Context) (string, error) {
	parts := []string{runtime.GOOS, runtime.GOARCH}
	if hostname, err := os.Hostname(); err == nil && hostname != "" {
		parts = append(parts, hostname)
	}
	if u, err := user.Current(); err == nil && u != nil {
		parts = append(parts, u.Username)
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:16]), nil
}

func sha256Hex(data string) string {
	sum := sha256.Sum256([]byte(data))
	return hex.EncodeToString(sum[:])
}
