// Package keycodec derives the external identifiers of stored records from their internal
// numeric keys.
//
// External ids must keep resolving to the same record across the migration from the
// first-generation key encoder to the current one. The current encoder emits an empty namespace
// field that the first generation did not, which shows up in the URL-safe string as an "ogEA"
// run; LegacyCompat strips it so both generations agree.
package keycodec

import (
	"fmt"
	"strings"

	"github.com/yigit/feedbackhub/internal/pkg/apperrors"
)

const (
	namespaceArtifact = "ogEA"
	legacySuffix      = "KIBAA"
	compatSuffix      = "AogEA"
)

// Encoder computes the raw opaque encoding of a (kind, id) pair.
type Encoder interface {
	Encode(kind string, id int64) (string, error)
}

// EncoderFunc adapts a plain function to the Encoder interface.
type EncoderFunc func(kind string, id int64) (string, error)

// Encode calls f(kind, id).
func (f EncoderFunc) Encode(kind string, id int64) (string, error) {
	return f(kind, id)
}

// KeySource exposes an internal key that may not be assigned yet.
type KeySource interface {
	Value() (int64, bool)
}

// DeriveExternalID returns the external identifier for the record of the given kind.
// It fails with apperrors.ErrInvalidState when the key is not assigned, and with an error
// matching both apperrors.ErrEncodingFailure and the encoder's own error when encoding fails.
func DeriveExternalID(enc Encoder, kind string, key KeySource) (string, error) {
	id, ok := key.Value()
	if !ok {
		return "", fmt.Errorf("%w: %s has no internal key yet", apperrors.ErrInvalidState, kind)
	}

	raw, err := enc.Encode(kind, id)
	if err != nil {
		return "", fmt.Errorf("%w: %w", apperrors.ErrEncodingFailure, err)
	}

	return LegacyCompat(raw), nil
}

// LegacyCompat rewrites a raw current-generation encoding into the form the first generation
// produced.
//
// Every "ogEA" occurrence is removed, not only the namespace artifact. A raw encoding that
// carries "ogEA" elsewhere is therefore altered too; ids already handed out depend on this
// exact behavior, so it must not be narrowed.
func LegacyCompat(raw string) string {
	fragments := strings.Split(raw, namespaceArtifact)
	// TrimSpace also drops Unicode spaces; base64 output never contains any
	candidate := strings.TrimSpace(strings.Join(fragments, ""))
	if strings.HasSuffix(candidate, legacySuffix) {
		candidate = strings.TrimSuffix(candidate, legacySuffix) + compatSuffix
	}
	return candidate
}
