package keycodec

import (
	"encoding/base64"
	"fmt"
	"strings"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/yigit/feedbackhub/internal/pkg/apperrors"
)

// Field numbers of the datastore Reference message and its Path.Element group.
const (
	referenceAppField       protowire.Number = 13
	referencePathField      protowire.Number = 14
	referenceNamespaceField protowire.Number = 20

	pathElementGroup protowire.Number = 1
	pathElementType  protowire.Number = 2
	pathElementID    protowire.Number = 3
	pathElementName  protowire.Number = 4
)

// LegacyURLSafeEncoder produces legacy URL-safe datastore keys: a serialized Reference message
// encoded with unpadded URL-safe base64.
type LegacyURLSafeEncoder struct {
	// AppID is the partition the keys belong to, e.g. "s~my-app".
	AppID string
	// Namespace is written only when non-empty or when EmitEmptyNamespace is set.
	Namespace string
	// EmitEmptyNamespace reproduces the current generation, which always writes the namespace
	// field. The first generation left it out.
	EmitEmptyNamespace bool
}

// NewLegacyURLSafeEncoder creates an encoder matching the current generation.
func NewLegacyURLSafeEncoder(appID, namespace string) *LegacyURLSafeEncoder {
	return &LegacyURLSafeEncoder{
		AppID:              appID,
		Namespace:          namespace,
		EmitEmptyNamespace: true,
	}
}

// Encode implements Encoder.
func (e *LegacyURLSafeEncoder) Encode(kind string, id int64) (string, error) {
	if strings.TrimSpace(e.AppID) == "" {
		return "", fmt.Errorf("legacy key encoder: app id is empty")
	}
	if kind == "" {
		return "", fmt.Errorf("legacy key encoder: kind is empty")
	}
	if id <= 0 {
		return "", fmt.Errorf("legacy key encoder: id must be positive, got %d", id)
	}

	var element []byte
	element = protowire.AppendTag(element, pathElementType, protowire.BytesType)
	element = protowire.AppendString(element, kind)
	element = protowire.AppendTag(element, pathElementID, protowire.VarintType)
	element = protowire.AppendVarint(element, uint64(id))

	var path []byte
	path = protowire.AppendTag(path, pathElementGroup, protowire.StartGroupType)
	path = append(path, element...)
	path = protowire.AppendTag(path, pathElementGroup, protowire.EndGroupType)

	var ref []byte
	ref = protowire.AppendTag(ref, referenceAppField, protowire.BytesType)
	ref = protowire.AppendString(ref, e.AppID)
	ref = protowire.AppendTag(ref, referencePathField, protowire.BytesType)
	ref = protowire.AppendBytes(ref, path)
	if e.Namespace != "" || e.EmitEmptyNamespace {
		ref = protowire.AppendTag(ref, referenceNamespaceField, protowire.BytesType)
		ref = protowire.AppendString(ref, e.Namespace)
	}

	return base64.RawURLEncoding.EncodeToString(ref), nil
}

// DecodedKey is the leaf of a decoded Reference path.
type DecodedKey struct {
	AppID     string
	Namespace string
	Kind      string
	ID        int64
}

// Decode parses a key produced by either encoder generation. Surrounding whitespace and
// base64 padding are ignored. Ids that LegacyCompat rewrote to end in "AogEA" are read back
// through the "KIBAA" form they were derived from.
func (e *LegacyURLSafeEncoder) Decode(s string) (*DecodedKey, error) {
	s = strings.TrimRight(strings.TrimSpace(s), "=")
	key, err := decodeReference(s)
	if err != nil && strings.HasSuffix(s, compatSuffix) {
		if restored, retryErr := decodeReference(strings.TrimSuffix(s, compatSuffix) + legacySuffix); retryErr == nil {
			return restored, nil
		}
	}
	return key, err
}

func decodeReference(s string) (*DecodedKey, error) {
	b, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrMalformedKey, err)
	}

	key := &DecodedKey{}
	hasPath := false
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, fmt.Errorf("%w: %v", apperrors.ErrMalformedKey, protowire.ParseError(n))
		}
		b = b[n:]

		switch {
		case num == referenceAppField && typ == protowire.BytesType:
			v, m := protowire.ConsumeString(b)
			if m < 0 {
				return nil, fmt.Errorf("%w: app: %v", apperrors.ErrMalformedKey, protowire.ParseError(m))
			}
			key.AppID = v
			n = m
		case num == referenceNamespaceField && typ == protowire.BytesType:
			v, m := protowire.ConsumeString(b)
			if m < 0 {
				return nil, fmt.Errorf("%w: namespace: %v", apperrors.ErrMalformedKey, protowire.ParseError(m))
			}
			key.Namespace = v
			n = m
		case num == referencePathField && typ == protowire.BytesType:
			v, m := protowire.ConsumeBytes(b)
			if m < 0 {
				return nil, fmt.Errorf("%w: path: %v", apperrors.ErrMalformedKey, protowire.ParseError(m))
			}
			if err := decodePath(v, key); err != nil {
				return nil, err
			}
			hasPath = true
			n = m
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return nil, fmt.Errorf("%w: %v", apperrors.ErrMalformedKey, protowire.ParseError(n))
			}
		}
		b = b[n:]
	}

	if !hasPath || key.Kind == "" || key.ID <= 0 {
		return nil, fmt.Errorf("%w: key has no numeric leaf element", apperrors.ErrMalformedKey)
	}
	return key, nil
}

// decodePath reads every Element group and keeps the last one, which names the entity itself.
func decodePath(b []byte, key *DecodedKey) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("%w: path: %v", apperrors.ErrMalformedKey, protowire.ParseError(n))
		}
		b = b[n:]

		if num != pathElementGroup || typ != protowire.StartGroupType {
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return fmt.Errorf("%w: path: %v", apperrors.ErrMalformedKey, protowire.ParseError(n))
			}
			b = b[n:]
			continue
		}

		group, m := protowire.ConsumeGroup(num, b)
		if m < 0 {
			return fmt.Errorf("%w: element: %v", apperrors.ErrMalformedKey, protowire.ParseError(m))
		}
		kind, id, err := decodeElement(group)
		if err != nil {
			return err
		}
		key.Kind, key.ID = kind, id
		b = b[m:]
	}
	return nil
}

func decodeElement(b []byte) (kind string, id int64, err error) {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return "", 0, fmt.Errorf("%w: element: %v", apperrors.ErrMalformedKey, protowire.ParseError(n))
		}
		b = b[n:]

		switch {
		case num == pathElementType && typ == protowire.BytesType:
			kind, n = protowire.ConsumeString(b)
		case num == pathElementID && typ == protowire.VarintType:
			var v uint64
			v, n = protowire.ConsumeVarint(b)
			id = int64(v)
		case num == pathElementName && typ == protowire.BytesType:
			// named keys have no numeric id
			_, n = protowire.ConsumeString(b)
			id = 0
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
		}
		if n < 0 {
			return "", 0, fmt.Errorf("%w: element: %v", apperrors.ErrMalformedKey, protowire.ParseError(n))
		}
		b = b[n:]
	}
	return kind, id, nil
}

// Codec encodes keys and decodes external ids of either generation back to keys.
type Codec interface {
	Encoder
	Decode(s string) (*DecodedKey, error)
}

var _ Codec = (*LegacyURLSafeEncoder)(nil)
