// Package canonical implements the one serialization function spec.md
// §9 requires be shared by idempotency fingerprinting and audit hashing:
// sorted keys, UTC ISO-8601 timestamps, integer minor units, no NaN/Inf.
package canonical

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"
)

// Marshal produces the canonical byte representation of v. v must be a
// JSON-marshalable value (struct, map, slice, or primitive); the result
// is deterministic across calls for equal inputs regardless of map
// iteration order or struct field declaration order.
func Marshal(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, err
	}

	normalized, err := normalize(generic)
	if err != nil {
		return nil, err
	}

	return json.Marshal(normalized)
}

// Hash returns sha256(Marshal(v)) hex-encoded. Both idempotency
// fingerprints and audit event hashes call this single function so
// cross-checking one against the other is a byte comparison, not a
// re-derivation.
func Hash(v any) (string, error) {
	b, err := Marshal(v)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(b)

	return hex.EncodeToString(sum[:]), nil
}

// ChainHash computes sha256(previousHash || canonical(event)) as
// spec.md §4.6 defines the audit chain's eventHash.
func ChainHash(previousHash string, event any) (string, error) {
	b, err := Marshal(event)
	if err != nil {
		return "", err
	}

	h := sha256.New()
	h.Write([]byte(previousHash))
	h.Write(b)

	return hex.EncodeToString(h.Sum(nil)), nil
}

// normalize walks a decoded JSON value, rejecting NaN/Inf (which
// json.Unmarshal into `any` never actually produces for numbers, but a
// caller-supplied float64 field might) and rebuilding each map in
// sorted key order. The result is still a plain map[string]any, which
// Go's encoding/json already serializes key-sorted — the explicit sort
// here documents that guarantee rather than relying on it silently.
func normalize(v any) (any, error) {
	switch val := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}

		sort.Strings(keys)

		out := make(map[string]any, len(val))

		for _, k := range keys {
			nv, err := normalize(val[k])
			if err != nil {
				return nil, err
			}

			out[k] = nv
		}

		return out, nil
	case []any:
		out := make([]any, len(val))

		for i, item := range val {
			nv, err := normalize(item)
			if err != nil {
				return nil, err
			}

			out[i] = nv
		}

		return out, nil
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return nil, fmt.Errorf("canonical: NaN/Inf not representable")
		}

		return val, nil
	default:
		return val, nil
	}
}

// Timestamp renders t as the canonical UTC ISO-8601 form used inside
// canonicalized events.
func Timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
