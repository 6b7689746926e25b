package token

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"
)

// ErrMalformedToken is returned whenever a bearer token cannot be decoded
// into claims. Callers must treat the token as absent; there is no partial
// decode result.
var ErrMalformedToken = errors.New("token: malformed bearer token")

// Claims carries the identity fields the dispatch service embeds in the
// claims segment of its bearer tokens. The token signature is not verified
// here; the issuing service is trusted and the claims are only used for
// display and request routing.
type Claims struct {
	ID   string
	Role string
}

// Decode extracts claims from a compact three-segment bearer token.
//
// The steps mirror the dispatch service's own encoding exactly: take the
// second dot-separated segment, translate the base64url alphabet to standard
// base64, pad to a multiple of four, base64-decode, then percent-escape each
// byte and percent-decode the whole string as UTF-8 before parsing JSON.
// The escape/unescape pass keeps multi-byte characters intact.
func Decode(tok string) (Claims, error) {
	parts := strings.Split(tok, ".")
	if len(parts) < 2 {
		return Claims{}, fmt.Errorf("%w: expected 3 segments, got %d", ErrMalformedToken, len(parts))
	}

	seg := strings.NewReplacer("-", "+", "_", "/").Replace(parts[1])
	if n := len(seg) % 4; n != 0 {
		seg += strings.Repeat("=", 4-n)
	}

	raw, err := base64.StdEncoding.DecodeString(seg)
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}

	var esc strings.Builder
	esc.Grow(len(raw) * 3)
	for _, b := range raw {
		fmt.Fprintf(&esc, "%%%02x", b)
	}
	payload, err := url.PathUnescape(esc.String())
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	if !utf8.ValidString(payload) {
		return Claims{}, fmt.Errorf("%w: claims are not valid UTF-8", ErrMalformedToken)
	}

	claims, err := parseClaims(payload)
	if err != nil {
		return Claims{}, err
	}
	return claims, nil
}

func parseClaims(payload string) (Claims, error) {
	dec := json.NewDecoder(strings.NewReader(payload))
	dec.UseNumber()

	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}

	c := Claims{
		ID:   stringField(fields["id"]),
		Role: stringField(fields["role"]),
	}
	if c.ID == "" || c.Role == "" {
		return Claims{}, fmt.Errorf("%w: missing id or role claim", ErrMalformedToken)
	}
	return c, nil
}

// stringField tolerates numeric ids; the service has issued both forms.
func stringField(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case json.Number:
		return x.String()
	default:
		return ""
	}
}
