// Package decode turns raw upstream payloads into JSON trees.
//
// The league API answers with base64-wrapped JSON, often quoted as a JSON
// string, or with plain JSON, sometimes nested inside a "messageData" envelope. Decode accepts all of them.
package decode

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/guillem8cbii/basquet/internal/jsontree"
)

// EnvelopeKey is the member whose string value carries a nested payload.
const EnvelopeKey = "messageData"

// maxEnvelopeDepth bounds messageData unwrapping.
const maxEnvelopeDepth = 4

// Error is returned when a payload is neither base64-wrapped JSON nor JSON.
type Error struct {
	Base64Err error // why the base64 route failed
	JSONErr   error // why the direct JSON parse failed
}

func (e *Error) Error() string {
	return fmt.Sprintf("payload is neither base64 JSON nor JSON: %v (base64 route: %v)", e.JSONErr, e.Base64Err)
}

// Unwrap exposes the JSON parser complaint.
func (e *Error) Unwrap() error { return e.JSONErr }

var encodings = []*base64.Encoding{
	base64.StdEncoding,
	base64.RawStdEncoding,
	base64.URLEncoding,
	base64.RawURLEncoding,
}

// Decode parses raw into a tree. base64 is attempted first, then direct JSON.
// A bare JSON string, or a "messageData" string member on the resulting object,
// is decoded again and replaces it.
func Decode(raw []byte) (*jsontree.Node, error) {
	n, err := decodeOnce(raw)
	if err != nil {
		return nil, err
	}
	return unwrap(n, 0)
}

// DecodeValue accepts an already-received value: a tree passes through, text and
// bytes go through Decode, anything else is re-encoded as JSON.
func DecodeValue(v any) (*jsontree.Node, error) {
	switch t := v.(type) {
	case *jsontree.Node:
		return t, nil
	case string:
		return Decode([]byte(t))
	case []byte:
		return Decode(t)
	case nil:
		return nil, errors.New("nil payload")
	default:
		n, err := jsontree.FromValue(v)
		if err != nil {
			return nil, fmt.Errorf("re-encode %T: %w", v, err)
		}
		return unwrap(n, 0)
	}
}

// Text returns the base64-decoded text of raw when it is valid base64 of valid
// UTF-8, and the original text otherwise.
func Text(raw []byte) string {
	clean := normalize(raw)
	if b, ok := fromBase64(clean); ok && utf8.Valid(b) {
		return string(b)
	}
	return string(clean)
}

func decodeOnce(raw []byte) (*jsontree.Node, error) {
	clean := normalize(raw)

	var b64Err error
	if b, ok := fromBase64(clean); !ok {
		b64Err = errors.New("not base64")
	} else if !utf8.Valid(b) {
		b64Err = errors.New("base64 content is not UTF-8")
	} else if n, err := jsontree.Parse(normalize(b)); err != nil {
		b64Err = fmt.Errorf("base64 content is not JSON: %w", err)
	} else {
		return n, nil
	}

	n, err := jsontree.Parse(clean)
	if err != nil {
		return nil, &Error{Base64Err: b64Err, JSONErr: err}
	}
	return n, nil
}

// unwrap decodes again a tree that is only a carrier: a JSON string literal
// holding the payload, or an object with a "messageData" string member.
func unwrap(n *jsontree.Node, depth int) (*jsontree.Node, error) {
	if depth >= maxEnvelopeDepth {
		return n, nil
	}

	var (
		payload string
		what    string
	)
	switch inner := n.Get(EnvelopeKey); {
	case n.Kind == jsontree.String:
		payload, what = n.Str, "string payload"
	case inner != nil && inner.Kind == jsontree.String:
		payload, what = inner.Str, EnvelopeKey+" envelope"
	default:
		return n, nil
	}

	next, err := decodeOnce([]byte(payload))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", what, err)
	}
	return unwrap(next, depth+1)
}

// normalize strips a UTF-8 byte order mark and surrounding whitespace.
func normalize(raw []byte) []byte {
	out, _, err := transform.Bytes(unicode.BOMOverride(transform.Nop), raw)
	if err != nil {
		out = raw
	}
	return bytes.TrimSpace(out)
}

func fromBase64(s []byte) ([]byte, bool) {
	if len(s) == 0 {
		return nil, false
	}
	for _, enc := range encodings {
		dst := make([]byte, enc.DecodedLen(len(s)))
		n, err := enc.Decode(dst, s)
		if err == nil {
			return dst[:n], true
		}
	}
	return nil, false
}
