package jsonutil

import (
	"bytes"
	"encoding/json"
)

// MarshalIndent is like json.MarshalIndent but does not escape HTML
// characters (<, >, &). Server URLs and header values routinely contain
// & and should be stored literally.
func MarshalIndent(v any, prefix, indent string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent(prefix, indent)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return trimNewline(buf.Bytes()), nil
}

// Marshal is like json.Marshal but does not escape HTML characters.
func Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return trimNewline(buf.Bytes()), nil
}

// trimNewline removes the trailing newline added by Encode
func trimNewline(b []byte) []byte {
	if len(b) > 0 && b[len(b)-1] == '\n' {
		b = b[:len(b)-1]
	}
	return b
}
