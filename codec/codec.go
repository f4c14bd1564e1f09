// Package codec implements the payload encodings used on the wire.
//
// A Codec turns messages into bytes and back. Decode is total over any
// bytes Encode produced for a compatible target type. Malformed payloads
// surface as errors wrapping ErrMalformedPayload; the runtime logs and
// drops such messages instead of failing.
package codec

import (
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/tidwall/gjson"

	"github.com/agoradev/agora/messages"
)

// ErrMalformedPayload is wrapped by every decode failure.
var ErrMalformedPayload = errors.New("malformed payload")

// Codec encodes a message to bytes and decodes bytes into a target value.
type Codec interface {
	Encode(v any) ([]byte, error)
	Decode(data []byte, v any) error
}

// JSON encodes messages as JSON documents.
type JSON struct{}

func (JSON) Encode(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode json: %w", err)
	}
	return data, nil
}

func (JSON) Decode(data []byte, v any) error {
	// cheap validity probe before committing to a full unmarshal
	if !gjson.ValidBytes(data) {
		return fmt.Errorf("decode json: not a valid document: %w", ErrMalformedPayload)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode json: %w: %w", err, ErrMalformedPayload)
	}
	return nil
}

// Raw passes payload bytes through untouched. Encode accepts byte
// slices and strings; Decode fills *messages.Raw or *[]byte targets.
type Raw struct{}

func (Raw) Encode(v any) ([]byte, error) {
	switch data := v.(type) {
	case messages.Raw:
		return data, nil
	case []byte:
		return data, nil
	case string:
		return []byte(data), nil
	}
	return nil, fmt.Errorf("encode raw: unsupported type %T", v)
}

func (Raw) Decode(data []byte, v any) error {
	switch target := v.(type) {
	case *messages.Raw:
		*target = append((*target)[:0], data...)
		return nil
	case *[]byte:
		*target = append((*target)[:0], data...)
		return nil
	}
	return fmt.Errorf("decode raw: unsupported target %T: %w", v, ErrMalformedPayload)
}
