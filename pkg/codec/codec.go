// Package codec is the CBOR encoding used when a value has to be copied
// across a bus boundary without sharing memory with the sender.
package codec

import (
	"fmt"
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

// encMode uses Core Deterministic Encoding, so the same value always produces
// the same bytes.
var encMode cbor.EncMode

var decMode cbor.DecMode

func init() {
	var err error

	encOptions := cbor.CoreDetEncOptions()
	encOptions.TextMarshaler = cbor.TextMarshalerTextString
	encMode, err = encOptions.EncMode()
	if err != nil {
		panic("codec: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		DefaultMapType:  reflect.TypeOf(map[string]any(nil)),
		TextUnmarshaler: cbor.TextUnmarshalerTextString,
	}.DecMode()
	if err != nil {
		panic("codec: CBOR decoder initialization failed: " + err.Error())
	}
}

func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

func Unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}

// DeepCopy returns a copy of v that shares no memory with it. Only exported
// fields survive the copy.
func DeepCopy[T any](v T) (T, error) {
	var out T

	data, err := encMode.Marshal(v)
	if err != nil {
		return out, fmt.Errorf("codec: copy %T: %w", v, err)
	}
	if err := decMode.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("codec: copy %T: %w", v, err)
	}

	return out, nil
}
