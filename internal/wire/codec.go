// Package wire implements the framed, length-prefixed binary
// protocol spoken between the server and each connected screen:
// kind:u8, length:u32 (big-endian), payload, where payload is CBOR
// encoded using RFC 8949 Core Deterministic Encoding.
package wire

import (
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

// encMode produces Core Deterministic Encoding: sorted map keys,
// smallest-possible integers, no indefinite-length items. Identical
// messages always produce identical bytes, which keeps frame-length
// accounting simple to reason about.
var encMode cbor.EncMode

// decMode accepts standard CBOR and is lenient about unknown fields,
// so adding a field to a message struct never breaks an older peer.
var decMode cbor.DecMode

func init() {
	var err error

	encOpts := cbor.CoreDetEncOptions()
	encMode, err = encOpts.EncMode()
	if err != nil {
		panic("wire: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic("wire: CBOR decoder initialization failed: " + err.Error())
	}
}

// Marshal encodes v to CBOR using Core Deterministic Encoding.
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes CBOR data into v.
func Unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}
