package clipboard

import "github.com/klauspost/compress/s2"

// EncodeForWire compresses data with s2 when it exceeds threshold
// bytes, the only payload in the protocol large enough to be worth
// it (arbitrary clipboard text/image blobs). It reports whether
// compression was applied so the receiver knows whether to reverse
// it.
func EncodeForWire(data []byte, threshold int) (out []byte, compressed bool) {
	if len(data) <= threshold {
		return data, false
	}
	return s2.Encode(nil, data), true
}

// DecodeFromWire reverses EncodeForWire.
func DecodeFromWire(data []byte, compressed bool) ([]byte, error) {
	if !compressed {
		return data, nil
	}
	return s2.Decode(nil, data)
}
