package provider

import (
	"io"

	jsoniter "github.com/json-iterator/go"
)

// maxPayloadSize bounds the size of a provider response body.
const maxPayloadSize = 4 << 20

// Unknown fields are ignored when decoding provider payloads.
var json = jsoniter.ConfigCompatibleWithStandardLibrary

// readPayload reads a bounded response body.
func readPayload(body io.Reader) ([]byte, error) {
	return io.ReadAll(io.LimitReader(body, maxPayloadSize))
}
