package server

import (
	"encoding/json"
)

// jsonCodec serialises plain Go message structs. It replaces connect's
// protojson codec, which only accepts generated protobuf messages.
type jsonCodec struct {
	name string
}

var (
	JSONCodec        = jsonCodec{name: "json"}
	jsonCharsetCodec = jsonCodec{name: "json; charset=utf-8"}
)

func (c jsonCodec) Name() string { return c.name }

func (c jsonCodec) Marshal(msg any) ([]byte, error) {
	return json.Marshal(msg)
}

func (c jsonCodec) Unmarshal(data []byte, msg any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, msg)
}
