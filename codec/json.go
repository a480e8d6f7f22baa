package codec

import "encoding/json"

// JSON encodes documents as compact JSON.
var JSON Codec = jsonCodec{}

type jsonCodec struct{}

func (jsonCodec) Name() string      { return "json" }
func (jsonCodec) Extension() string { return ".json" }
func (jsonCodec) Empty() []byte     { return []byte("{}") }

func (jsonCodec) Encode(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Decode(data []byte, v any) error {
	return json.Unmarshal(data, v)
}
