package codec

import "gopkg.in/yaml.v3"

// YAML encodes documents as block-style YAML.
var YAML Codec = yamlCodec{}

type yamlCodec struct{}

func (yamlCodec) Name() string      { return "yaml" }
func (yamlCodec) Extension() string { return ".yaml" }
func (yamlCodec) Empty() []byte     { return []byte("{}\n") }

func (yamlCodec) Encode(v any) ([]byte, error) {
	return yaml.Marshal(v)
}

func (yamlCodec) Decode(data []byte, v any) error {
	return yaml.Unmarshal(data, v)
}
