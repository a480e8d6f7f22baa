package codec

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// ProtoJSON encodes documents with the protobuf JSON mapping. Values must be
// proto messages or string-keyed maps, which are carried as
// google.protobuf.Struct. Output whitespace is not stable across releases of
// the protobuf module; compare decoded values, not bytes.
var ProtoJSON Codec = protoJSONCodec{}

type protoJSONCodec struct{}

func (protoJSONCodec) Name() string      { return "protojson" }
func (protoJSONCodec) Extension() string { return ".json" }
func (protoJSONCodec) Empty() []byte     { return []byte("{}") }

func (protoJSONCodec) Encode(v any) ([]byte, error) {
	var msg proto.Message
	switch t := v.(type) {
	case proto.Message:
		msg = t
	case map[string]any:
		s, err := structpb.NewStruct(t)
		if err != nil {
			return nil, err
		}
		msg = s
	case *map[string]any:
		if t == nil {
			return nil, fmt.Errorf("protojson: nil map pointer")
		}
		s, err := structpb.NewStruct(*t)
		if err != nil {
			return nil, err
		}
		msg = s
	default:
		return nil, fmt.Errorf("protojson: unsupported type %T", v)
	}
	return protojson.Marshal(msg)
}

func (protoJSONCodec) Decode(data []byte, v any) error {
	switch t := v.(type) {
	case proto.Message:
		return protojson.Unmarshal(data, t)
	case **structpb.Struct:
		s := &structpb.Struct{}
		if err := protojson.Unmarshal(data, s); err != nil {
			return err
		}
		*t = s
		return nil
	case *map[string]any:
		var s structpb.Struct
		if err := protojson.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = s.AsMap()
		return nil
	default:
		return fmt.Errorf("protojson: unsupported type %T", v)
	}
}
