package wire

import (
	"encoding/json"
	"fmt"

	"github.com/valyala/fastjson"

	"github.com/telhawk-systems/hawktail/pkg/model"
)

// jsonCodec parses JSON payloads with fastjson, avoiding reflection on
// the hot ingestion path. Encoding (client side only) uses
// encoding/json.
type jsonCodec struct{}

var jsonParsers fastjson.ParserPool

func (jsonCodec) Name() string { return FormatJSON }

func (jsonCodec) Decode(payload []byte) (*model.Record, error) {
	p := jsonParsers.Get()
	defer jsonParsers.Put(p)

	v, err := p.ParseBytes(payload)
	if err != nil {
		return nil, frameErrorf(err, "malformed json payload")
	}
	obj, err := v.Object()
	if err != nil {
		return nil, frameErrorf(err, "json payload is not an object")
	}

	fields := make(map[string]any, obj.Len())
	obj.Visit(func(key []byte, value *fastjson.Value) {
		fields[string(key)] = jsonValueToAny(value)
	})
	return recordFromFields(fields), nil
}

func (jsonCodec) Encode(fields map[string]any) ([]byte, error) {
	data, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("encode json payload: %w", err)
	}
	return data, nil
}

func jsonValueToAny(v *fastjson.Value) any {
	switch v.Type() {
	case fastjson.TypeNull:
		return nil
	case fastjson.TypeTrue:
		return true
	case fastjson.TypeFalse:
		return false
	case fastjson.TypeNumber:
		if i, err := v.Int64(); err == nil {
			return i
		}
		f, _ := v.Float64()
		return f
	case fastjson.TypeString:
		b, _ := v.StringBytes()
		return string(b)
	case fastjson.TypeArray:
		arr, _ := v.Array()
		out := make([]any, len(arr))
		for i, el := range arr {
			out[i] = jsonValueToAny(el)
		}
		return out
	case fastjson.TypeObject:
		obj, _ := v.Object()
		out := make(map[string]any, obj.Len())
		obj.Visit(func(key []byte, value *fastjson.Value) {
			out[string(key)] = jsonValueToAny(value)
		})
		return out
	default:
		return nil
	}
}
