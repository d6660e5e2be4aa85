package wire

import (
	"fmt"
	"reflect"

	"github.com/fxamacker/cbor/v2"

	"github.com/telhawk-systems/hawktail/pkg/model"
)

// cborDecMode decodes any-typed targets into map[string]any instead of
// the CBOR default map[interface{}]interface{}, so payloads funnel into
// the same normalizer as JSON.
var cborDecMode cbor.DecMode

// cborEncMode uses Core Deterministic Encoding so the same logical
// payload always produces identical bytes.
var cborEncMode cbor.EncMode

func init() {
	var err error
	cborDecMode, err = cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic("wire: CBOR decoder initialization failed: " + err.Error())
	}
	cborEncMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("wire: CBOR encoder initialization failed: " + err.Error())
	}
}

type cborCodec struct{}

func (cborCodec) Name() string { return FormatCBOR }

func (cborCodec) Decode(payload []byte) (*model.Record, error) {
	var fields map[string]any
	if err := cborDecMode.Unmarshal(payload, &fields); err != nil {
		return nil, frameErrorf(err, "malformed cbor payload")
	}
	return recordFromFields(fields), nil
}

func (cborCodec) Encode(fields map[string]any) ([]byte, error) {
	data, err := cborEncMode.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("encode cbor payload: %w", err)
	}
	return data, nil
}
