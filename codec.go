package qs

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	lru "github.com/hashicorp/golang-lru"
	"github.com/juju/gojsonschema"
)

//	Codec converts schema values to and from their wire representation.
type Codec interface {
	Encode(v interface{}) ([]byte, error)
	//	Decode returns a pointer to a new value of target (or of its element
	//	type when target is itself a pointer type).
	Decode(data []byte, target reflect.Type) (interface{}, error)
}

//	Validator is implemented by schemas carrying their own field checks.
//	Returning FieldErrors reports each failing field.
type Validator interface {
	Validate() error
}

//	JSONSchemaProvider is implemented by schemas that declare a JSON Schema
//	document their wire form must satisfy.
type JSONSchemaProvider interface {
	JSONSchema() string
}

var ErrNoTargetType = errors.New("no target type")
var ErrEmptyPayload = errors.New("empty payload")

const DEFAULT_SCHEMA_CACHE_SIZE = 128

type JSONCodec struct {
	schemas *lru.Cache
}

func NewJSONCodec(schemaCacheSize int) (codec *JSONCodec, err error) {
	if schemaCacheSize <= 0 {
		schemaCacheSize = DEFAULT_SCHEMA_CACHE_SIZE
	}
	cache, err := lru.New(schemaCacheSize)
	if err != nil {
		return
	}
	codec = &JSONCodec{schemas: cache}
	return
}

//	DefaultCodec is shared by cores built without an explicit codec.
var DefaultCodec = func() *JSONCodec {
	codec, err := NewJSONCodec(DEFAULT_SCHEMA_CACHE_SIZE)
	if err != nil {
		panic(err)
	}
	return codec
}()

func (c *JSONCodec) Encode(v interface{}) (data []byte, err error) {
	if v == nil {
		data = []byte("{}")
		return
	}
	if validator, ok := v.(Validator); ok {
		if err = validator.Validate(); err != nil {
			return
		}
	}
	data, err = json.Marshal(v)
	return
}

func (c *JSONCodec) Decode(data []byte, target reflect.Type) (value interface{}, err error) {
	if target == nil {
		err = &ResponseDecodeError{Err: ErrNoTargetType}
		return
	}
	elem := target
	if elem.Kind() == reflect.Ptr {
		elem = elem.Elem()
	}
	if len(bytes.TrimSpace(data)) == 0 {
		err = &ResponseDecodeError{Err: ErrEmptyPayload}
		return
	}
	ptr := reflect.New(elem)
	v := ptr.Interface()

	if provider, ok := v.(JSONSchemaProvider); ok {
		if fields, schemaErr := c.validateSchema(elem, provider.JSONSchema(), data); schemaErr != nil || len(fields) > 0 {
			err = &ResponseDecodeError{Fields: fields, Err: schemaErr}
			return
		}
	}

	if unmarshalErr := json.Unmarshal(data, v); unmarshalErr != nil {
		decodeErr := &ResponseDecodeError{Err: unmarshalErr}
		var typeErr *json.UnmarshalTypeError
		if errors.As(unmarshalErr, &typeErr) {
			decodeErr.Fields = []FieldError{{
				Field:   typeErr.Field,
				Message: fmt.Sprintf("expected %s, got %s", typeErr.Type, typeErr.Value),
			}}
		}
		err = decodeErr
		return
	}

	if validator, ok := v.(Validator); ok {
		if validateErr := validator.Validate(); validateErr != nil {
			decodeErr := &ResponseDecodeError{}
			var fields FieldErrors
			if errors.As(validateErr, &fields) {
				decodeErr.Fields = fields
			} else {
				decodeErr.Err = validateErr
			}
			err = decodeErr
			return
		}
	}
	value = v
	return
}

func (c *JSONCodec) validateSchema(elem reflect.Type, source string, data []byte) (fields []FieldError, err error) {
	if source == "" {
		return
	}
	schema, err := c.compiledSchema(elem, source)
	if err != nil {
		return
	}
	result, err := schema.Validate(gojsonschema.NewStringLoader(string(data)))
	if err != nil {
		return
	}
	if result.Valid() {
		return
	}
	for _, resultErr := range result.Errors() {
		fields = append(fields, FieldError{
			Field:   schemaField(resultErr),
			Message: resultErr.Description,
		})
	}
	return
}

//	schemaField names the offending field relative to the document root.
func schemaField(resultErr gojsonschema.ResultError) string {
	if resultErr.Context == nil {
		return ""
	}
	return strings.TrimPrefix(resultErr.Context.String(), "(root).")
}

type compiledSchema struct {
	source string
	schema *gojsonschema.Schema
}

func (c *JSONCodec) compiledSchema(elem reflect.Type, source string) (schema *gojsonschema.Schema, err error) {
	if cached, ok := c.schemas.Get(elem); ok {
		compiled := cached.(compiledSchema)
		if compiled.source == source {
			schema = compiled.schema
			return
		}
	}
	schema, err = gojsonschema.NewSchema(gojsonschema.NewStringLoader(source))
	if err != nil {
		err = fmt.Errorf("invalid JSON schema for %s: %s", elem, err)
		return
	}
	c.schemas.Add(elem, compiledSchema{source: source, schema: schema})
	return
}
