package qs

import (
	"errors"
	"reflect"
	"testing"
)

type profile struct {
	ID      string            `json:"id"`
	Name    string            `json:"name"`
	Age     int               `json:"age"`
	Score   float64           `json:"score"`
	Admin   bool              `json:"admin"`
	Tags    []string          `json:"tags"`
	Extra   map[string]string `json:"extra"`
	Manager *profile          `json:"manager,omitempty"`
}

func TestCodecRoundTrip(t *testing.T) {
	in := profile{
		ID:      "1",
		Name:    "Ann",
		Age:     41,
		Score:   0.5,
		Admin:   true,
		Tags:    []string{"a", "b"},
		Extra:   map[string]string{"k": "v"},
		Manager: &profile{ID: "0", Name: "Bo"},
	}
	data, err := DefaultCodec.Encode(in)
	if err != nil {
		t.Fatal(err)
	}
	out, err := DefaultCodec.Decode(data, reflect.TypeOf(profile{}))
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(out, &in) {
		t.Fatal("round trip lost data", out)
	}

	out, err = DefaultCodec.Decode(data, reflect.TypeOf(&profile{}))
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(out, &in) {
		t.Fatal("pointer target type not dereferenced")
	}
}

func TestEncodeNil(t *testing.T) {
	data, err := DefaultCodec.Encode(nil)
	if err != nil || string(data) != "{}" {
		t.Fatal("nil request must encode to an empty object")
	}
}

func TestDecodeErrors(t *testing.T) {
	if _, err := DefaultCodec.Decode([]byte(`{}`), nil); !errors.Is(err, ErrNoTargetType) {
		t.Fatal("expected ErrNoTargetType, got", err)
	}
	if _, err := DefaultCodec.Decode([]byte("  "), reflect.TypeOf(profile{})); !errors.Is(err, ErrEmptyPayload) {
		t.Fatal("expected ErrEmptyPayload, got", err)
	}
	_, err := DefaultCodec.Decode([]byte(`{"age":"old"}`), reflect.TypeOf(profile{}))
	var decodeErr *ResponseDecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatal("expected ResponseDecodeError, got", err)
	}
	if len(decodeErr.Fields) != 1 || decodeErr.Fields[0].Field != "age" {
		t.Fatal("field not reported", decodeErr.Fields)
	}
}

type validated struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

func (v *validated) Validate() error {
	var fields FieldErrors
	if v.Email == "" {
		fields = append(fields, FieldError{Field: "email", Message: "required"})
	}
	if v.Name == "" {
		fields = append(fields, FieldError{Field: "name", Message: "required"})
	}
	if len(fields) > 0 {
		return fields
	}
	return nil
}

func TestDecodeRunsValidate(t *testing.T) {
	_, err := DefaultCodec.Decode([]byte(`{"email":""}`), reflect.TypeOf(validated{}))
	var decodeErr *ResponseDecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatal("expected ResponseDecodeError, got", err)
	}
	if len(decodeErr.Fields) != 2 {
		t.Fatal("expected both fields reported", decodeErr.Fields)
	}
	if _, err := DefaultCodec.Decode([]byte(`{"email":"a@b","name":"A"}`), reflect.TypeOf(validated{})); err != nil {
		t.Fatal(err)
	}
}

func TestEncodeRunsValidate(t *testing.T) {
	if _, err := DefaultCodec.Encode(&validated{}); err == nil {
		t.Fatal("invalid request encoded")
	}
}

type withSchema struct {
	ID    string `json:"id"`
	Count int    `json:"count"`
}

func (withSchema) JSONSchema() string {
	return `{
		"type": "object",
		"required": ["id", "count"],
		"properties": {
			"id": {"type": "string"},
			"count": {"type": "integer", "minimum": 0}
		}
	}`
}

func TestDecodeValidatesJSONSchema(t *testing.T) {
	codec, err := NewJSONCodec(4)
	if err != nil {
		t.Fatal(err)
	}
	target := reflect.TypeOf(withSchema{})
	_, err = codec.Decode([]byte(`{"count":-1}`), target)
	var decodeErr *ResponseDecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatal("expected ResponseDecodeError, got", err)
	}
	if len(decodeErr.Fields) != 2 {
		t.Fatal("expected missing id and negative count", decodeErr.Fields)
	}
	fields := map[string]bool{}
	for _, field := range decodeErr.Fields {
		fields[field.Field] = true
		if field.Message == "" {
			t.Fatal("violation without description", field)
		}
	}
	if !fields["(root)"] || !fields["count"] {
		t.Fatal("wrong field names", decodeErr.Fields)
	}

	value, err := codec.Decode([]byte(`{"id":"x","count":2}`), target)
	if err != nil {
		t.Fatal(err)
	}
	if value.(*withSchema).Count != 2 {
		t.Fatal("wrong value")
	}
	if codec.schemas.Len() != 1 {
		t.Fatal("schema not cached")
	}
}
