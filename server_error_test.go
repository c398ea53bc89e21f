package qs

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestServerErrorFromBody(t *testing.T) {
	cases := []struct {
		body    string
		typ     string
		message string
	}{
		{`{"message":"down"}`, "", "down"},
		{`{"errorMessage":"bad id","type":"invalid_parameter"}`, "invalid_parameter", "bad id"},
		{`{"status":{"error":"not_found","errorMessage":"no user"}}`, "not_found", "no user"},
		{`{"error":"teapot"}`, "", "teapot"},
		{`{"message":"m","error":"no_right"}`, "no_right", "m"},
		{"  plain failure \n", "", "plain failure"},
		{"", "", ""},
	}
	for _, c := range cases {
		err := ServerErrorFromBody(502, []byte(c.body))
		if err.Code != 502 || err.Type != c.typ || err.Message != c.message {
			t.Fatalf("%q: got %+v", c.body, err)
		}
	}
}

func TestServerErrorBodyTruncated(t *testing.T) {
	err := ServerErrorFromBody(500, []byte(strings.Repeat("x", 2*MAX_ERROR_BODY)))
	if len(err.Message) != MAX_ERROR_BODY {
		t.Fatal("message not truncated")
	}
}

func TestServerErrorBodyTruncatedOnRuneBoundary(t *testing.T) {
	body := strings.Repeat("x", MAX_ERROR_BODY-1) + strings.Repeat("é", 10)
	err := ServerErrorFromBody(500, []byte(body))
	if !utf8.ValidString(err.Message) {
		t.Fatal("truncation split a multi-byte rune")
	}
	if len(err.Message) != MAX_ERROR_BODY-1 {
		t.Fatal("wrong truncated length", len(err.Message))
	}
}

func TestUnwrapEnvelope(t *testing.T) {
	payload, err := UnwrapEnvelope(200, []byte(`{"result":{"id":"1"},"status":{"error":"ok"}}`))
	if err != nil || string(payload) != `{"id":"1"}` {
		t.Fatal(err, string(payload))
	}
	payload, err = UnwrapEnvelope(200, []byte(`{"status":{"error":"ok"}}`))
	if err != nil || string(payload) != "{}" {
		t.Fatal("missing result should decode as empty object")
	}
	_, err = UnwrapEnvelope(200, []byte(`{"result":{}}`))
	if !IsDecodeError(err) {
		t.Fatal("missing status accepted")
	}
	_, err = UnwrapEnvelope(200, []byte(`{"status":{"error":"disabled_user","errorMessage":"gone"}}`))
	var serverErr *ServerError
	if !errors.As(err, &serverErr) || serverErr.Type != ServerErrorDisabledUser || serverErr.Message != "gone" {
		t.Fatal("expected disabled_user ServerError, got", err)
	}
}

func TestKind(t *testing.T) {
	cases := map[string]error{
		"ok":        nil,
		"cancelled": ErrCancelled,
		"abort":     &AbortError{Method: "m"},
		"server":    &ServerError{Code: 500},
		"decode":    &ResponseDecodeError{},
		"transport": &TransportError{Err: ErrMockNetwork},
		"unknown":   errors.New("other"),
	}
	for kind, err := range cases {
		if Kind(err) != kind {
			t.Fatal("wrong kind for", err, Kind(err))
		}
	}
}

func TestErrorUnwrap(t *testing.T) {
	err := &TransportError{Op: "POST", URL: "u", Err: ErrMockNetwork}
	if !errors.Is(err, ErrMockNetwork) {
		t.Fatal("cause lost")
	}
	if !strings.HasPrefix(err.Error(), "TransportError: ") {
		t.Fatal("missing prefix", err.Error())
	}
	abort := &AbortError{Method: "GetUser", Err: err}
	if !IsTransportError(abort) || !IsAbort(abort) {
		t.Fatal("abort should wrap its cause")
	}
}
