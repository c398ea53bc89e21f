package qs

import (
	"encoding/json"
	"strings"
	"unicode/utf8"
)

const MAX_ERROR_BODY = 512

type errorBody struct {
	Message      *string `json:"message"`
	ErrorMessage *string `json:"errorMessage"`
	Type         *string `json:"type"`
	Error        *string `json:"error"`
	Status       *struct {
		Error        *string `json:"error"`
		ErrorMessage *string `json:"errorMessage"`
	} `json:"status"`
}

func firstNonEmpty(candidates ...*string) string {
	for _, c := range candidates {
		if c != nil && *c != "" {
			return *c
		}
	}
	return ""
}

//	ServerErrorFromBody classifies a non-success HTTP status, extracting the
//	server supplied type and message when the body carries them.
func ServerErrorFromBody(status int, body []byte) *ServerError {
	serverErr := &ServerError{Code: status}
	var parsed errorBody
	if json.Unmarshal(body, &parsed) == nil {
		var statusError, statusMessage *string
		if parsed.Status != nil {
			statusError = parsed.Status.Error
			statusMessage = parsed.Status.ErrorMessage
		}
		serverErr.Message = firstNonEmpty(parsed.Message, parsed.ErrorMessage, statusMessage)
		serverErr.Type = firstNonEmpty(parsed.Type, statusError)
		if serverErr.Message == "" && parsed.Error != nil {
			serverErr.Message = *parsed.Error
		} else if serverErr.Type == "" && parsed.Error != nil {
			serverErr.Type = *parsed.Error
		}
		return serverErr
	}
	text := strings.TrimSpace(string(body))
	if len(text) > MAX_ERROR_BODY {
		cut := MAX_ERROR_BODY
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut]
	}
	serverErr.Message = text
	return serverErr
}

//	IsSuccessStatus reports whether status is 2xx.
func IsSuccessStatus(status int) bool {
	return status >= 200 && status < 300
}

type envelope struct {
	Result json.RawMessage `json:"result"`
	Status *struct {
		Error        string `json:"error"`
		ErrorMessage string `json:"errorMessage"`
	} `json:"status"`
}

//	UnwrapEnvelope splits a {"result": ..., "status": {...}} body. A status
//	other than "ok" yields a ServerError carrying status as Code.
func UnwrapEnvelope(status int, body []byte) (payload []byte, err error) {
	var env envelope
	if decodeErr := json.Unmarshal(body, &env); decodeErr != nil {
		err = &ResponseDecodeError{Err: decodeErr}
		return
	}
	if env.Status == nil {
		err = &ResponseDecodeError{Fields: []FieldError{{Field: "status", Message: "missing"}}}
		return
	}
	if env.Status.Error != "ok" {
		err = &ServerError{
			Code:    status,
			Type:    env.Status.Error,
			Message: unquoteMessage(env.Status.ErrorMessage),
		}
		return
	}
	payload = env.Result
	if len(payload) == 0 {
		payload = []byte("{}")
	}
	return
}

//	servers JSON-encode the message inside errorMessage
func unquoteMessage(message string) string {
	var unquoted string
	if strings.HasPrefix(message, `"`) && json.Unmarshal([]byte(message), &unquoted) == nil {
		return unquoted
	}
	return message
}
