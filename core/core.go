package core

/*
*	Dispatches typed methods over a Transport and delivers their outcome.
 */

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/op/go-logging"

	"quantron.io/qs"
	"quantron.io/qs/transport"
)

type Options struct {
	//	defaults to an HTTPTransport built from the config
	Transport qs.Transport
	//	defaults to qs.DefaultCodec
	Codec qs.Codec
	//	default completion context, qs.Immediate when nil
	Queue qs.Queue
	Log   *logging.Logger
}

type Core struct {
	baseURL   string
	envelope  bool
	transport qs.Transport
	codec     qs.Codec
	queue     qs.Queue
	log       *logging.Logger
	stages    stageList
	used      int32
}

func New(config qs.Config, options Options) (core *Core, err error) {
	serverURL, err := config.ParsedServerURL()
	if err != nil {
		return
	}
	log := qs.LoggerOrDefault(options.Log)

	t := options.Transport
	if t == nil {
		t, err = transport.NewHTTPTransportFromConfig(config, log)
		if err != nil {
			return
		}
	}
	codec := options.Codec
	if codec == nil {
		codec = qs.DefaultCodec
	}

	core = &Core{
		baseURL:   strings.TrimRight(serverURL.String(), "/"),
		envelope:  config.Envelope,
		transport: t,
		codec:     codec,
		queue:     options.Queue,
		log:       log,
	}
	if config.RateLimit != nil {
		if _, err = core.Use(NewRateLimiter(config.RateLimit.RPS, config.RateLimit.Burst)); err != nil {
			core = nil
			return
		}
	}
	return
}

func (c *Core) BaseURL() string {
	return c.baseURL
}

func (c *Core) Transport() qs.Transport {
	return c.transport
}

//	Use appends stage to the pipeline until the returned Registration is
//	released.
func (c *Core) Use(stage interface{}) (*Registration, error) {
	return c.stages.add(stage)
}

type challengeDelegating interface {
	SetDelegate(qs.ChallengeDelegate)
}

//	SetChallengeDelegate forwards authentication challenges of the transport
//	to d. Returns false when the transport does not raise challenges.
func (c *Core) SetChallengeDelegate(d qs.ChallengeDelegate) bool {
	delegating, ok := c.transport.(challengeDelegating)
	if ok {
		delegating.SetDelegate(d)
	}
	return ok
}

func (c *Core) inUse() bool {
	return atomic.LoadInt32(&c.used) == 1
}

func (c *Core) markUsed() {
	atomic.StoreInt32(&c.used, 1)
}

//	MethodURL is where the method named name is sent.
func (c *Core) MethodURL(name string) string {
	return c.baseURL + "/" + url.PathEscape(name)
}

//	PerformMethod runs m through authorize, will-perform, dispatch, decode,
//	transform and did-complete. The completion of m fires exactly once. A
//	method can be performed only once; later calls are ignored.
func (c *Core) PerformMethod(m *Method) {
	c.markUsed()
	if !m.start() {
		c.log.Warning("method", m.name, m.requestID, "already performed")
		return
	}

	if m.Cancelled() {
		c.finish(m, nil, qs.ErrCancelled)
		return
	}

	if abortErr := c.authorize(m); abortErr != nil {
		c.log.Notice("method", m.name, "aborted:", abortErr)
		c.finish(m, nil, abortErr)
		return
	}

	c.stages.each(func(stage interface{}) bool {
		if preparer, ok := stage.(Preparer); ok {
			qs.RecoverToLog(func() { preparer.WillPerform(m) }, c.log)
		}
		return true
	})

	spec, err := c.requestSpec(m)
	if err != nil {
		c.finish(m, nil, &qs.AbortError{Method: m.name, Err: err})
		return
	}
	c.log.Debug("dispatch", m.name, m.requestID, spec.Method, spec.URL)
	c.transport.Perform(spec, func(err error, data []byte) {
		c.handleResponse(m, err, data)
	})
}

func (c *Core) authorize(m *Method) (abortErr error) {
	c.stages.each(func(stage interface{}) bool {
		authorizer, ok := stage.(Authorizer)
		if !ok {
			return true
		}
		err := c.safeAuthorize(authorizer, m)
		if err == nil {
			return true
		}
		var abort *qs.AbortError
		if errors.As(err, &abort) {
			abortErr = abort
		} else {
			abortErr = &qs.AbortError{Method: m.name, Err: err}
		}
		return false
	})
	return
}

func (c *Core) safeAuthorize(authorizer Authorizer, m *Method) (err error) {
	if panicErr := qs.Recover(func() { err = authorizer.Authorize(m) }, c.log); panicErr != nil {
		err = panicErr
	}
	return
}

func (c *Core) requestSpec(m *Method) (spec qs.RequestSpec, err error) {
	spec = qs.RequestSpec{
		Method:       m.httpMethod,
		URL:          c.MethodURL(m.name),
		RequestType:  qs.MIME_JSON,
		ResponseType: qs.MIME_JSON,
		Header:       http.Header{},
	}
	spec.Header.Set(qs.REQUEST_ID_HEADER, m.requestID)

	if m.httpMethod == http.MethodGet {
		return
	}
	body, err := c.codec.Encode(m.request)
	if err != nil {
		return
	}
	if len(m.attachments) > 0 {
		spec.Attachments = m.attachments
		spec.Params, err = FormParams(body)
		return
	}
	spec.Body = body
	return
}

//	FormParams flattens the top-level fields of a JSON object into form
//	values: strings verbatim, anything else as JSON text.
func FormParams(body []byte) (params map[string]string, err error) {
	params = map[string]string{}
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" || trimmed == "null" {
		return
	}
	var fields map[string]json.RawMessage
	if err = json.Unmarshal(body, &fields); err != nil {
		err = fmt.Errorf("attachment request must encode to a JSON object: %s", err)
		return
	}
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		raw := fields[key]
		var s string
		if json.Unmarshal(raw, &s) == nil {
			params[key] = s
		} else {
			params[key] = string(raw)
		}
	}
	return
}

func (c *Core) handleResponse(m *Method, err error, data []byte) {
	if !m.respond() {
		c.log.Warning("duplicate response for", m.name, m.requestID, "dropped")
		return
	}

	var result interface{}
	switch {
	case err != nil:
	case m.Cancelled():
		err = qs.ErrCancelled
	default:
		result, err = c.decode(m, data)
	}

	c.stages.each(func(stage interface{}) bool {
		if transformer, ok := stage.(Transformer); ok {
			result, err = c.safeTransform(transformer, m, result, err)
		}
		return true
	})

	c.finish(m, result, err)
}

func (c *Core) decode(m *Method, data []byte) (result interface{}, err error) {
	payload := data
	if c.envelope {
		payload, err = qs.UnwrapEnvelope(http.StatusOK, data)
		if err != nil {
			return
		}
	}
	result, err = c.codec.Decode(payload, m.responseType)
	if err != nil && !qs.IsDecodeError(err) {
		err = &qs.ResponseDecodeError{Err: err}
	}
	return
}

//	A panicking transformer leaves the outcome as it was.
func (c *Core) safeTransform(transformer Transformer, m *Method, result interface{}, err error) (interface{}, error) {
	outResult, outErr := result, err
	if qs.Recover(func() { outResult, outErr = transformer.Transform(m, result, err) }, c.log) != nil {
		return result, err
	}
	return outResult, outErr
}

func (c *Core) finish(m *Method, result interface{}, err error) {
	m.complete(err, result, c.queue, c.log, func(err error, result interface{}) {
		c.log.Debug("complete", m.name, m.requestID, qs.Kind(err))
		c.stages.each(func(stage interface{}) bool {
			if observer, ok := stage.(Observer); ok {
				qs.RecoverToLog(func() { observer.DidComplete(m, result, err) }, c.log)
			}
			return true
		})
	})
}
