package qs

import (
	"errors"
	"net/url"
	"sync"
	"time"
)

var ErrMockNetwork = errors.New("mock network failure")

type MockResponse struct {
	Status int
	Body   []byte
	//	NetworkErr fails the exchange at connection level
	NetworkErr error
}

//	ResponseTransport answers exchanges with canned responses keyed by URL
//	path, from its own goroutine as a network stack would.
type ResponseTransport struct {
	sync.Mutex
	Responses map[string]MockResponse
	Default   MockResponse
	//	times completion is signalled per exchange, at least once
	Repeat int
	Delay  time.Duration
	//	exchanges wait for Release when Hold is set
	Hold     bool
	released chan struct{}
	requests []RequestSpec
}

func (t *ResponseTransport) Perform(spec RequestSpec, completion Completion) {
	t.Lock()
	t.requests = append(t.requests, spec)
	response, ok := t.Responses[pathOf(spec.URL)]
	if !ok {
		response = t.Default
	}
	repeat := t.Repeat
	delay := t.Delay
	var released chan struct{}
	if t.Hold {
		if t.released == nil {
			t.released = make(chan struct{})
		}
		released = t.released
	}
	t.Unlock()
	if repeat < 1 {
		repeat = 1
	}

	go func() {
		if released != nil {
			<-released
		}
		if delay > 0 {
			<-time.After(delay)
		}
		body, err := classifyMock(spec, response)
		for i := 0; i < repeat; i++ {
			Deliver(func() { completion(err, body) }, spec.Queue)
		}
	}()
}

func classifyMock(spec RequestSpec, response MockResponse) (body []byte, err error) {
	if response.NetworkErr != nil {
		err = &TransportError{Op: spec.Method, URL: spec.URL, Err: response.NetworkErr}
		return
	}
	status := response.Status
	if status == 0 {
		status = 200
	}
	if !IsSuccessStatus(status) {
		err = ServerErrorFromBody(status, response.Body)
		return
	}
	body = response.Body
	return
}

//	Release lets held exchanges complete.
func (t *ResponseTransport) Release() {
	t.Lock()
	defer t.Unlock()
	if t.released == nil {
		t.released = make(chan struct{})
	}
	select {
	case <-t.released:
	default:
		close(t.released)
	}
}

func (t *ResponseTransport) Requests() []RequestSpec {
	t.Lock()
	defer t.Unlock()
	return append([]RequestSpec{}, t.requests...)
}

func (t *ResponseTransport) RequestCount() int {
	t.Lock()
	defer t.Unlock()
	return len(t.requests)
}

func pathOf(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return parsed.Path
}

//	FuncTransport adapts a function to Transport.
type FuncTransport func(spec RequestSpec, completion Completion)

func (f FuncTransport) Perform(spec RequestSpec, completion Completion) {
	f(spec, completion)
}
