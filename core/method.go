package core

import (
	"fmt"
	"net/http"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/op/go-logging"

	"quantron.io/qs"
)

//	Completion receives the single outcome of a Method. A non-nil err is
//	authoritative and result is then nil.
type Completion func(err error, result interface{})

type MethodOption func(*Method)

//	GET sends the method as a body-less GET instead of a POST.
func GET() MethodOption {
	return func(m *Method) {
		m.httpMethod = http.MethodGet
	}
}

//	WithAttachments sends the request as multipart form data.
func WithAttachments(attachments ...qs.Attachment) MethodOption {
	return func(m *Method) {
		m.attachments = append(m.attachments, attachments...)
	}
}

//	OnQueue delivers the completion on q instead of the Core's queue.
func OnQueue(q qs.Queue) MethodOption {
	return func(m *Method) {
		m.queue = q
	}
}

var methodSeq uint64

//	Method describes one call. Everything but the cancelled and completed
//	flags is fixed at construction.
type Method struct {
	name         string
	request      interface{}
	responseType reflect.Type
	completion   Completion
	httpMethod   string
	attachments  []qs.Attachment
	queue        qs.Queue
	requestID    string

	started   int32
	responded int32
	cancelled int32
	completed int32

	done      chan struct{}
	outcomeMu sync.Mutex
	result    interface{}
	err       error
}

func NewMethod(name string, request interface{}, responseType reflect.Type, completion Completion, options ...MethodOption) (m *Method) {
	m = &Method{
		name:         name,
		request:      request,
		responseType: responseType,
		completion:   completion,
		httpMethod:   http.MethodPost,
		done:         make(chan struct{}),
	}
	for _, option := range options {
		option(m)
	}
	id, err := qs.NewRequestID()
	if err != nil {
		id = fmt.Sprintf("%s-%d", name, atomic.AddUint64(&methodSeq, 1))
	}
	m.requestID = id
	return
}

func (m *Method) Name() string {
	return m.name
}

func (m *Method) Request() interface{} {
	return m.request
}

func (m *Method) ResponseType() reflect.Type {
	return m.responseType
}

func (m *Method) HTTPMethod() string {
	return m.httpMethod
}

func (m *Method) Attachments() []qs.Attachment {
	return m.attachments
}

func (m *Method) RequestID() string {
	return m.requestID
}

//	Cancel is idempotent and safe from any goroutine. It does not interrupt
//	an exchange in flight, it only turns the pending delivery into
//	ErrCancelled.
func (m *Method) Cancel() {
	atomic.StoreInt32(&m.cancelled, 1)
}

func (m *Method) Cancelled() bool {
	return atomic.LoadInt32(&m.cancelled) == 1
}

func (m *Method) Completed() bool {
	return atomic.LoadInt32(&m.completed) == 1
}

//	Done is closed once the completion has run.
func (m *Method) Done() <-chan struct{} {
	return m.done
}

//	Outcome is the delivered (result, err) pair, valid after Done is closed.
func (m *Method) Outcome() (result interface{}, err error) {
	m.outcomeMu.Lock()
	defer m.outcomeMu.Unlock()
	return m.result, m.err
}

func (m *Method) start() bool {
	return atomic.CompareAndSwapInt32(&m.started, 0, 1)
}

//	respond admits the first response signalled by the transport.
func (m *Method) respond() bool {
	return atomic.CompareAndSwapInt32(&m.responded, 0, 1)
}

//	complete delivers the outcome once, on the method's queue, else on
//	fallback. The cancelled flag is checked when the delivery actually runs.
//	after observes the delivered pair. Returns false if already completed.
func (m *Method) complete(err error, result interface{}, fallback qs.Queue, log *logging.Logger, after func(error, interface{})) bool {
	if !atomic.CompareAndSwapInt32(&m.completed, 0, 1) {
		return false
	}
	qs.Deliver(func() {
		if m.Cancelled() {
			err = qs.ErrCancelled
		}
		if err != nil {
			result = nil
		}
		m.outcomeMu.Lock()
		m.result, m.err = result, err
		m.outcomeMu.Unlock()

		if m.completion != nil {
			qs.RecoverToLog(func() { m.completion(err, result) }, log)
		}
		close(m.done)
		if after != nil {
			after(err, result)
		}
	}, m.queue, fallback)
	return true
}
