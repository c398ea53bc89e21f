package qs

import (
	"sync"

	"github.com/op/go-logging"
)

//	Queue is the context completion callbacks are delivered on.
type Queue interface {
	Async(f func())
}

type immediateQueue struct{}

func (immediateQueue) Async(f func()) {
	f()
}

type goroutineQueue struct{}

func (goroutineQueue) Async(f func()) {
	go f()
}

//	Immediate runs callbacks on the worker that finished the exchange.
var Immediate Queue = immediateQueue{}

//	Goroutine runs every callback on a fresh goroutine.
var Goroutine Queue = goroutineQueue{}

//	SerialQueue runs callbacks one at a time in submission order on a single
//	goroutine. Async never blocks, so a callback may enqueue more work.
type SerialQueue struct {
	sync.Mutex
	cond    *sync.Cond
	pending []func()
	done    chan struct{}
	closed  bool
	log     *logging.Logger
}

//	size is only the initial capacity of the pending list.
func NewSerialQueue(size int, log *logging.Logger) *SerialQueue {
	q := &SerialQueue{
		pending: make([]func(), 0, size),
		done:    make(chan struct{}),
		log:     log,
	}
	q.cond = sync.NewCond(&q.Mutex)
	go q.run()
	return q
}

func (q *SerialQueue) run() {
	defer close(q.done)
	for {
		q.Lock()
		for len(q.pending) == 0 && !q.closed {
			q.cond.Wait()
		}
		if len(q.pending) == 0 {
			q.Unlock()
			return
		}
		f := q.pending[0]
		q.pending[0] = nil
		q.pending = q.pending[1:]
		q.Unlock()
		RecoverToLog(f, q.log)
	}
}

//	Async enqueues f. After Close, f runs on the calling goroutine so a
//	callback is never dropped.
func (q *SerialQueue) Async(f func()) {
	q.Lock()
	if q.closed {
		q.Unlock()
		f()
		return
	}
	q.pending = append(q.pending, f)
	q.Unlock()
	q.cond.Signal()
}

//	Close drains pending callbacks and stops the queue goroutine.
func (q *SerialQueue) Close() {
	q.Lock()
	if q.closed {
		q.Unlock()
		return
	}
	q.closed = true
	q.Unlock()
	q.cond.Broadcast()
	<-q.done
}

//	Deliver runs f on the first non-nil queue, falling back to Immediate.
func Deliver(f func(), queues ...Queue) {
	for _, q := range queues {
		if q != nil {
			q.Async(f)
			return
		}
	}
	Immediate.Async(f)
}

//	FuncQueue adapts a scheduling function to Queue.
type FuncQueue func(f func())

func (q FuncQueue) Async(f func()) {
	q(f)
}
