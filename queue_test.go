package qs

import (
	"sync"
	"testing"
	"time"
)

func TestSerialQueueOrder(t *testing.T) {
	q := NewSerialQueue(4, nil)
	var mu sync.Mutex
	var order []int
	for i := 0; i < 100; i++ {
		i := i
		q.Async(func() {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
		})
	}
	q.Close()
	if len(order) != 100 {
		t.Fatal("callbacks dropped", len(order))
	}
	for i, v := range order {
		if i != v {
			t.Fatal("out of order at", i)
		}
	}
}

func TestSerialQueueSurvivesPanic(t *testing.T) {
	q := NewSerialQueue(1, nil)
	defer q.Close()
	q.Async(func() { panic("boom") })
	ran := make(chan struct{})
	q.Async(func() { close(ran) })
	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("queue stopped after panic")
	}
}

func TestSerialQueueReentrantAsync(t *testing.T) {
	q := NewSerialQueue(0, nil)
	defer q.Close()
	inner := make(chan struct{})
	q.Async(func() {
		q.Async(func() { close(inner) })
	})
	select {
	case <-inner:
	case <-time.After(time.Second):
		t.Fatal("callback enqueued from the queue never ran")
	}
}

func TestSerialQueueAfterClose(t *testing.T) {
	q := NewSerialQueue(1, nil)
	q.Close()
	q.Close()
	ran := false
	q.Async(func() { ran = true })
	if !ran {
		t.Fatal("callback dropped after close")
	}
}

func TestDeliverFallback(t *testing.T) {
	ran := false
	Deliver(func() { ran = true }, nil)
	if !ran {
		t.Fatal("nil queue must run immediately")
	}
	done := make(chan struct{})
	Deliver(func() { close(done) }, nil, Goroutine)
	TrueBefore(t, func() bool {
		select {
		case <-done:
			return true
		default:
			return false
		}
	}, time.Now().Add(time.Second))
}

func TestRecoverReturnsPanic(t *testing.T) {
	err := Recover(func() { panic("boom") }, nil)
	panicErr, ok := err.(*PanicError)
	if !ok || panicErr.Value != "boom" || len(panicErr.Stack) == 0 {
		t.Fatal("panic not captured", err)
	}
	if Recover(func() {}, nil) != nil {
		t.Fatal("no panic reported as error")
	}
}
