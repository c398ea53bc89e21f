package core

import (
	"fmt"
	"sync"
	"sync/atomic"
)

//	A stage implements any subset of Authorizer, Preparer, Transformer and
//	Observer. Stages run in registration order.

//	Authorizer may veto a method before dispatch by returning an error.
type Authorizer interface {
	Authorize(m *Method) error
}

//	Preparer is told a method is about to be dispatched.
type Preparer interface {
	WillPerform(m *Method)
}

//	Transformer may replace the decoded result or error before delivery.
type Transformer interface {
	Transform(m *Method, result interface{}, err error) (interface{}, error)
}

//	Observer sees the delivered outcome, after the completion ran.
type Observer interface {
	DidComplete(m *Method, result interface{}, err error)
}

//	Registration is the caller's handle on a stage added with Core.Use. The
//	stage stays in the pipeline until Release.
type Registration struct {
	stage    interface{}
	released int32
	list     *stageList
}

func (r *Registration) Release() {
	if r == nil || !atomic.CompareAndSwapInt32(&r.released, 0, 1) {
		return
	}
	r.list.remove(r)
}

func (r *Registration) active() bool {
	return atomic.LoadInt32(&r.released) == 0
}

type stageList struct {
	sync.RWMutex
	registrations []*Registration
}

func isStage(stage interface{}) bool {
	switch stage.(type) {
	case Authorizer, Preparer, Transformer, Observer:
		return true
	}
	return false
}

func (l *stageList) add(stage interface{}) (r *Registration, err error) {
	if stage == nil || !isStage(stage) {
		err = fmt.Errorf("%T implements no pipeline stage", stage)
		return
	}
	r = &Registration{stage: stage, list: l}
	l.Lock()
	l.registrations = append(l.registrations, r)
	l.Unlock()
	return
}

func (l *stageList) remove(r *Registration) {
	l.Lock()
	defer l.Unlock()
	kept := l.registrations[:0:0]
	for _, other := range l.registrations {
		if other != r {
			kept = append(kept, other)
		}
	}
	l.registrations = kept
}

//	each calls f with every stage still registered when its turn comes.
func (l *stageList) each(f func(stage interface{}) bool) {
	l.RLock()
	snapshot := l.registrations
	l.RUnlock()
	for _, r := range snapshot {
		if !r.active() {
			continue
		}
		if !f(r.stage) {
			return
		}
	}
}
