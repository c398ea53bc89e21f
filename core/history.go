package core

import (
	"sync"
	"time"

	"github.com/golang/groupcache/lru"

	"quantron.io/qs"
)

type HistoryEntry struct {
	RequestID string
	Method    string
	Outcome   string
	Err       error
	At        time.Time
}

//	History keeps the last outcomes by request id.
type History struct {
	sync.Mutex
	entries *lru.Cache
}

func NewHistory(size int) *History {
	return &History{entries: lru.New(size)}
}

func (h *History) DidComplete(m *Method, result interface{}, err error) {
	h.Lock()
	defer h.Unlock()
	h.entries.Add(m.RequestID(), HistoryEntry{
		RequestID: m.RequestID(),
		Method:    m.Name(),
		Outcome:   qs.Kind(err),
		Err:       err,
		At:        time.Now(),
	})
}

func (h *History) Get(requestID string) (entry HistoryEntry, ok bool) {
	h.Lock()
	defer h.Unlock()
	cached, ok := h.entries.Get(requestID)
	if ok {
		entry = cached.(HistoryEntry)
	}
	return
}

func (h *History) Len() int {
	h.Lock()
	defer h.Unlock()
	return h.entries.Len()
}
