package qs

import (
	"testing"
	"time"
)

const POLL_INTERVAL = time.Millisecond

//	TrueBefore polls predicate until it holds, failing t at deadline.
func TrueBefore(t *testing.T, predicate func() bool, deadline time.Time) {
	t.Helper()
	ticker := time.NewTicker(POLL_INTERVAL)
	defer ticker.Stop()
	for time.Now().Before(deadline) {
		if predicate() {
			return
		}
		<-ticker.C
	}
	if !predicate() {
		t.Fatal("predicate unsatisfied by deadline")
	}
}
