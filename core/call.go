package core

import (
	"context"

	"quantron.io/qs"
)

//	Call performs m on c and waits for its delivery. If ctx ends first, m is
//	cancelled and ErrCancelled returned; m's completion still fires once.
func Call(ctx context.Context, c *Core, m *Method) (result interface{}, err error) {
	c.PerformMethod(m)
	select {
	case <-m.Done():
		result, err = m.Outcome()
	case <-ctx.Done():
		m.Cancel()
		err = qs.ErrCancelled
	}
	return
}
