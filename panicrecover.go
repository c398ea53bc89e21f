package qs

import (
	"fmt"
	"runtime/debug"

	"github.com/op/go-logging"
)

//	PanicError carries a recovered panic value and the stack it unwound.
type PanicError struct {
	Value interface{}
	Stack []byte
}

func (err *PanicError) Error() string {
	return fmt.Sprintf("PanicError: %v", err.Value)
}

//	Recover runs f and turns a panic into a *PanicError, logged on log when
//	non-nil.
func Recover(f func(), log *logging.Logger) (err error) {
	defer func() {
		if x := recover(); x != nil {
			panicErr := &PanicError{Value: x, Stack: debug.Stack()}
			if log != nil {
				log.Error(fmt.Sprintf("run time panic: %v", x))
				log.Error(string(panicErr.Stack))
			}
			err = panicErr
		}
	}()
	f()
	return
}

func RecoverToLog(f func(), log *logging.Logger) {
	Recover(f, log)
}
