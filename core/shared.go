package core

import (
	"sync"

	"quantron.io/qs"
)

//	Process-wide default Core. It may be created once and overridden once,
//	both before first use. Use marks it either through Shared or through
//	performing a method on it.
var shared struct {
	sync.Mutex
	core       *Core
	overridden bool
}

func CreateShared(config qs.Config, options Options) (core *Core, err error) {
	shared.Lock()
	defer shared.Unlock()
	if shared.core != nil {
		if shared.core.inUse() {
			err = ErrSharedInUse
			return
		}
		if shared.overridden {
			err = ErrSharedOverridden
			return
		}
	}
	core, err = New(config, options)
	if err != nil {
		return
	}
	if shared.core != nil {
		shared.overridden = true
	}
	shared.core = core
	return
}

//	Shared returns the process-wide Core, building it from the environment
//	when CreateShared was never called.
func Shared() (core *Core, err error) {
	shared.Lock()
	defer shared.Unlock()
	if shared.core == nil {
		var config qs.Config
		config, err = qs.LoadConfig("")
		if err != nil {
			return
		}
		if config.ServerURL == "" {
			err = ErrNotConfigured
			return
		}
		shared.core, err = New(config, Options{})
		if err != nil {
			return
		}
	}
	shared.core.markUsed()
	core = shared.core
	return
}

var (
	ErrNotConfigured    = qs.ErrNotConfigured
	ErrSharedInUse      = qs.ErrSharedInUse
	ErrSharedOverridden = qs.ErrSharedOverridden
)
