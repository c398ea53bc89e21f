package core

import (
	"github.com/op/go-logging"

	"quantron.io/qs"
)

//	LogStage logs every dispatch and its outcome.
type LogStage struct {
	log *logging.Logger
}

func NewLogStage(log *logging.Logger) *LogStage {
	return &LogStage{log: qs.LoggerOrDefault(log)}
}

func (s *LogStage) WillPerform(m *Method) {
	s.log.Info("->", m.Name(), m.RequestID())
}

func (s *LogStage) DidComplete(m *Method, result interface{}, err error) {
	if err != nil {
		s.log.Warning("<-", m.Name(), m.RequestID(), qs.Kind(err)+":", err)
		return
	}
	s.log.Info("<-", m.Name(), m.RequestID(), "ok")
}
