package core

import (
	"time"

	"github.com/aretw0/introspection"
)

// ServiceState exposes internal state for observability.
type ServiceState struct {
	EventBufferSize int        `json:"event_buffer_size"`
	SinkType        string     `json:"sink_type"`
	Strict          bool       `json:"strict"`
	Extractions     int        `json:"extractions"`
	Failures        int        `json:"failures"`
	LastSource      string     `json:"last_source,omitempty"`
	LastExtraction  *time.Time `json:"last_extraction,omitempty"`
}

// State implements introspection.Introspectable.
func (s *Service) State() any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sinkType := "unknown"
	if s.sink != nil {
		sinkType = "sink"
		if comp, ok := s.sink.(introspection.Component); ok {
			sinkType = comp.ComponentType()
		}
	}

	return ServiceState{
		EventBufferSize: s.eventBufferSize,
		SinkType:        sinkType,
		Strict:          s.strict,
		Extractions:     s.extractions,
		Failures:        s.failures,
		LastSource:      s.lastSource,
		LastExtraction:  s.lastExtraction,
	}
}

// ComponentType implements introspection.Component.
func (s *Service) ComponentType() string {
	return "service"
}

var _ introspection.Introspectable = (*Service)(nil)
var _ introspection.Component = (*Service)(nil)
