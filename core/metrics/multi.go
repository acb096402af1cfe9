package metrics

// MultiSink fans records out to several sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordTick forwards the snapshot to all sinks, returning the first error
// encountered.
func (m *MultiSink) RecordTick(s TickSnapshot) error {
	for _, sink := range m.Sinks {
		if err := sink.RecordTick(s); err != nil {
			return err
		}
	}
	return nil
}

// RecordAssignment forwards to the sinks that record assignments.
func (m *MultiSink) RecordAssignment(ev AssignmentEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(AssignmentRecorder); ok {
			if err := rec.RecordAssignment(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordOutcome forwards to the sinks that record outcomes.
func (m *MultiSink) RecordOutcome(ev OutcomeEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(OutcomeRecorder); ok {
			if err := rec.RecordOutcome(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// Close closes the sinks that hold connections.
func (m *MultiSink) Close() {
	for _, s := range m.Sinks {
		if c, ok := s.(interface{ Close() }); ok {
			c.Close()
		}
	}
}
