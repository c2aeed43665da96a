package agent

import "iter"

// EventStream is a pull iterator over a sequence of events.
// Usage:
//
//	stream := agent.NewEventStream(a.Stream(ctx, "prompt", "analysis.txt"))
//	defer stream.Close()
//	for stream.Next() {
//	    event := stream.Current()
//	    // handle event
//	}
//	if err := stream.Err(); err != nil {
//	    // handle error
//	}
type EventStream struct {
	next    func() (Event, bool)
	stop    func()
	current Event
	err     error
	done    bool
}

// NewEventStream wraps seq. The sequence is not started until the first Next.
func NewEventStream(seq iter.Seq[Event]) *EventStream {
	next, stop := iter.Pull(seq)
	return &EventStream{next: next, stop: stop}
}

// Next advances to the next event. Returns false when the stream is exhausted
// or closed.
func (s *EventStream) Next() bool {
	if s.done {
		return false
	}
	event, ok := s.next()
	if !ok {
		s.done = true
		s.current = nil
		return false
	}
	s.current = event
	if e, isErr := event.(*ErrorEvent); isErr && s.err == nil {
		s.err = &StreamError{EventID: e.EventID, Message: e.Message}
	}
	return true
}

// Current returns the most recent event returned by Next.
func (s *EventStream) Current() Event {
	return s.current
}

// Err returns the first error event observed during iteration, if any.
func (s *EventStream) Err() error {
	return s.err
}

// Close releases the underlying sequence. It is safe to call more than once
// and after the stream is exhausted.
func (s *EventStream) Close() {
	s.done = true
	s.stop()
}

// Collect drains seq into a slice.
func Collect(seq iter.Seq[Event]) []Event {
	var events []Event
	for e := range seq {
		events = append(events, e)
	}
	return events
}
