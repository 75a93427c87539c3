package input

import "sync"

// Recorder is a Sink that keeps every frame, for tests.
type Recorder struct {
	mu     sync.Mutex
	frames [][]Event

	// Err, if set, will be returned by Deliver after recording.
	Err error
}

// Deliver records the frame.
func (r *Recorder) Deliver(frame []Event) error {
	cp := append([]Event(nil), frame...)
	r.mu.Lock()
	r.frames = append(r.frames, cp)
	err := r.Err
	r.mu.Unlock()
	return err
}

// Frames returns a copy of the recorded frames.
func (r *Recorder) Frames() [][]Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]Event(nil), r.frames...)
}

// Len returns the number of frames recorded.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.frames)
}

// Values returns the lid switch value of each recorded frame, in order.
func (r *Recorder) Values() []int32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []int32
	for _, f := range r.frames {
		for _, e := range f {
			if e.Type == EvSw && e.Code == SwLid {
				out = append(out, e.Value)
			}
		}
	}
	return out
}
