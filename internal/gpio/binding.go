package gpio

import (
	"fmt"
	"sync"
)

// Binding delivers edges from a line to a handler running on a dedicated
// worker goroutine. Edges are handed over one at a time: the line's event
// source blocks until the worker has taken the previous edge, so handler
// calls never overlap and the handler is free to block.
type Binding struct {
	line    Line
	handler func(Edge)

	edges chan Edge
	stop  chan struct{}
	wg    sync.WaitGroup
	once  sync.Once
}

// Bind enables both-edge detection on line and starts the worker that runs
// handler. On failure nothing is left running and the line is untouched;
// releasing it is the caller's job.
func Bind(line Line, handler func(Edge)) (*Binding, error) {
	b := &Binding{
		line:    line,
		handler: handler,
		edges:   make(chan Edge),
		stop:    make(chan struct{}),
	}

	b.wg.Add(1)
	go b.run()

	if err := line.Watch(b.notify); err != nil {
		close(b.stop)
		b.wg.Wait()
		return nil, fmt.Errorf("%w: line %d: %w", ErrBindFailed, line.Offset(), err)
	}
	return b, nil
}

// notify is called from the line's event source.
func (b *Binding) notify(e Edge) {
	select {
	case b.edges <- e:
	case <-b.stop:
	}
}

func (b *Binding) run() {
	defer b.wg.Done()
	for {
		select {
		case e := <-b.edges:
			b.handler(e)
		case <-b.stop:
			return
		}
	}
}

// Unbind disables edge detection and waits for an in-flight handler call to
// finish. It is safe to call more than once; only the first call acts.
func (b *Binding) Unbind() error {
	var err error
	b.once.Do(func() {
		if uerr := b.line.Unwatch(); uerr != nil {
			err = fmt.Errorf("unwatch line %d: %w", b.line.Offset(), uerr)
		}
		close(b.stop)
		b.wg.Wait()
	})
	return err
}
