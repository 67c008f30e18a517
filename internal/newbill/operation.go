package newbill

import "sync"

// Operation is the pending result of a store call started by a handler
type Operation struct {
	done chan struct{}
	once sync.Once
	err  error
}

func newOperation() *Operation {
	return &Operation{done: make(chan struct{})}
}

// completed returns an Operation that is already finished
func completed(err error) *Operation {
	op := newOperation()
	op.finish(err)
	return op
}

func (o *Operation) finish(err error) {
	o.once.Do(func() {
		o.err = err
		close(o.done)
	})
}

// Done is closed once the operation has finished
func (o *Operation) Done() <-chan struct{} {
	return o.done
}

// Wait blocks until the operation finishes and returns its error
func (o *Operation) Wait() error {
	<-o.done
	return o.err
}

// Err returns the error of a finished operation, nil while it is still running
func (o *Operation) Err() error {
	select {
	case <-o.done:
		return o.err
	default:
		return nil
	}
}
