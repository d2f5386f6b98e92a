package fake

import "sync/atomic"

type delivery struct {
	cancelled atomic.Bool
	run       func()
}

// schedule queues fn for the next Flush and returns a function that cancels
// it.
func (f *Firestore) schedule(fn func()) func() {
	d := &delivery{run: fn}
	f.lmu.Lock()
	f.pending = append(f.pending, d)
	f.lmu.Unlock()
	return func() { d.cancelled.Store(true) }
}

// Flush runs queued snapshot listeners in registration order, including any
// queued by the listeners themselves. Each listener reads the store as it is
// when it runs.
func (f *Firestore) Flush() {
	for {
		f.lmu.Lock()
		queue := f.pending
		f.pending = nil
		f.lmu.Unlock()
		if len(queue) == 0 {
			return
		}
		for _, d := range queue {
			if !d.cancelled.Load() {
				d.run()
			}
		}
	}
}
