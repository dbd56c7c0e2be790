package filestore

import "sync"

// pathSerializer ensures that, for any given filesystem path, submitted
// tasks execute in submission order (§4.1 "Path serialization" — so that a
// write followed by a delete on the same path cannot be reordered at the
// syscall boundary). Each path gets a one-slot baton channel: acquiring the
// baton means it is this task's turn; releasing it hands off to whichever
// goroutine is next in line to receive.
type pathSerializer struct {
	mu    sync.Mutex
	batons map[string]chan struct{}
}

func newPathSerializer() *pathSerializer {
	return &pathSerializer{batons: make(map[string]chan struct{})}
}

func (p *pathSerializer) baton(path string) chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	ch, ok := p.batons[path]
	if !ok {
		ch = make(chan struct{}, 1)
		ch <- struct{}{}
		p.batons[path] = ch
	}
	return ch
}

// run executes fn with exclusive access to path, blocking until any
// in-flight task for the same path has completed.
func (p *pathSerializer) run(path string, fn func() error) error {
	ch := p.baton(path)
	<-ch
	defer func() { ch <- struct{}{} }()
	return fn()
}
