package runtime

import "sync"

// Invoker spawns and tracks goroutines so shutdown can wait for every one
// of them to finish before returning, ported in spirit from the teacher's
// core.Invoker / InvokerInstance() (go-mcast's Peer.poll and Peer.Command
// both spawn exclusively through it rather than bare `go`).
type Invoker struct {
	wg sync.WaitGroup
}

// NewInvoker creates an empty Invoker.
func NewInvoker() *Invoker {
	return &Invoker{}
}

// Spawn runs f on a new goroutine tracked by this invoker.
func (i *Invoker) Spawn(f func()) {
	i.wg.Add(1)
	go func() {
		defer i.wg.Done()
		f()
	}()
}

// Wait blocks until every goroutine spawned through this invoker has
// returned.
func (i *Invoker) Wait() {
	i.wg.Wait()
}
