package dynamo

import "sync"

// StatePool recycles state buffers of any length. It is safe for
// concurrent use.
type StatePool struct {
	pools sync.Map // int -> *sync.Pool
}

func NewStatePool() *StatePool {
	return &StatePool{}
}

func (p *StatePool) sized(n int) *sync.Pool {
	if sp, ok := p.pools.Load(n); ok {
		return sp.(*sync.Pool)
	}
	sp, _ := p.pools.LoadOrStore(n, &sync.Pool{
		New: func() any {
			s := make(State, n)
			return &s
		},
	})
	return sp.(*sync.Pool)
}

// Get returns a zeroed state of length n.
func (p *StatePool) Get(n int) State {
	return *p.sized(n).Get().(*State)
}

func (p *StatePool) Put(s State) {
	if len(s) == 0 {
		return
	}
	clear(s)
	p.sized(len(s)).Put(&s)
}
