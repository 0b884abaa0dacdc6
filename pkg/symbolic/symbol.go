package symbolic

// Symbol is an opaque handle to a named scalar quantity. Handles are created
// by a Pool and carry a dense id, so sets of symbols can be tracked in a
// bitset and iterated in creation order.
type Symbol struct {
	name string
	id   uint
}

func (s *Symbol) Name() string { return s.name }
func (s *Symbol) ID() uint     { return s.id }

// Pool is the symbol arena. Interning is by name: asking twice for the same
// name returns the same handle.
type Pool struct {
	symbols []*Symbol
	index   map[string]*Symbol
}

func NewPool() *Pool {
	return &Pool{index: make(map[string]*Symbol)}
}

// Symbol returns the handle registered under name, creating it if needed.
func (p *Pool) Symbol(name string) *Symbol {
	if s, ok := p.index[name]; ok {
		return s
	}
	s := &Symbol{name: name, id: uint(len(p.symbols))}
	p.symbols = append(p.symbols, s)
	p.index[name] = s
	return s
}

// Lookup returns the handle registered under name, if any.
func (p *Pool) Lookup(name string) (*Symbol, bool) {
	s, ok := p.index[name]
	return s, ok
}

// ByID returns the handle with the given dense id.
func (p *Pool) ByID(id uint) *Symbol {
	if id >= uint(len(p.symbols)) {
		return nil
	}
	return p.symbols[id]
}

// Symbols returns every handle in creation order.
func (p *Pool) Symbols() []*Symbol {
	return p.symbols
}

func (p *Pool) Len() int { return len(p.symbols) }
