package symbols

import (
	"fmt"
	"os"
	"reflect"
	"runtime"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/k2io/minhook/internal/logger"
)

// DefaultCacheSize is the number of module tables kept by a Resolver.
const DefaultCacheSize = 64

// Table is the function symbol table of one loaded module.
type Table struct {
	Path string
	// Base is added to every link-time address to get the runtime address.
	Base uintptr
	syms map[string]uintptr
}

// NewTable builds a Table from link-time addresses.
func NewTable(path string, base uintptr, syms map[string]uintptr) *Table {
	return &Table{Path: path, Base: base, syms: syms}
}

// Lookup returns the runtime address of symbol.
func (t *Table) Lookup(symbol string) (uintptr, bool) {
	v, ok := t.syms[symbol]
	if !ok {
		return 0, false
	}
	return t.Base + v, true
}

func (t *Table) Len() int {
	return len(t.syms)
}

// Addrs returns every symbol of the table with its runtime address.
func (t *Table) Addrs() map[string]uintptr {
	addrs := make(map[string]uintptr, len(t.syms))
	for name, v := range t.syms {
		addrs[name] = t.Base + v
	}
	return addrs
}

// Loader produces the Table of a module. It returns ErrModuleNotFound when
// the module is not loaded.
type Loader func(module string) (*Table, error)

// Resolver maps (module, symbol) pairs to runtime addresses. Module tables
// are parsed once and kept in an LRU cache; concurrent first lookups of the
// same module share one load.
type Resolver struct {
	load  Loader
	cache *lru.Cache[string, *Table]
	group singleflight.Group
}

// NewResolver returns a Resolver using load, or LoadModule when load is nil.
func NewResolver(size int, load Loader) (*Resolver, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	if load == nil {
		load = LoadModule
	}
	c, err := lru.New[string, *Table](size)
	if err != nil {
		return nil, err
	}
	return &Resolver{load: load, cache: c}, nil
}

// Table returns the symbol table of module. Failed loads are not cached, a
// module may be loaded later.
func (r *Resolver) Table(module string) (*Table, error) {
	if t, ok := r.cache.Get(module); ok {
		return t, nil
	}
	v, err, _ := r.group.Do(module, func() (interface{}, error) {
		t, err := r.load(module)
		if err != nil {
			return nil, err
		}
		r.cache.Add(module, t)
		return t, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Table), nil
}

// Lookup returns the runtime address of symbol in module.
func (r *Resolver) Lookup(module, symbol string) (uintptr, error) {
	t, err := r.Table(module)
	if err != nil {
		return 0, err
	}
	addr, ok := t.Lookup(symbol)
	if !ok {
		return 0, fmt.Errorf("%s in %q: %w", symbol, module, ErrFunctionNotFound)
	}
	return addr, nil
}

// LoadModule loads the table of a module of the running process. The empty
// module name means the executable itself; any other name is matched against
// the mapped files of the process.
func LoadModule(module string) (*Table, error) {
	log := logger.GetLogger().WithField("module", module)

	if module == "" {
		path, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("executable: %w", ErrModuleNotFound)
		}
		syms, err := ReadSymbols(path)
		if err != nil {
			return nil, err
		}
		base := selfBase(syms)
		log.WithField("path", path).WithField("base", fmt.Sprintf("%#x", base)).Debug("loaded executable symbols")
		return NewTable(path, base, syms), nil
	}

	path, base, err := mappedModule(module)
	if err != nil {
		return nil, err
	}
	syms, err := ReadSymbols(path)
	if err != nil {
		return nil, err
	}
	log.WithField("path", path).WithField("base", fmt.Sprintf("%#x", base)).Debug("loaded module symbols")
	return NewTable(path, base, syms), nil
}

// selfBase computes the load bias of the executable from a function whose
// runtime address is known. Position dependent binaries get zero.
func selfBase(syms map[string]uintptr) uintptr {
	pc := reflect.ValueOf(ReadSymbols).Pointer()
	fn := runtime.FuncForPC(pc)
	if fn == nil {
		return 0
	}
	v, ok := syms[fn.Name()]
	if !ok {
		return 0
	}
	return pc - v
}
