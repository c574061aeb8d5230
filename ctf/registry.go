package ctf

import (
	"fmt"
	"sync"
)

// Format bundles the MetadataParser collaborator a process has chosen
// with the opener functions, so a Registry lookup returns something
// directly usable instead of requiring every caller to thread a
// parser through by hand.
type Format struct {
	Parser MetadataParser
}

// Open opens path as a directory-based trace of this format.
func (f Format) Open(path string, flags OpenFlags) (*Trace, error) {
	return OpenTrace(path, flags, f.Parser)
}

// OpenMmap opens streams as an mmap-stream trace of this format.
func (f Format) OpenMmap(streams []MmapStream, metadataText string, order ByteOrder) (*Trace, error) {
	return OpenMmapTrace(streams, metadataText, order, f.Parser)
}

// Registry maps format names to factories, the generalization of the
// single hardcoded "ctf" name a containing framework dispatches by.
type Registry struct {
	mu      sync.RWMutex
	formats map[string]func() Format
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{formats: make(map[string]func() Format)}
}

// DefaultRegistry is a process-wide registry, empty until a caller
// passes it to Register or RegisterFormat.
var DefaultRegistry = NewRegistry()

// RegisterFormat associates factory with name. It panics if name is
// already registered, mirroring RegisterImplementation's
// once-per-scheme contract.
func (r *Registry) RegisterFormat(name string, factory func() Format) {
	if factory == nil {
		panic("ctf: nil format factory")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if name == "" {
		panic("ctf: empty format name")
	}
	if _, ok := r.formats[name]; ok {
		panic(fmt.Sprintf("ctf: format %q already registered", name))
	}
	r.formats[name] = factory
}

// Lookup returns the format registered under name, if any. factory is
// invoked once per call, matching RegisterImplementation's deferred
// construction (a parser may not be fully configured yet at registration
// time).
func (r *Registry) Lookup(name string) (Format, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	factory, ok := r.formats[name]
	if !ok {
		return Format{}, false
	}
	return factory(), true
}

// Register installs the "ctf" format into registry, built with
// parser. Per the format-registry design note, this is an explicit
// call a process makes at startup - there is no package init()
// performing hidden static registration.
func Register(registry *Registry, parser MetadataParser) {
	registry.RegisterFormat("ctf", func() Format { return Format{Parser: parser} })
}
