package parsers

import (
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/djtools/internal/collection"
	"gopkg.in/yaml.v3"
)

// Kind is the stage a parser runs in. Classifiers always run before combiners.
type Kind int

const (
	KindClassifier Kind = iota
	KindCombiner
)

func (k Kind) String() string {
	switch k {
	case KindClassifier:
		return "classifier"
	case KindCombiner:
		return "combiner"
	default:
		return "unknown"
	}
}

// Outcome describes one playlist a parser wrote.
type Outcome struct {
	Parser string
	Path   []string
	Result collection.UpsertResult
	Tracks int
}

// PathString joins the outcome's folder path and playlist name with "/".
func (o Outcome) PathString() string {
	return strings.Join(o.Path, "/")
}

// Report is what a parser did to a document.
type Report struct {
	Outcomes []Outcome
	Skipped  []error
}

// Parser builds playlists into a document.
type Parser interface {
	// Key is the registry name the parser was built from.
	Key() string
	Kind() Kind
	Enabled() bool
	Apply(doc *collection.Document, logger *log.Logger) (*Report, error)
}

// Factory decodes a parser's options into a ready [Parser]. Invalid options are [*ConfigurationError] values.
type Factory func(key string, node *yaml.Node, opts Options) (Parser, error)

// Registration pairs a parser kind with its factory.
type Registration struct {
	Kind    Kind
	Factory Factory
}

// Registry maps configuration keys to parser implementations.
type Registry struct {
	entries map[string]Registration
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]Registration)}
}

// DefaultRegistry returns a registry holding GenreTagParser, MyTagParser and Combiner.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register("GenreTagParser", KindClassifier, NewGenreTagParser)
	r.Register("MyTagParser", KindClassifier, NewMyTagParser)
	r.Register("Combiner", KindCombiner, NewCombiner)
	return r
}

// Register adds or replaces the parser registered under name.
func (r *Registry) Register(name string, kind Kind, factory Factory) {
	r.entries[name] = Registration{Kind: kind, Factory: factory}
}

// Lookup returns the registration for name or an [*UnknownParserError].
func (r *Registry) Lookup(name string) (Registration, error) {
	reg, ok := r.entries[name]
	if !ok {
		return Registration{}, &UnknownParserError{Name: name}
	}
	return reg, nil
}

// Names returns the registered parser names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve checks that every key in cfg is registered without decoding any options.
func (r *Registry) Resolve(cfg *Config) error {
	for _, e := range cfg.Entries {
		if _, err := r.Lookup(e.Key); err != nil {
			return err
		}
	}
	return nil
}

// Build resolves and decodes every entry of cfg.
//
// Parsers are returned in execution order: classifiers in declaration order, then combiners in
// declaration order. Disabled parsers are validated and included; callers check [Parser.Enabled].
func (r *Registry) Build(cfg *Config, opts Options) ([]Parser, error) {
	if err := r.Resolve(cfg); err != nil {
		return nil, err
	}

	opts = opts.withDefaults()
	var classifiers, combiners []Parser
	for _, e := range cfg.Entries {
		reg, _ := r.Lookup(e.Key)
		p, err := reg.Factory(e.Key, e.Node, opts)
		if err != nil {
			return nil, err
		}
		if reg.Kind == KindCombiner {
			combiners = append(combiners, p)
		} else {
			classifiers = append(classifiers, p)
		}
	}
	return append(classifiers, combiners...), nil
}
