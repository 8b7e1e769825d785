// Package catalog holds parsed schema specs, keyed by schema name. Each
// configured document is parsed at most once per Catalog; a broken document
// records its failure instead of blocking access to the other schemas.
//
// The catalog is an explicit object constructed by the caller and passed into
// the matcher and report builder. The lazy first build is guarded by
// sync.Once so a catalog shared across goroutines (e.g. when zip files are
// processed concurrently) is safe on concurrent first access.
package catalog

import (
	"odietl/internal/schemadoc"
	"sync"
)

// Registration configures one schema: where its document lives and the
// hand-maintained per-schema knowledge the report builder needs. The order of
// registrations is significant; it is the deterministic tie-break for
// matching.
type Registration struct {
	Name    string
	DocPath string

	// Overrides feed the document parser (optional columns, forced dates).
	Overrides schemadoc.Overrides

	// EnumOverrides replace a field's harvested codes wholesale.
	EnumOverrides map[string][]string

	// LengthOverrides permit legacy values longer than the documented size
	// without a hard error.
	LengthOverrides map[string]int
}

type entry struct {
	reg  Registration
	spec *schemadoc.Spec
	err  error
}

// Catalog caches parsed schema specs. Construct with New; the zero value is
// not usable.
type Catalog struct {
	entries []*entry
	byName  map[string]*entry
	once    sync.Once
}

// New returns a Catalog over the given registrations. Documents are not
// parsed until first use.
func New(regs []Registration) *Catalog {
	c := &Catalog{byName: make(map[string]*entry, len(regs))}
	for _, reg := range regs {
		e := &entry{reg: reg}
		c.entries = append(c.entries, e)
		c.byName[reg.Name] = e
	}
	return c
}

// build parses every registered document exactly once, recording per-schema
// failures without failing the build as a whole.
func (c *Catalog) build() {
	c.once.Do(func() {
		for _, e := range c.entries {
			e.spec, e.err = schemadoc.ParseFile(e.reg.DocPath, e.reg.Name, e.reg.Overrides)
		}
	})
}

// Names returns the schema names in registration order.
func (c *Catalog) Names() []string {
	out := make([]string, len(c.entries))
	for i, e := range c.entries {
		out[i] = e.reg.Name
	}
	return out
}

// Spec returns the parsed spec for name. A name that was never registered
// yields *schemadoc.LookupError; a registered schema whose document failed to
// parse re-yields the recorded *schemadoc.NotFoundError or
// *schemadoc.ParseError.
func (c *Catalog) Spec(name string) (*schemadoc.Spec, error) {
	c.build()
	e, ok := c.byName[name]
	if !ok {
		return nil, &schemadoc.LookupError{Schema: name, Available: c.available()}
	}
	if e.err != nil {
		return nil, e.err
	}
	return e.spec, nil
}

// Columns is a convenience returning the expected column names for name.
func (c *Catalog) Columns(name string) ([]string, error) {
	spec, err := c.Spec(name)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(spec.ExpectedColumns))
	copy(out, spec.ExpectedColumns)
	return out, nil
}

// EnumOverride returns the configured allowed values for a schema field, or
// nil when none is configured.
func (c *Catalog) EnumOverride(schema, field string) []string {
	e, ok := c.byName[schema]
	if !ok {
		return nil
	}
	return e.reg.EnumOverrides[field]
}

// LengthOverride returns the configured legacy maximum length for a schema
// field; ok is false when none is configured.
func (c *Catalog) LengthOverride(schema, field string) (int, bool) {
	e, ok := c.byName[schema]
	if !ok {
		return 0, false
	}
	n, ok := e.reg.LengthOverrides[field]
	return n, ok
}

// Failure describes one schema whose document could not be parsed.
type Failure struct {
	Schema string
	Err    error
}

// Failures lists schemas whose documents failed to parse, in registration
// order. It forces the lazy build.
func (c *Catalog) Failures() []Failure {
	c.build()
	var out []Failure
	for _, e := range c.entries {
		if e.err != nil {
			out = append(out, Failure{Schema: e.reg.Name, Err: e.err})
		}
	}
	return out
}

// available lists names of schemas that parsed successfully, in registration
// order (mirrors the "available" hint in lookup errors).
func (c *Catalog) available() []string {
	var out []string
	for _, e := range c.entries {
		if e.err == nil {
			out = append(out, e.reg.Name)
		}
	}
	return out
}
