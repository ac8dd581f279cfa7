package domain

import (
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/recon/internal/build"
	"go.trai.ch/zerr"
)

// DefaultLibDir is where generated artifacts go when nothing else is configured.
const DefaultLibDir = ".recon/cache"

// LanguageRevision selects the source language semantics.
type LanguageRevision int

const (
	// RevisionUnset means the revision is not resolved yet.
	RevisionUnset LanguageRevision = iota
	// RevisionLegacy keeps floor division between integers.
	RevisionLegacy
	// RevisionCurrent uses true division.
	RevisionCurrent
)

// ParseRevision accepts the names and numeric levels used on the command line
// and in recon.yaml.
func ParseRevision(s string) (LanguageRevision, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "legacy", "2":
		return RevisionLegacy, nil
	case "current", "3", "3str":
		return RevisionCurrent, nil
	default:
		return RevisionUnset, zerr.With(zerr.Wrap(ErrUnknownRevision, "invalid configuration"), "revision", s)
	}
}

func (r LanguageRevision) String() string {
	switch r {
	case RevisionLegacy:
		return "legacy"
	case RevisionCurrent:
		return "current"
	default:
		return "unset"
	}
}

// DirectiveKind is the value kind a directive accepts.
type DirectiveKind int

const (
	// DirectiveBool accepts true or false.
	DirectiveBool DirectiveKind = iota
	// DirectiveEnum accepts one of a fixed list of names.
	DirectiveEnum
)

type directiveSpec struct {
	kind    DirectiveKind
	def     string
	choices []string
}

// directiveTable is the closed set of recognized directives.
var directiveTable = map[string]directiveSpec{
	"boundscheck":       {kind: DirectiveBool, def: "true"},
	"wraparound":        {kind: DirectiveBool, def: "true"},
	"cdivision":         {kind: DirectiveBool, def: "false"},
	"nonecheck":         {kind: DirectiveBool, def: "false"},
	"initializedcheck":  {kind: DirectiveBool, def: "true"},
	"infer_types":       {kind: DirectiveBool, def: "false"},
	"embedsignature":    {kind: DirectiveBool, def: "false"},
	"binding":           {kind: DirectiveBool, def: "false"},
	"c_string_type":     {kind: DirectiveEnum, def: "bytes", choices: []string{"bytes", "str", "unicode"}},
	"c_string_encoding": {kind: DirectiveEnum, def: "default", choices: []string{"ascii", "utf8", "default"}},
}

// DirectiveNames returns every recognized directive name in lexical order.
func DirectiveNames() []string {
	return slices.Sorted(maps.Keys(directiveTable))
}

// Directives is a fully resolved directive table. The zero value holds defaults.
type Directives struct {
	set map[string]string
}

// NewDirectives validates raw values against the recognized set.
// Values may be Go bools or strings; strings are matched case-insensitively.
func NewDirectives(raw map[string]any) (Directives, error) {
	d := Directives{}
	for name, value := range raw {
		var err error
		d, err = d.With(name, value)
		if err != nil {
			return Directives{}, err
		}
	}
	return d, nil
}

// With returns a copy of d with name set to value.
func (d Directives) With(name string, value any) (Directives, error) {
	spec, ok := directiveTable[name]
	if !ok {
		return Directives{}, zerr.With(zerr.Wrap(ErrUnknownDirective, "invalid configuration"), "directive", name)
	}

	normalized, err := normalizeDirective(spec, value)
	if err != nil {
		return Directives{}, zerr.With(zerr.With(zerr.Wrap(err, "invalid configuration"), "directive", name), "value", value)
	}

	next := Directives{set: make(map[string]string, len(d.set)+1)}
	maps.Copy(next.set, d.set)
	next.set[name] = normalized
	return next, nil
}

func normalizeDirective(spec directiveSpec, value any) (string, error) {
	switch spec.kind {
	case DirectiveBool:
		switch v := value.(type) {
		case bool:
			return strconv.FormatBool(v), nil
		case string:
			b, err := strconv.ParseBool(strings.ToLower(strings.TrimSpace(v)))
			if err != nil {
				return "", ErrInvalidDirectiveValue
			}
			return strconv.FormatBool(b), nil
		}
	case DirectiveEnum:
		if v, ok := value.(string); ok {
			v = strings.ToLower(strings.TrimSpace(v))
			if slices.Contains(spec.choices, v) {
				return v, nil
			}
		}
	}
	return "", ErrInvalidDirectiveValue
}

// Value returns the resolved value of name, falling back to its default.
func (d Directives) Value(name string) string {
	if v, ok := d.set[name]; ok {
		return v
	}
	return directiveTable[name].def
}

// Bool returns a boolean directive.
func (d Directives) Bool(name string) bool {
	return d.Value(name) == "true"
}

// Overrides returns the directives that differ from their defaults.
func (d Directives) Overrides() map[string]string {
	out := make(map[string]string)
	for name, v := range d.set {
		if v != directiveTable[name].def {
			out[name] = v
		}
	}
	return out
}

// String renders every directive as name=value, sorted by name.
func (d Directives) String() string {
	names := DirectiveNames()
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = name + "=" + d.Value(name)
	}
	return strings.Join(parts, ",")
}

// Configuration is the closed set of options a build runs under.
type Configuration struct {
	Revision   LanguageRevision
	Directives Directives
	// SearchPath lists extra directories for resolving includes and cimports.
	SearchPath []string
	// LibDir holds generated artifacts.
	LibDir string
	// Force bypasses every cache and always rebuilds.
	Force bool
	// Quiet suppresses per-module diagnostics.
	Quiet bool
	// NativeCommand is the optional external compile step run over each unit.
	NativeCommand []string
}

// DefaultConfiguration returns the configuration used when nothing is set.
func DefaultConfiguration() Configuration {
	return Configuration{
		Revision: RevisionCurrent,
		LibDir:   DefaultLibDir,
	}
}

// Fingerprint covers the revision, every directive, the native command and
// the tool version. LibDir, Force, Quiet and SearchPath do not change
// generated output.
func (c Configuration) Fingerprint() ConfigFingerprint {
	h := xxhash.New()
	_, _ = h.WriteString("revision=")
	_, _ = h.WriteString(c.EffectiveRevision().String())
	_, _ = h.Write([]byte{0})
	_, _ = h.WriteString(c.Directives.String())
	_, _ = h.Write([]byte{0})
	for _, arg := range c.NativeCommand {
		_, _ = h.WriteString(arg)
		_, _ = h.Write([]byte{1})
	}
	_, _ = h.Write([]byte{0})
	_, _ = h.WriteString(build.Version)
	return ConfigFingerprint(h.Sum64())
}

// ResolveModule tags m with the configured revision when it has none.
func (c Configuration) ResolveModule(m Module) Module {
	if m.Revision == RevisionUnset {
		m.Revision = c.EffectiveRevision()
	}
	return m
}

// EffectiveRevision returns the configured revision, RevisionCurrent when unset.
func (c Configuration) EffectiveRevision() LanguageRevision {
	if c.Revision == RevisionUnset {
		return RevisionCurrent
	}
	return c.Revision
}
