package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/invopop/jsonschema"
)

// Version is a package version. Hosts encode it either as a plain string or
// as {"epoch": N, "version": "..."}; MarshalJSON writes back whichever form
// was decoded.
type Version struct {
	Epoch  int
	Number string
	object bool
}

// NewVersion returns a version in the plain string form.
func NewVersion(s string) Version {
	return Version{Number: s}
}

// EpochVersion returns a version in the object form.
func EpochVersion(epoch int, number string) Version {
	return Version{Epoch: epoch, Number: number, object: true}
}

// IsZero reports whether no version was given.
func (v Version) IsZero() bool {
	return v.Number == "" && v.Epoch == 0
}

// String renders the version for display. A non-zero epoch is prefixed as
// "N:".
func (v Version) String() string {
	if v.Epoch != 0 {
		return strconv.Itoa(v.Epoch) + ":" + v.Number
	}
	return v.Number
}

// MarshalJSON implements json.Marshaler.
func (v Version) MarshalJSON() ([]byte, error) {
	if !v.object {
		return json.Marshal(v.Number)
	}
	return json.Marshal(struct {
		Epoch   int    `json:"epoch"`
		Version string `json:"version"`
	}{v.Epoch, v.Number})
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Version) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = NewVersion(s)
		return nil
	}
	var obj struct {
		Epoch   int    `json:"epoch"`
		Version string `json:"version"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("version must be a string or object: %w", err)
	}
	*v = EpochVersion(obj.Epoch, obj.Version)
	return nil
}

// JSONSchema describes both accepted wire forms.
func (Version) JSONSchema() *jsonschema.Schema {
	obj := &jsonschema.Schema{
		Type:       "object",
		Properties: jsonschema.NewProperties(),
		Required:   []string{"version"},
	}
	obj.Properties.Set("epoch", &jsonschema.Schema{Type: "integer"})
	obj.Properties.Set("version", &jsonschema.Schema{Type: "string"})
	return &jsonschema.Schema{
		OneOf: []*jsonschema.Schema{{Type: "string"}, obj},
	}
}

// PackageIdentifier is the identity key for changeset and installed-package
// comparisons. It is comparable and used directly as a map key.
type PackageIdentifier struct {
	Identifier string  `json:"identifier" jsonschema:"required,minLength=1"`
	Version    Version `json:"version" jsonschema:"required"`
}

func (id PackageIdentifier) String() string {
	if id.Version.IsZero() {
		return id.Identifier
	}
	return id.Identifier + "@" + id.Version.String()
}

// ParseIdentifier parses "Identifier@version". The version part is optional.
func ParseIdentifier(s string) PackageIdentifier {
	name, version, _ := strings.Cut(s, "@")
	return PackageIdentifier{Identifier: name, Version: NewVersion(version)}
}

// Matches reports whether id names the same package version as other,
// regardless of which wire form either version came in.
func (id PackageIdentifier) Matches(other PackageIdentifier) bool {
	return id.Identifier == other.Identifier && id.Version.String() == other.Version.String()
}

// Package describes one installable package. Fields the console does not
// interpret are kept in Extra and written back unchanged.
type Package struct {
	Identifier PackageIdentifier          `json:"identifier" jsonschema:"required"`
	Name       string                     `json:"name" jsonschema:"required"`
	Author     []string                   `json:"author"`
	Extra      map[string]json.RawMessage `json:"-"`
}

var packageKnownKeys = []string{"identifier", "name", "author"}

// UnmarshalJSON implements json.Unmarshaler, preserving unknown fields.
func (p *Package) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	type plain Package
	var decoded plain
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	*p = Package(decoded)

	for _, k := range packageKnownKeys {
		delete(fields, k)
	}
	if len(fields) > 0 {
		p.Extra = fields
	} else {
		p.Extra = nil
	}
	return nil
}

// MarshalJSON implements json.Marshaler, re-emitting unknown fields.
func (p Package) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(p.Extra)+3)
	for k, v := range p.Extra {
		out[k] = v
	}
	out["identifier"] = p.Identifier
	out["name"] = p.Name
	author := p.Author
	if author == nil {
		author = []string{}
	}
	out["author"] = author
	return json.Marshal(out)
}

// Authors returns the author list joined for display.
func (p Package) Authors() string {
	return strings.Join(p.Author, ", ")
}

// IdentifierSet is a set of package identifiers.
type IdentifierSet map[PackageIdentifier]struct{}

// NewIdentifierSet builds a set from the identifiers of pkgs.
func NewIdentifierSet(pkgs []Package) IdentifierSet {
	set := make(IdentifierSet, len(pkgs))
	for _, p := range pkgs {
		set[p.Identifier] = struct{}{}
	}
	return set
}

// Has reports whether id is in the set.
func (s IdentifierSet) Has(id PackageIdentifier) bool {
	_, ok := s[id]
	return ok
}

// HasIdentifier reports whether any version of the named package is in the set.
func (s IdentifierSet) HasIdentifier(identifier string) bool {
	for id := range s {
		if id.Identifier == identifier {
			return true
		}
	}
	return false
}
