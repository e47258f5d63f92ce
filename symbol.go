package cbor

import "strings"

// Symbol is the domain carrier for CBOR tag 39 (identifier).
// clj-cbor's reader treats a tag-39 string as a Clojure symbol, unless its
// first character is ":" in which case it denotes a keyword; Symbol and
// Keyword below mirror that split as two distinct Go types rather than one
// type with a boolean flag, so the registry's type-keyed write-handler
// lookup can tell them apart without inspecting field values.
type Symbol struct {
	// Namespace is the portion of the identifier before a "/" separator, if
	// any (clj-cbor identifiers may be namespace-qualified, e.g. "ns/name").
	Namespace string
	Name      string
}

// Keyword is a Symbol with clj-cbor's leading-colon keyword marker.
type Keyword struct {
	Namespace string
	Name      string
}

func splitIdentifier(s string) (namespace, name string) {
	if idx := strings.IndexByte(s, '/'); idx >= 0 && idx < len(s)-1 {
		return s[:idx], s[idx+1:]
	}
	return "", s
}

// ParseIdentifier decodes the tag-39 wire string into a Symbol or a
// Keyword: a leading ':' denotes a keyword-style identifier, otherwise a
// plain symbol.
func ParseIdentifier(wire string) any {
	if strings.HasPrefix(wire, ":") {
		ns, name := splitIdentifier(wire[1:])
		return Keyword{Namespace: ns, Name: name}
	}
	ns, name := splitIdentifier(wire)
	return Symbol{Namespace: ns, Name: name}
}

// identifier renders a Symbol or Keyword back to its tag-39 wire string.
func (s Symbol) identifier() string {
	if s.Namespace != "" {
		return s.Namespace + "/" + s.Name
	}
	return s.Name
}

func (k Keyword) identifier() string {
	if k.Namespace != "" {
		return ":" + k.Namespace + "/" + k.Name
	}
	return ":" + k.Name
}

func (s Symbol) String() string  { return s.identifier() }
func (k Keyword) String() string { return k.identifier() }
