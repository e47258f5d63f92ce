package cbor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseIdentifierPlainSymbol(t *testing.T) {
	v := ParseIdentifier("foo")
	sym, ok := v.(Symbol)
	assert.True(t, ok)
	assert.Equal(t, "", sym.Namespace)
	assert.Equal(t, "foo", sym.Name)
}

func TestParseIdentifierNamespacedSymbol(t *testing.T) {
	v := ParseIdentifier("ns/foo")
	sym := v.(Symbol)
	assert.Equal(t, "ns", sym.Namespace)
	assert.Equal(t, "foo", sym.Name)
}

func TestParseIdentifierKeyword(t *testing.T) {
	v := ParseIdentifier(":bar")
	kw := v.(Keyword)
	assert.Equal(t, "", kw.Namespace)
	assert.Equal(t, "bar", kw.Name)
}

func TestParseIdentifierNamespacedKeyword(t *testing.T) {
	v := ParseIdentifier(":ns/bar")
	kw := v.(Keyword)
	assert.Equal(t, "ns", kw.Namespace)
	assert.Equal(t, "bar", kw.Name)
}

func TestIdentifierRoundTripsThroughWireForm(t *testing.T) {
	sym := Symbol{Namespace: "ns", Name: "foo"}
	assert.Equal(t, "ns/foo", sym.identifier())
	assert.Equal(t, sym, ParseIdentifier(sym.identifier()))

	kw := Keyword{Namespace: "ns", Name: "bar"}
	assert.Equal(t, ":ns/bar", kw.identifier())
	assert.Equal(t, kw, ParseIdentifier(kw.identifier()))
}

func TestSymbolAndKeywordString(t *testing.T) {
	assert.Equal(t, "foo", Symbol{Name: "foo"}.String())
	assert.Equal(t, ":foo", Keyword{Name: "foo"}.String())
}
