package document

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/better-releases/brel/pkg/brelerrors"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		path     string
		override Format
		want     Format
	}{
		{"package.json", "", FormatJSON},
		{"Cargo.toml", "", FormatTOML},
		{"sub/dir/MANIFEST.JSON", "", FormatJSON},
		{"Config.Toml", "", FormatTOML},
		{"version.txt", FormatTOML, FormatTOML},
		{"package.json", FormatTOML, FormatTOML},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := Detect(tt.path, tt.override)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := Detect("version.txt", "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, brelerrors.ErrFormatUndetected))
	assert.Contains(t, err.Error(), "`version.txt`")
	assert.Contains(t, err.Error(), "format_overrides")
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"json": FormatJSON, " TOML ": FormatTOML, "Json": FormatJSON} {
		got, err := ParseFormat(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParseFormat("yaml")
	assert.ErrorContains(t, err, "unsupported format `yaml`")
}

func TestJSONNode(t *testing.T) {
	doc, err := ParseJSON("a.json", []byte(`{"s":"x","n":1.5,"b":true,"z":null,"a":[1,"two"],"o":{}}`))
	require.NoError(t, err)
	root := doc.Node()

	assert.Equal(t, KindMapping, root.Kind())
	assert.Equal(t, 6, root.Len())

	typeNames := map[string]string{"s": "string", "n": "number", "b": "boolean", "z": "null", "a": "array", "o": "object"}
	for key, want := range typeNames {
		child, ok := root.Lookup(key)
		require.True(t, ok, key)
		assert.Equal(t, want, child.TypeName(), key)
	}

	arr, _ := root.Lookup("a")
	assert.Equal(t, KindSequence, arr.Kind())
	second, ok := arr.At(1)
	require.True(t, ok)
	s, ok := second.Str()
	assert.True(t, ok)
	assert.Equal(t, "two", s)

	_, ok = arr.At(2)
	assert.False(t, ok)
	_, ok = arr.At(-1)
	assert.False(t, ok)
	_, ok = arr.Lookup("x")
	assert.False(t, ok)
	_, ok = root.At(0)
	assert.False(t, ok)
	_, ok = root.Lookup("missing")
	assert.False(t, ok)
}

func TestTOMLNode(t *testing.T) {
	doc, err := ParseTOML("a.toml", []byte(`
s = "x"
i = 3
f = 1.5
b = false
d = 1979-05-27
dt = 1979-05-27T07:32:00Z
arr = [1, 2]

[t]
k = "v"
`))
	require.NoError(t, err)
	root := doc.Node()

	typeNames := map[string]string{
		"s": "string", "i": "integer", "f": "float", "b": "boolean",
		"d": "date", "dt": "datetime", "arr": "array", "t": "table",
	}
	for key, want := range typeNames {
		child, ok := root.Lookup(key)
		require.True(t, ok, key)
		assert.Equal(t, want, child.TypeName(), key)
	}

	table, _ := root.Lookup("t")
	assert.Equal(t, KindMapping, table.Kind())
	v, _ := table.Lookup("k")
	s, ok := v.Str()
	assert.True(t, ok)
	assert.Equal(t, "v", s)
}

func TestParseErrors(t *testing.T) {
	_, err := Parse("a.toml", FormatTOML, []byte("a = 1\nb = \n"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, brelerrors.ErrDocumentParse))

	var fileErr *brelerrors.FileError
	require.True(t, errors.As(err, &fileErr))
	assert.Equal(t, "a.toml", fileErr.Path)
	assert.Equal(t, 2, fileErr.Line)

	_, err = Parse("a.json", FormatJSON, []byte(`{"a": }`))
	assert.True(t, errors.Is(err, brelerrors.ErrDocumentParse))

	_, err = Parse("a.yaml", Format("yaml"), nil)
	assert.True(t, errors.Is(err, brelerrors.ErrFormatUndetected))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "scalar", KindScalar.String())
	assert.Equal(t, "sequence", KindSequence.String())
	assert.Equal(t, "mapping", KindMapping.String())
}
