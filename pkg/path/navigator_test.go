package path

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/better-releases/brel/pkg/brelerrors"
	"github.com/better-releases/brel/pkg/document"
)

func jsonRoot(t *testing.T, src string) document.Node {
	t.Helper()
	doc, err := document.ParseJSON("test.json", []byte(src))
	require.NoError(t, err)
	return doc.Node()
}

func tomlRoot(t *testing.T, src string) document.Node {
	t.Helper()
	doc, err := document.ParseTOML("test.toml", []byte(src))
	require.NoError(t, err)
	return doc.Node()
}

func TestResolve(t *testing.T) {
	const packages = `{
  "packages": [
    {"name": "brel", "version": "1.0.0"},
    {"name": "other", "version": "2.0.0"},
    {"version": "2.5.0"},
    {"name": "brel", "version": "3.0.0"}
  ],
  "meta": {"version": "0.1.0"}
}`

	tests := []struct {
		name     string
		selector string
		want     []Concrete
	}{
		{
			name:     "nested key",
			selector: "meta.version",
			want:     []Concrete{{Key("meta"), Key("version")}},
		},
		{
			name:     "index",
			selector: "packages[1].version",
			want:     []Concrete{{Key("packages"), Idx(1), Key("version")}},
		},
		{
			name:     "filter fans out and skips elements without the field",
			selector: "packages[name=brel].version",
			want: []Concrete{
				{Key("packages"), Idx(0), Key("version")},
				{Key("packages"), Idx(3), Key("version")},
			},
		},
	}

	root := jsonRoot(t, packages)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(root, MustParse(tt.selector))
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Resolve() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestResolveSoftDrops(t *testing.T) {
	root := jsonRoot(t, `{
  "packages": [
    {"name": "a", "meta": {"version": "1.0.0"}},
    {"name": "b"},
    {"name": "c", "meta": "flat"}
  ]
}`)

	t.Run("missing key in some elements", func(t *testing.T) {
		got, err := Resolve(root, MustParse("packages[name=a].meta.version"))
		require.NoError(t, err)
		assert.Equal(t, []Concrete{{Key("packages"), Idx(0), Key("meta"), Key("version")}}, got)
	})

	t.Run("non-mapping parent drops the branch", func(t *testing.T) {
		_, err := Resolve(root, MustParse("packages[name=c].meta.version"))
		assert.ErrorIs(t, err, brelerrors.ErrSelectorNoMatch)
	})

	t.Run("index out of range", func(t *testing.T) {
		_, err := Resolve(root, MustParse("packages[7].name"))
		assert.ErrorIs(t, err, brelerrors.ErrSelectorNoMatch)
	})

	t.Run("no element matches the filter", func(t *testing.T) {
		_, err := Resolve(root, MustParse("packages[name=zzz].name"))
		assert.ErrorIs(t, err, brelerrors.ErrSelectorNoMatch)
	})

	t.Run("missing top-level key", func(t *testing.T) {
		_, err := Resolve(jsonRoot(t, `{"name": "demo"}`), MustParse("version"))
		assert.ErrorIs(t, err, brelerrors.ErrSelectorNoMatch)
	})
}

func TestResolveHardFailures(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		selector string
		wantErr  error
		wantMsg  string
	}{
		{
			name:     "filter on a mapping",
			src:      `{"package": {"name": "brel", "version": "1.0.0"}}`,
			selector: "package[name=brel].version",
			wantErr:  brelerrors.ErrSelectorTypeMismatch,
			wantMsg:  "segment `package`",
		},
		{
			name:     "index on a string",
			src:      `{"packages": "nope"}`,
			selector: "packages[0].version",
			wantErr:  brelerrors.ErrSelectorTypeMismatch,
			wantMsg:  "expects an array, found string",
		},
		{
			name:     "filtered element is not an object",
			src:      `{"packages": [{"name": "brel"}, "loose"]}`,
			selector: "packages[name=brel].name",
			wantErr:  brelerrors.ErrSelectorTypeMismatch,
			wantMsg:  "element [1] is string",
		},
		{
			name:     "filter field is not a string",
			src:      `{"packages": [{"name": 1, "version": "1.0.0"}]}`,
			selector: "packages[name=1].version",
			wantErr:  brelerrors.ErrSelectorTypeMismatch,
			wantMsg:  "field `name` of element [0] is number",
		},
		{
			name:     "leaf is an object",
			src:      `{"version": {"major": 1}}`,
			selector: "version",
			wantErr:  brelerrors.ErrNonStringTarget,
			wantMsg:  "non-string value (object)",
		},
		{
			name:     "leaf is a number",
			src:      `{"version": 2}`,
			selector: "version",
			wantErr:  brelerrors.ErrNonStringTarget,
			wantMsg:  "non-string value (number)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Resolve(jsonRoot(t, tt.src), MustParse(tt.selector))
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestResolveTOML(t *testing.T) {
	root := tomlRoot(t, `
[package]
name = "brel"
version = "1.0.0"

[[bin]]
name = "brel"
version = "1.0.0"

[[bin]]
name = "helper"
version = 3
`)

	got, err := Resolve(root, MustParse("bin[name=brel].version"))
	require.NoError(t, err)
	assert.Equal(t, []Concrete{{Key("bin"), Idx(0), Key("version")}}, got)

	_, err = Resolve(root, MustParse("bin[name=helper].version"))
	assert.ErrorIs(t, err, brelerrors.ErrNonStringTarget)
	assert.Contains(t, err.Error(), "(integer)")

	_, err = Resolve(root, MustParse("package[0].version"))
	assert.ErrorIs(t, err, brelerrors.ErrSelectorTypeMismatch)
	assert.Contains(t, err.Error(), "found table")
}

func TestConcrete(t *testing.T) {
	p := Concrete{Key("packages"), Idx(1), Key("version")}
	assert.Equal(t, "packages[1].version", p.String())

	extended := p[:1].Extend(Idx(2))
	assert.Equal(t, "packages[2]", extended.String())
	assert.Equal(t, "packages[1].version", p.String())

	assert.Equal(t, -1, Compare(Concrete{Key("a")}, Concrete{Key("b")}))
	assert.Equal(t, -1, Compare(Concrete{Key("a"), Idx(2)}, Concrete{Key("a"), Idx(10)}))
	assert.Equal(t, -1, Compare(Concrete{Key("a")}, Concrete{Key("a"), Idx(0)}))
	assert.Equal(t, 1, Compare(Concrete{Idx(0)}, Concrete{Key("a")}))
	assert.Equal(t, 0, Compare(Concrete{Key("a"), Idx(1)}, Concrete{Key("a"), Idx(1)}))
}

func TestNormalizeDeduplicates(t *testing.T) {
	got := normalize([]Concrete{
		{Key("b")},
		{Key("a"), Idx(1)},
		{Key("b")},
		{Key("a"), Idx(0)},
	})
	assert.Equal(t, []Concrete{{Key("a"), Idx(0)}, {Key("a"), Idx(1)}, {Key("b")}}, got)
}
