package dotpath

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_EmptyStringIsZeroSegmentPath(t *testing.T) {
	p, err := Parse("")
	require.NoError(t, err)
	assert.True(t, p.IsEmpty())
	assert.Equal(t, 0, p.Len())
	assert.Equal(t, "", p.String())
}

func TestParse_ClassifiesSegments(t *testing.T) {
	p, err := Parse("users.0.address.*")
	require.NoError(t, err)
	require.Equal(t, 4, p.Len())
	assert.Equal(t, Literal("users"), p.At(0))
	assert.Equal(t, Index(0), p.At(1))
	assert.Equal(t, Literal("address"), p.At(2))
	assert.Equal(t, Wildcard(), p.At(3))
}

func TestParse_MalformedPaths(t *testing.T) {
	for _, raw := range []string{".a", "a.", "a..b", ".", ".."} {
		_, err := Parse(raw)
		assert.ErrorIs(t, err, ErrPathSyntax, "path %q", raw)
	}
}

func TestParse_DeepWildcards(t *testing.T) {
	p, err := Parse("a.*.b.*.c")
	require.NoError(t, err)
	assert.True(t, p.HasWildcard())
	assert.Equal(t, 2, p.WildcardCount())
}

func TestParse_RoundTripsRawText(t *testing.T) {
	for _, raw := range []string{"a", "a.b.c", "a.0.b", "*", "a.*.b", ""} {
		p, err := Parse(raw)
		require.NoError(t, err)
		assert.Equal(t, raw, p.String())
	}
}

func TestPath_ChildAndJoin(t *testing.T) {
	p := MustParse("a.b")
	q := p.Child(Index(3))
	assert.Equal(t, "a.b.3", q.String())
	// Child copies; the original stays two segments.
	assert.Equal(t, 2, p.Len())

	r := p.Join(MustParse("x.y"))
	assert.Equal(t, "a.b.x.y", r.String())
}

func TestPath_ReplaceWildcard(t *testing.T) {
	p := MustParse("a.*.b")
	assert.Equal(t, "a.7.b", p.ReplaceWildcard(Index(7)).String())
	// Only the first wildcard is replaced.
	d := MustParse("a.*.*")
	assert.Equal(t, "a.k.*", d.ReplaceWildcard(Literal("k")).String())
	// No wildcard: unchanged.
	n := MustParse("a.b")
	assert.Equal(t, "a.b", n.ReplaceWildcard(Index(0)).String())
}

func TestSegment_String(t *testing.T) {
	assert.Equal(t, "name", Literal("name").String())
	assert.Equal(t, "12", Index(12).String())
	assert.Equal(t, "*", Wildcard().String())
}

func TestParse_HugeDigitRunStaysLiteral(t *testing.T) {
	p, err := Parse("a.99999999999999999999999999")
	require.NoError(t, err)
	assert.Equal(t, KindLiteral, p.At(1).Kind)
}
