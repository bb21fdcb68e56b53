package interest_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/campus-match/internal/interest"
)

func TestExpandCategory(t *testing.T) {
	tax := interest.Default()

	got := tax.Expand([]string{"theatre"})
	require.Len(t, got, 7)
	assert.Equal(t, "theatre", got[0])
	assert.Equal(t, []string{
		"theatre:musical", "theatre:opera", "theatre:ballet",
		"theatre:comedy", "theatre:drama", "theatre:improv",
	}, got[1:])
}

func TestExpandDeduplicatesCaseInsensitively(t *testing.T) {
	tax := interest.Default()
	assert.Equal(t, tax.Expand([]string{"theatre"}), tax.Expand([]string{"Theatre", "theatre"}))
	assert.Equal(t, tax.Expand([]string{"theatre"}), tax.Expand([]string{"theatre", "THEATRE:Opera"}))
}

func TestExpandKeepsQualifiedAndUnknownTokens(t *testing.T) {
	tax := interest.Default()

	got := tax.Expand([]string{"movie:Drama", "knitting", "knitting", "  "})
	assert.Equal(t, []string{"movie:Drama", "knitting"}, got)

	// qualified tokens are not validated against the taxonomy
	assert.Equal(t, []string{"movie:westerns"}, tax.Expand([]string{"movie:westerns"}))
}

func TestExpandEmpty(t *testing.T) {
	assert.Empty(t, interest.Default().Expand(nil))
}

func TestIsValid(t *testing.T) {
	tax := interest.Default()

	assert.True(t, tax.IsValid("movie"))
	assert.True(t, tax.IsValid("MOVIE"))
	assert.True(t, tax.IsValid("movie:drama"))
	assert.True(t, tax.IsValid("Theatre:Opera"))
	assert.False(t, tax.IsValid("movie:opera"))
	assert.False(t, tax.IsValid("knitting"))
	assert.False(t, tax.IsValid("knitting:socks"))
	assert.False(t, tax.IsValid(""))
}

func TestSubcategoriesReturnsCopy(t *testing.T) {
	tax := interest.Default()
	subs := tax.Subcategories("movie")
	require.NotEmpty(t, subs)
	subs[0] = "mutated"
	assert.NotEqual(t, "mutated", tax.Subcategories("movie")[0])
	assert.Nil(t, tax.Subcategories("knitting"))
}

func TestLoadRejectsBadDocuments(t *testing.T) {
	cases := map[string]string{
		"duplicate":     "categories:\n  - name: a\n  - name: A\n",
		"empty name":    "categories:\n  - name: ''\n",
		"separator":     "categories:\n  - name: 'a:b'\n",
		"bad sub":       "categories:\n  - name: a\n    subcategories: ['x:y']\n",
		"not yaml list": "categories: 3\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := interest.Load(strings.NewReader(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tax.yaml")
	doc := "categories:\n  - name: Chess\n    subcategories: [Blitz, blitz, classical]\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	tax, err := interest.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"chess"}, tax.Categories())
	assert.Equal(t, []string{"chess", "chess:blitz", "chess:classical"}, tax.Expand([]string{"CHESS"}))

	def, err := interest.LoadFile("")
	require.NoError(t, err)
	assert.Same(t, interest.Default(), def)

	_, err = interest.LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestSetHelpers(t *testing.T) {
	a := interest.NewSet(interest.Default().Expand([]string{"movie"}))
	b := interest.NewSet(interest.Default().Expand([]string{"movie:Drama"}))

	assert.Equal(t, 1, a.Overlap(b))
	assert.Equal(t, 1, b.Overlap(a))
	assert.True(t, a.Has("MOVIE:drama"))

	assert.Equal(t, []string{"a", "b:c"}, interest.ParseList(" a, ,b:c "))
	assert.Nil(t, interest.ParseList(""))
	assert.Equal(t, "a,b:c", interest.JoinList([]string{"a", "b:c"}))
	assert.Equal(t, []string{"food", "food:cafe", "food:vegan"},
		interest.LocationTokens("Food", []string{"cafe", "food:Vegan", ""}))
}
