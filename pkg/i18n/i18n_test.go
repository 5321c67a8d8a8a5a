package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_BuiltinCatalogs(t *testing.T) {
	tr, err := New("en")
	require.NoError(t, err)
	assert.Equal(t, []string{"en", "it"}, tr.Locales())
	assert.Equal(t, "en", tr.Locale())
	assert.Equal(t, "The record has no name or title", tr.T("errors.invalidRecord"))
}

func TestSetLocale(t *testing.T) {
	tr, err := New("it-IT")
	require.NoError(t, err)
	assert.Equal(t, "it", tr.Locale())

	assert.False(t, tr.SetLocale("fr"))
	assert.Equal(t, FallbackLocale, tr.Locale())

	assert.True(t, tr.SetLocale("IT"))
	assert.Equal(t, "it", tr.Locale())
}

func TestT_Fallbacks(t *testing.T) {
	tr, err := New("it")
	require.NoError(t, err)

	assert.Equal(t, "Il record non ha nome né titolo", tr.T("errors.invalidRecord"))
	assert.Equal(t, "Rendered {{ok}} of {{total}} records", tr.T("notices.batchDone"), "missing italian entry falls back to english")
	assert.Equal(t, "errors.nope", tr.T("errors.nope"))
	assert.Equal(t, "errors", tr.T("errors"), "non leaf keys are not messages")
}

func TestTf(t *testing.T) {
	tr, err := New("en")
	require.NoError(t, err)

	got := tr.Tf("errors.templateReadFailed", map[string]string{"path": "Templates/Movie.md"})
	assert.Equal(t, "Failed to read the note template 'Templates/Movie.md'", got)

	require.NoError(t, tr.Load("en", []byte("greeting: \"Hello {{ name }}, {{name}}!\"\n")))
	assert.Equal(t, "Hello $1, $1!", tr.Tf("greeting", map[string]string{"name": "$1"}))
}

func TestLoad_Invalid(t *testing.T) {
	tr, err := New("en")
	require.NoError(t, err)
	assert.Error(t, tr.Load("xx", []byte("a: [")))
}
