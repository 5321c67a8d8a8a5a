package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"movie-note-core/pkg/database"
	"movie-note-core/pkg/errors"
	"movie-note-core/pkg/filter"
	"movie-note-core/pkg/model"
	"movie-note-core/pkg/vault"
)

func TestParseFilter(t *testing.T) {
	f, err := parseFilter("")
	require.NoError(t, err)
	assert.Equal(t, filter.Filter{}, f)

	f, err = parseFilter(`{"excludedPrefixes": ["Archive/"], "onlyWithPlaceholders": true}`)
	require.NoError(t, err)
	assert.Equal(t, filter.Filter{ExcludedPrefixes: []string{"Archive/"}, OnlyWithPlaceholders: true}, f)

	_, err = parseFilter(`{"excludedPrefixes":`)
	assert.True(t, errors.IsErrorCode(err, errors.ErrDecode))
}

func TestTemplateAndFolderFor(t *testing.T) {
	viper.Set("templates.movie", "Templates/Movie.md")
	viper.Set("folders.movie", "Movies/{{release_date}}")
	t.Cleanup(func() {
		viper.Set("templates.movie", "")
		viper.Set("folders.movie", "")
	})

	assert.Equal(t, "Templates/Movie.md", templateFor(model.KindMovie, ""))
	assert.Equal(t, "movie", templateFor(model.KindMovie, "movie"))
	assert.Equal(t, "", templateFor(model.KindGeneric, ""))

	assert.Equal(t, "Movies/{{release_date}}", folderFor(model.KindMovie, ""))
	assert.Equal(t, "Watchlist", folderFor(model.KindMovie, "Watchlist"))
}

func TestEnsureCollectionNote(t *testing.T) {
	dir := t.TempDir()
	db, err := database.InitializeDB(filepath.Join(dir, "notes.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, os.Mkdir(filepath.Join(dir, "vault"), 0755))
	v, err := vault.Open(filepath.Join(dir, "vault"))
	require.NoError(t, err)
	tr := newTranslator()

	viper.Set("folders.collection", "Collections")
	t.Cleanup(func() {
		viper.Set("folders.collection", "")
		viper.Set("collections.auto-create", true)
	})

	viper.Set("collections.auto-create", false)
	assert.Nil(t, newCollectionNotes(db, v, tr))
	viper.Set("collections.auto-create", true)
	notes := newCollectionNotes(db, v, tr)
	require.NotNil(t, notes)

	alien := model.Movie{Title: "Alien", CollectionID: "8091"}.ToRecord()
	assert.Nil(t, ensureCollectionNote(db, notes, tr, alien), "collection not imported yet")

	collection, err := model.Decode(model.KindCollection, []byte(`{"id": 8091, "name": "Alien Collection", "parts": [348, 679]}`))
	require.NoError(t, err)
	_, err = database.SaveRecord(db, string(model.KindCollection), collection)
	require.NoError(t, err)

	res := ensureCollectionNote(db, notes, tr, alien)
	require.NotNil(t, res)
	assert.False(t, res.Skipped)
	assert.Equal(t, "Collections/Alien Collection.md", res.OutputPath)
	content, err := os.ReadFile(filepath.Join(dir, "vault", "Collections", "Alien Collection.md"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "name: Alien Collection")

	history, err := database.ListRenders(db, "Alien Collection", 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "Collections/Alien Collection.md", history[0].OutputPath)

	res = ensureCollectionNote(db, notes, tr, model.Movie{Title: "Aliens", CollectionID: "8091"}.ToRecord())
	require.NotNil(t, res)
	assert.True(t, res.Skipped)
	history, err = database.ListRenders(db, "Alien Collection", 0)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}
