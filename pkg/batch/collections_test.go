package batch

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"movie-note-core/pkg/model"
	"movie-note-core/pkg/record"
	"movie-note-core/pkg/vault"
)

func TestCollectionID(t *testing.T) {
	tests := []struct {
		name  string
		movie *record.Record
		want  int64
	}{
		{"movie in a collection", model.Movie{Title: "Alien", CollectionID: "8091"}.ToRecord(), 8091},
		{"movie without collection", model.Movie{Title: "Heat"}.ToRecord(), 0},
		{"numeric field", record.FromFields(record.Field{Key: "collection_id", Value: record.Int(10)}), 10},
		{"not a number", record.FromFields(record.Field{Key: "collection_id", Value: record.String("abc")}), 0},
		{"missing field", record.New(), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CollectionID(tt.movie))
		})
	}
}

func newCollectionNotes(v *vault.Vault, stored map[int64]*record.Record) CollectionNotes {
	return CollectionNotes{
		Renderer: slowRenderer{},
		Notes:    v,
		Find: func(id int64) (*record.Record, error) {
			return stored[id], nil
		},
		Folder: "Collections",
	}
}

func TestCollectionNotes_Ensure(t *testing.T) {
	v := vault.New(afero.NewMemMapFs())
	quadrilogy := model.Collection{ID: 8091, Name: "Alien Collection", Parts: []int64{348, 679}}.ToRecord()
	notes := newCollectionNotes(v, map[int64]*record.Record{8091: quadrilogy})
	alien := model.Movie{Title: "Alien", CollectionID: "8091"}.ToRecord()

	res, err := notes.Ensure(context.Background(), alien)
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.False(t, res.Skipped)
	assert.Equal(t, "Alien Collection", res.Name)
	assert.Equal(t, "Collections/Alien Collection.md", res.OutputPath)
	assert.Equal(t, "collection:8091", res.Source)
	assert.Positive(t, res.SizeBytes)
	content, err := afero.ReadFile(v.Fs(), "/Collections/Alien Collection.md")
	require.NoError(t, err)
	assert.Equal(t, "# Alien Collection\n", string(content))

	require.NoError(t, v.WriteNote("Collections/Alien Collection.md", "mine"))
	res, err = notes.Ensure(context.Background(), model.Movie{Title: "Aliens", CollectionID: "8091"}.ToRecord())
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.True(t, res.Skipped)
	content, err = afero.ReadFile(v.Fs(), "/Collections/Alien Collection.md")
	require.NoError(t, err)
	assert.Equal(t, "mine", string(content))
}

func TestCollectionNotes_EnsureNothingToDo(t *testing.T) {
	v := vault.New(afero.NewMemMapFs())
	notes := newCollectionNotes(v, nil)

	res, err := notes.Ensure(context.Background(), model.Movie{Title: "Heat"}.ToRecord())
	require.NoError(t, err)
	assert.Nil(t, res)

	res, err = notes.Ensure(context.Background(), model.Movie{Title: "Alien", CollectionID: "8091"}.ToRecord())
	require.NoError(t, err)
	assert.Nil(t, res, "collection was never imported")

	notes.Find = func(id int64) (*record.Record, error) { return nil, stderrors.New("db closed") }
	_, err = notes.Ensure(context.Background(), model.Movie{Title: "Alien", CollectionID: "8091"}.ToRecord())
	assert.EqualError(t, err, "db closed")
}
