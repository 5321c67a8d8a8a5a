package batch

import (
	"context"
	"strconv"
	"strings"

	"movie-note-core/pkg/record"
	"movie-note-core/pkg/vault"
)

// CollectionNotes creates the note of the collection a movie belongs to
// when the vault does not have one yet.
type CollectionNotes struct {
	Renderer Renderer
	Notes    NoteStore
	Namer    vault.Namer

	// Find returns the stored collection with the given id, or nil when
	// none was imported.
	Find     func(id int64) (*record.Record, error)
	Template string
	Folder   string
}

// CollectionID returns the collection id a movie record refers to, or 0
// when it belongs to none ("-", empty or not a positive number).
func CollectionID(movie *record.Record) int64 {
	v, ok := movie.Get("collection_id")
	if !ok || v.IsList() {
		return 0
	}
	id, err := strconv.ParseInt(strings.TrimSpace(v.Text()), 10, 64)
	if err != nil || id <= 0 {
		return 0
	}
	return id
}

// Ensure renders the collection note for movie. It returns nil when the
// movie has no collection or the collection was never imported, and a
// skipped result when the note already exists.
func (c CollectionNotes) Ensure(ctx context.Context, movie *record.Record) (*Result, error) {
	id := CollectionID(movie)
	if id == 0 {
		return nil, nil
	}
	collection, err := c.Find(id)
	if err != nil || collection == nil {
		return nil, err
	}

	notePath, err := c.Namer.NotePath(collection, c.Folder)
	if err != nil {
		return nil, err
	}
	res := &Result{
		Source:     "collection:" + strconv.FormatInt(id, 10),
		Name:       collection.Name(),
		OutputPath: notePath,
		Record:     collection,
	}
	if c.Notes.Exists(notePath) {
		res.Skipped = true
		return res, nil
	}

	content, err := c.Renderer.Render(ctx, collection, c.Template)
	if err != nil {
		return nil, err
	}
	if err := c.Notes.WriteNote(notePath, content); err != nil {
		return nil, err
	}
	res.SizeBytes = int64(len(content))
	return res, nil
}
