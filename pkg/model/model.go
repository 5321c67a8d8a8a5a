// Package model holds the typed movie and collection shapes and their
// conversion into renderable records.
//
// Every list field is paired with a "_string" companion holding the items
// joined by ", " so templates can use either form:
//
//	genres:
//	  - "{{genres}}"
//	summary: {{genres_string}}
package model

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"

	"movie-note-core/pkg/errors"
	"movie-note-core/pkg/record"
)

// Kind selects how a record document is interpreted.
type Kind string

const (
	KindMovie      Kind = "movie"
	KindCollection Kind = "collection"
	KindGeneric    Kind = "generic"
)

// ParseKind accepts the kind names case-insensitively; "" is generic.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindMovie, KindCollection, KindGeneric:
		return k, nil
	case "":
		return KindGeneric, nil
	default:
		return "", errors.Newf(errors.ErrInvalidRecord, "unknown record kind %q", s)
	}
}

type Movie struct {
	ID                  int64    `yaml:"id"`
	Title               string   `yaml:"title"`
	OriginalTitle       string   `yaml:"original_title"`
	MediaType           string   `yaml:"media_type"`
	ReleaseDate         string   `yaml:"release_date"`
	Adult               bool     `yaml:"adult"`
	Director            string   `yaml:"director"`
	MainActors          []string `yaml:"main_actors"`
	Genres              []string `yaml:"genres"`
	Overview            string   `yaml:"overview"`
	Tagline             string   `yaml:"tagline"`
	Homepage            string   `yaml:"homepage"`
	ImdbID              string   `yaml:"imdb_id"`
	JustWatchID         string   `yaml:"justwatch_id"`
	YoutubeURL          string   `yaml:"youtube_url"`
	OriginalLanguage    string   `yaml:"original_language"`
	SpokenLanguages     []string `yaml:"spoken_languages"`
	ProductionCompanies []string `yaml:"production_companies"`
	ProductionCountries []string `yaml:"production_countries"`
	Popularity          float64  `yaml:"popularity"`
	VoteAverage         float64  `yaml:"vote_average"`
	VoteCount           int64    `yaml:"vote_count"`
	PosterPath          string   `yaml:"poster_path"`
	BackdropPath        string   `yaml:"backdrop_path"`
	CollectionID        string   `yaml:"collection_id"`
}

// ToRecord flattens the movie into a record. "name" mirrors the title,
// an empty tagline or collection id becomes "-", and a missing JustWatch
// id is derived from the original title.
func (m Movie) ToRecord() *record.Record {
	rec := record.New()
	rec.Set("id", record.Int(m.ID))
	rec.Set("title", record.String(m.Title))
	rec.Set("name", record.String(m.Title))
	rec.Set("original_title", record.String(m.OriginalTitle))
	rec.Set("media_type", record.String(m.MediaType))
	rec.Set("release_date", record.String(m.ReleaseDate))
	rec.Set("adult", record.Bool(m.Adult))
	rec.Set("director", record.String(m.Director))
	setList(rec, "main_actors", m.MainActors)
	setList(rec, "genres", m.Genres)
	rec.Set("overview", record.String(m.Overview))
	rec.Set("tagline", record.String(orDash(m.Tagline)))
	rec.Set("homepage", record.String(m.Homepage))
	rec.Set("imdb_id", record.String(m.ImdbID))

	justWatch := m.JustWatchID
	if justWatch == "" {
		original := m.OriginalTitle
		if original == "" {
			original = m.Title
		}
		justWatch = JustWatchID(original)
	}
	rec.Set("justwatch_id", record.String(justWatch))
	rec.Set("youtube_url", record.String(m.YoutubeURL))
	rec.Set("original_language", record.String(m.OriginalLanguage))
	setList(rec, "spoken_languages", m.SpokenLanguages)
	setList(rec, "production_companies", m.ProductionCompanies)
	setList(rec, "production_countries", m.ProductionCountries)
	rec.Set("popularity", record.Number(m.Popularity))
	rec.Set("vote_average", record.Number(m.VoteAverage))
	rec.Set("vote_count", record.Int(m.VoteCount))
	rec.Set("poster_path", record.String(m.PosterPath))
	rec.Set("backdrop_path", record.String(m.BackdropPath))
	rec.Set("collection_id", record.String(orDash(m.CollectionID)))
	return rec
}

type Collection struct {
	ID           int64   `yaml:"id"`
	Name         string  `yaml:"name"`
	Overview     string  `yaml:"overview"`
	PosterPath   string  `yaml:"poster_path"`
	BackdropPath string  `yaml:"backdrop_path"`
	Parts        []int64 `yaml:"parts"`
}

func (c Collection) ToRecord() *record.Record {
	parts := make([]string, len(c.Parts))
	for i, id := range c.Parts {
		parts[i] = strconv.FormatInt(id, 10)
	}

	rec := record.New()
	rec.Set("id", record.Int(c.ID))
	rec.Set("name", record.String(c.Name))
	rec.Set("overview", record.String(c.Overview))
	rec.Set("poster_path", record.String(c.PosterPath))
	rec.Set("backdrop_path", record.String(c.BackdropPath))
	setList(rec, "parts", parts)
	return rec
}

func setList(rec *record.Record, key string, items []string) {
	rec.Set(key, record.List(items...))
	rec.Set(key+"_string", record.String(strings.Join(items, ", ")))
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

var (
	apostrophes = strings.NewReplacer("'", "", "\u2019", "")
	stripMarks  = runes.Remove(runes.In(unicode.Mn))
)

// JustWatchID derives the JustWatch URL slug from a title: lower case,
// accents and apostrophes removed, other runs of non alphanumerics joined
// with "-".
func JustWatchID(title string) string {
	t := transform.Chain(norm.NFD, stripMarks, norm.NFC)
	folded, _, err := transform.String(t, strings.ToLower(title))
	if err != nil {
		folded = strings.ToLower(title)
	}
	folded = apostrophes.Replace(folded)

	var b strings.Builder
	dash := false
	for _, r := range folded {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			dash = false
			continue
		}
		dash = true
	}
	return b.String()
}

// Decode parses a record document of the given kind. Movie and collection
// documents are read into their typed shape first so derived fields are
// filled in; generic documents keep their fields as written. The result is
// validated.
func Decode(kind Kind, data []byte) (*record.Record, error) {
	var rec *record.Record
	switch kind {
	case KindMovie:
		var m Movie
		if err := yaml.Unmarshal(data, &m); err != nil {
			return nil, errors.Wrap(err, errors.ErrDecode, "parsing movie")
		}
		rec = m.ToRecord()
	case KindCollection:
		var c Collection
		if err := yaml.Unmarshal(data, &c); err != nil {
			return nil, errors.Wrap(err, errors.ErrDecode, "parsing collection")
		}
		rec = c.ToRecord()
	default:
		var err error
		if rec, err = record.Decode(data); err != nil {
			return nil, err
		}
	}

	if err := rec.Validate(); err != nil {
		return nil, err
	}
	return rec, nil
}
