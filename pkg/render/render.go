// Package render turns a record and an optional template into note text.
//
// Without a template the record is written as a frontmatter block with
// snake_case keys. With one, date tokens are resolved first and field
// placeholders second, so a field value can never be read as a date token.
package render

import (
	"context"

	"github.com/rs/zerolog"

	"movie-note-core/pkg/datetoken"
	"movie-note-core/pkg/errors"
	"movie-note-core/pkg/frontmatter"
	"movie-note-core/pkg/i18n"
	"movie-note-core/pkg/logging"
	"movie-note-core/pkg/record"
	"movie-note-core/pkg/substitute"
)

// TemplateReader loads raw template text. "/" means no template file.
type TemplateReader interface {
	ReadTemplate(ctx context.Context, path string) (string, error)
}

// Notifier shows a non fatal message to the user.
type Notifier interface {
	Notify(message string)
}

// NotifyFunc adapts a function to Notifier.
type NotifyFunc func(message string)

func (f NotifyFunc) Notify(message string) { f(message) }

// Translator looks up localized messages.
type Translator interface {
	Tf(key string, replacements map[string]string) string
}

// Renderer holds only read-only capabilities and is safe for concurrent
// use.
type Renderer struct {
	reader     TemplateReader
	notifier   Notifier
	translator Translator
	dates      *datetoken.Evaluator
	logger     zerolog.Logger
}

type Option func(*Renderer)

func WithNotifier(n Notifier) Option {
	return func(r *Renderer) { r.notifier = n }
}

func WithTranslator(t Translator) Option {
	return func(r *Renderer) { r.translator = t }
}

func WithCalendar(cal datetoken.Calendar) Option {
	return func(r *Renderer) { r.dates = datetoken.New(cal) }
}

func New(reader TemplateReader, opts ...Option) *Renderer {
	r := &Renderer{
		reader:   reader,
		notifier: NotifyFunc(func(string) {}),
		dates:    datetoken.New(nil),
		logger:   logging.GetLogger("render"),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.translator == nil {
		if tr, err := i18n.New(i18n.FallbackLocale); err == nil {
			r.translator = tr
		}
	}
	return r
}

// Render produces the note content for rec.
//
// An empty templatePath yields the frontmatter block. A template that
// cannot be found or read degrades to an empty body after a single
// notification. Only date formatting and frontmatter encoding errors are
// returned.
func (r *Renderer) Render(ctx context.Context, rec *record.Record, templatePath string) (string, error) {
	if templatePath == "" {
		return frontmatter.Block(rec)
	}

	body := r.loadTemplate(ctx, templatePath)
	body, err := r.dates.Evaluate(body)
	if err != nil {
		return "", err
	}
	return substitute.Substitute(body, rec), nil
}

func (r *Renderer) loadTemplate(ctx context.Context, templatePath string) string {
	body, err := r.reader.ReadTemplate(ctx, templatePath)
	if err == nil {
		return body
	}

	key := "errors.templateReadFailed"
	if errors.IsErrorCode(err, errors.ErrTemplateNotFound) {
		key = "errors.templateNotFound"
	}
	r.logger.Error().Err(err).Str("template", templatePath).Msg("Failed to read the note template")
	r.notifier.Notify(r.message(key, map[string]string{"path": templatePath}))
	return ""
}

func (r *Renderer) message(key string, replacements map[string]string) string {
	if r.translator == nil {
		return key
	}
	return r.translator.Tf(key, replacements)
}
