// Package i18n looks up user facing messages by dotted key.
//
// Catalogs are nested YAML mappings; "errors.templateNotFound" addresses
// the templateNotFound entry under errors. Lookups fall back to English and
// finally to the key itself. Messages may contain {{name}} placeholders
// filled by Tf.
package i18n

import (
	"embed"
	"fmt"
	"path"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"movie-note-core/pkg/errors"
	"movie-note-core/pkg/logging"
)

// FallbackLocale is used for keys the active locale does not define.
const FallbackLocale = "en"

//go:embed locales/*.yaml
var builtin embed.FS

// Translator resolves message keys for one active locale.
type Translator struct {
	locale   string
	catalogs map[string]map[string]string
}

// New returns a Translator loaded with the built-in catalogs and set to
// locale. Region suffixes are ignored, so "it-IT" selects "it".
func New(locale string) (*Translator, error) {
	t := &Translator{locale: FallbackLocale, catalogs: make(map[string]map[string]string)}

	entries, err := builtin.ReadDir("locales")
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrDecode, "reading built-in locales")
	}
	for _, entry := range entries {
		data, err := builtin.ReadFile(path.Join("locales", entry.Name()))
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrDecode, "reading locale %s", entry.Name())
		}
		if err := t.Load(strings.TrimSuffix(entry.Name(), ".yaml"), data); err != nil {
			return nil, err
		}
	}

	t.SetLocale(locale)
	return t, nil
}

// Load adds or replaces the catalog for locale.
func (t *Translator) Load(locale string, data []byte) error {
	var tree map[string]interface{}
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return errors.Wrapf(err, errors.ErrDecode, "parsing %s catalog", locale)
	}
	flat := make(map[string]string)
	flatten("", tree, flat)
	t.catalogs[locale] = flat
	return nil
}

func flatten(prefix string, tree map[string]interface{}, out map[string]string) {
	for k, v := range tree {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch val := v.(type) {
		case map[string]interface{}:
			flatten(key, val, out)
		case string:
			out[key] = val
		case nil:
		default:
			out[key] = fmt.Sprint(val)
		}
	}
}

// SetLocale switches the active locale. Unknown locales select the
// fallback and report false.
func (t *Translator) SetLocale(locale string) bool {
	locale = strings.ToLower(strings.TrimSpace(locale))
	if i := strings.IndexAny(locale, "-_"); i > 0 {
		locale = locale[:i]
	}
	if _, ok := t.catalogs[locale]; ok {
		t.locale = locale
		return true
	}

	if locale != "" && locale != FallbackLocale {
		logger := logging.GetLogger("i18n")
		logger.Warn().Str("locale", locale).Str("fallback", FallbackLocale).Msg("Locale not available")
	}
	t.locale = FallbackLocale
	return false
}

func (t *Translator) Locale() string {
	return t.locale
}

// Locales lists the loaded catalogs in sorted order.
func (t *Translator) Locales() []string {
	out := make([]string, 0, len(t.catalogs))
	for l := range t.catalogs {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}

// T returns the message for key, or key when no catalog defines it.
func (t *Translator) T(key string) string {
	if msg, ok := t.catalogs[t.locale][key]; ok {
		return msg
	}
	if msg, ok := t.catalogs[FallbackLocale][key]; ok {
		return msg
	}
	return key
}

// Tf is T followed by {{name}} replacement. Surrounding spaces inside the
// braces are allowed.
func (t *Translator) Tf(key string, replacements map[string]string) string {
	msg := t.T(key)
	for name, value := range replacements {
		re := regexp.MustCompile(`\{\{\s*` + regexp.QuoteMeta(name) + `\s*\}\}`)
		msg = re.ReplaceAllLiteralString(msg, value)
	}
	return msg
}
