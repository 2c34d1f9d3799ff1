// Package i18n renders the terminal messages in the user's language.
package i18n

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"path"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

// fallback is the bundle's default language. Its message file is complete,
// so a language without a message file resolves to it.
var fallback = language.English

//go:embed locales/*.json
var localeFS embed.FS

type ctxKey struct{}

var bundle *i18n.Bundle

// Init loads the embedded message files. It fails only on a malformed
// language tag or message file; a well-formed tag with no messages of its own
// is served in English.
func Init(lang string) error {
	tag, err := language.Parse(lang)
	if err != nil {
		return fmt.Errorf("parse language %q: %w", lang, err)
	}

	b, err := loadBundle()
	if err != nil {
		return err
	}
	if !supported(b, tag) {
		slog.Warn("no messages for language, using English", "lang", lang)
	}
	bundle = b
	return nil
}

func loadBundle() (*i18n.Bundle, error) {
	b := i18n.NewBundle(fallback)
	b.RegisterUnmarshalFunc("json", json.Unmarshal)

	files, err := localeFS.ReadDir("locales")
	if err != nil {
		return nil, fmt.Errorf("read locales dir: %w", err)
	}
	for _, f := range files {
		name := path.Join("locales", f.Name())
		data, err := localeFS.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		if _, err := b.ParseMessageFileBytes(data, f.Name()); err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
	}
	return b, nil
}

// supported reports whether b has messages for tag's base language.
func supported(b *i18n.Bundle, tag language.Tag) bool {
	base, _ := tag.Base()
	for _, t := range b.LanguageTags() {
		if tb, _ := t.Base(); tb == base {
			return true
		}
	}
	return false
}

// NewLocalizer creates a localizer for lang, loading the bundle on first use.
func NewLocalizer(lang string) *i18n.Localizer {
	if bundle == nil {
		if err := Init(fallback.String()); err != nil {
			slog.Error("load messages", "error", err)
		}
	}
	return i18n.NewLocalizer(bundle, lang)
}

// WithLocalizer stores a localizer in the context.
func WithLocalizer(ctx context.Context, loc *i18n.Localizer) context.Context {
	return context.WithValue(ctx, ctxKey{}, loc)
}

// WithLang stores a localizer for lang in the context.
func WithLang(ctx context.Context, lang string) context.Context {
	return WithLocalizer(ctx, NewLocalizer(lang))
}

// localize renders cfg with the context's localizer, or in English when the
// context carries none. A missing message renders as its ID.
func localize(ctx context.Context, cfg *i18n.LocalizeConfig) string {
	loc, ok := ctx.Value(ctxKey{}).(*i18n.Localizer)
	if !ok {
		loc = NewLocalizer(fallback.String())
	}
	s, err := loc.Localize(cfg)
	if err != nil {
		slog.Warn("missing translation", "id", cfg.MessageID, "error", err)
		return cfg.MessageID
	}
	return s
}

// T translates a message by ID.
func T(ctx context.Context, msgID string) string {
	return localize(ctx, &i18n.LocalizeConfig{MessageID: msgID})
}

// Td translates a message by ID with template data.
func Td(ctx context.Context, msgID string, data map[string]any) string {
	return localize(ctx, &i18n.LocalizeConfig{MessageID: msgID, TemplateData: data})
}

// Tp translates a pluralized message; count is also available as {{.Count}}.
func Tp(ctx context.Context, msgID string, count int) string {
	return localize(ctx, &i18n.LocalizeConfig{
		MessageID:    msgID,
		PluralCount:  count,
		TemplateData: map[string]any{"Count": count},
	})
}
