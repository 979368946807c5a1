// Package i18n localizes txsync's own user-facing messages.
//
// It wraps the gotext library behind T() and N() helpers; the
// catalogs are embedded in the binary and the language is detected
// from the environment at startup, following GNU gettext conventions.
package i18n

import (
	"embed"
	"os"
	"strings"

	"github.com/leonelquinteros/gotext"
)

// locales embeds the tool's own translation catalogs, laid out as
// locales/{lang}/LC_MESSAGES/txsync.po.
//
//go:embed all:locales
var locales embed.FS

// domain is the gettext domain for txsync's own messages.
const domain = "txsync"

var locale *gotext.Locale

// Init loads the catalog for lang, auto-detecting from the
// environment when lang is empty. Call once at startup before any
// T() or N() call.
func Init(lang string) {
	if lang == "" {
		lang = detectLanguage()
	}

	locale = gotext.NewLocaleFSWithPath(lang, locales, "locales")
	locale.AddDomain(domain)
	locale.SetDomain(domain)
}

// T translates a message, returning it unchanged when no translation
// exists.
func T(msgid string) string {
	if locale == nil {
		return msgid
	}
	return locale.Get(msgid)
}

// N translates a message with plural forms.
func N(singular, plural string, n int) string {
	if locale == nil {
		if n == 1 {
			return singular
		}
		return plural
	}
	return locale.GetN(singular, plural, n)
}

// detectLanguage follows the GNU gettext precedence:
// LANGUAGE > LC_ALL > LC_MESSAGES > LANG.
func detectLanguage() string {
	for _, env := range []string{"LANGUAGE", "LC_ALL", "LC_MESSAGES", "LANG"} {
		val := os.Getenv(env)
		if val == "" {
			continue
		}
		// LANGUAGE may hold a colon-separated preference list.
		if env == "LANGUAGE" {
			val, _, _ = strings.Cut(val, ":")
		}
		// Strip the encoding suffix: "es_ES.UTF-8" -> "es_ES".
		if idx := strings.IndexByte(val, '.'); idx >= 0 {
			val = val[:idx]
		}
		// "C" and "POSIX" mean untranslated output.
		if val == "" || val == "C" || val == "POSIX" {
			continue
		}
		return val
	}
	return "en"
}
