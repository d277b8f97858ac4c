// Package i18n translates resxlate's own console messages.
//
// Catalogs are gettext .po files embedded under
// locales/{lang}/LC_MESSAGES/resxlate.po. Init picks the catalog that best
// matches the requested or environment language; T and N then look strings
// up in it and fall back to the English msgid.
package i18n

import (
	"embed"
	"io/fs"
	"os"
	"strings"

	"github.com/leonelquinteros/gotext"
	"golang.org/x/text/language"
)

//go:embed all:locales
var locales embed.FS

const domain = "resxlate"

// fallback is the language of the msgids themselves.
const fallback = "en"

var po *gotext.Locale

// Available lists the languages with an embedded catalog, plus the
// built-in English.
func Available() []string {
	langs := []string{fallback}
	entries, err := fs.ReadDir(locales, "locales")
	if err != nil {
		return langs
	}
	for _, e := range entries {
		if e.IsDir() && e.Name() != fallback {
			langs = append(langs, e.Name())
		}
	}
	return langs
}

// Init loads the catalog for lang and returns the catalog language chosen.
// An empty lang is taken from LANGUAGE, LC_ALL, LC_MESSAGES or LANG. Regional
// variants use the base catalog ("de_AT" gets "de"); languages without a
// catalog get untranslated English messages.
func Init(lang string) string {
	if lang == "" {
		lang = detectLanguage()
	}
	chosen := matchCatalog(lang, Available())

	po = gotext.NewLocaleFSWithPath(chosen, locales, "locales")
	po.AddDomain(domain)
	po.SetDomain(domain)
	return chosen
}

// matchCatalog returns the entry of catalogs closest to lang. catalogs[0]
// is the fallback.
func matchCatalog(lang string, catalogs []string) string {
	tag, err := language.Parse(strings.ReplaceAll(stripEncoding(lang), "_", "-"))
	if err != nil {
		return catalogs[0]
	}
	tags := make([]language.Tag, len(catalogs))
	for i, c := range catalogs {
		tags[i] = language.Make(c)
	}
	_, idx, conf := language.NewMatcher(tags).Match(tag)
	if conf == language.No {
		return catalogs[0]
	}
	return catalogs[idx]
}

// T translates msgid, returning it unchanged when there is no translation.
func T(msgid string) string {
	if po == nil {
		return msgid
	}
	return po.Get(msgid)
}

// N is T for messages with plural forms; the catalog's plural formula
// decides which form n takes.
func N(singular, plural string, n int) string {
	if po == nil {
		if n == 1 {
			return singular
		}
		return plural
	}
	return po.GetN(singular, plural, n)
}

// detectLanguage follows GNU gettext: LANGUAGE > LC_ALL > LC_MESSAGES > LANG.
// "C" and "POSIX" mean untranslated.
func detectLanguage() string {
	for _, env := range []string{"LANGUAGE", "LC_ALL", "LC_MESSAGES", "LANG"} {
		val := os.Getenv(env)
		if env == "LANGUAGE" {
			val, _, _ = strings.Cut(val, ":")
		}
		val = stripEncoding(val)
		if val == "" || val == "C" || val == "POSIX" {
			continue
		}
		return val
	}
	return fallback
}

// stripEncoding turns "ru_RU.UTF-8" into "ru_RU" and "de_DE@euro" into "de_DE".
func stripEncoding(lang string) string {
	if idx := strings.IndexAny(lang, ".@"); idx >= 0 {
		return lang[:idx]
	}
	return lang
}
