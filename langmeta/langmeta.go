// Package langmeta provides English display names for the languages
// resxlate knows about, plus language tag canonicalization used by the CLI
// and config validation.
package langmeta

import (
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Meta describes language display metadata.
type Meta struct {
	// Code is the canonical tag the metadata was found under.
	Code string
	Name string
}

// Registry maps the supported culture codes to English names.
// Base-language and variant lookups are resolved in Resolve().
var Registry = map[string]string{
	"ar":     "Arabic",
	"az":     "Azerbaijani",
	"be-BY":  "Belarusian",
	"bg-BG":  "Bulgarian",
	"bn-BD":  "Bengali (Bangladesh)",
	"cs-CZ":  "Czech (Czech Republic)",
	"da-DK":  "Danish (Denmark)",
	"de-DE":  "German (Germany)",
	"el-GR":  "Greek (Greece)",
	"en-US":  "English (United States)",
	"es-ES":  "Spanish (Spain)",
	"et-EE":  "Estonian (Estonia)",
	"fa-IR":  "Persian",
	"fil-PH": "Filipino (Philippines)",
	"fi-FI":  "Finnish (Finland)",
	"fr-FR":  "French (France)",
	"he-IL":  "Hebrew (Israel)",
	"hi-IN":  "Hindi (India)",
	"hu-HU":  "Hungarian (Hungary)",
	"hy-AM":  "Armenian",
	"id-ID":  "Indonesian (Indonesia)",
	"it-IT":  "Italian (Italy)",
	"ja-JP":  "Japanese (Japan)",
	"ka-GE":  "Georgian (Georgia)",
	"kk-KZ":  "Kazakh (Kazakhstan)",
	"ko-KR":  "Korean (South Korea)",
	"ky-KG":  "Kyrgyz (Kyrgyzstan)",
	"lt-LT":  "Lithuanian (Lithuania)",
	"lv-LV":  "Latvian (Latvia)",
	"ms-MY":  "Malay (Malaysia)",
	"my-MM":  "Burmese (Myanmar)",
	"nb-NO":  "Norwegian Bokmål (Norway)",
	"nl-NL":  "Dutch (Netherlands)",
	"pl-PL":  "Polish (Poland)",
	"pt-PT":  "Portuguese (Portugal)",
	"ro-RO":  "Romanian (Romania)",
	"ru-RU":  "Russian (Russia)",
	"sk-SK":  "Slovak (Slovakia)",
	"sl-SI":  "Slovenian (Slovenia)",
	"sv-SE":  "Swedish (Sweden)",
	"sw-KE":  "Swahili (Kenya)",
	"syr-SY": "Syriac (Syria)",
	"ta-IN":  "Tamil (India)",
	"te-IN":  "Telugu (India)",
	"th-TH":  "Thai (Thailand)",
	"tr-TR":  "Turkish (Turkey)",
	"tt-RU":  "Tatar (Russia)",
	"uk-UA":  "Ukrainian (Ukraine)",
	"ur-PK":  "Urdu (Pakistan)",
	"uz-UZ":  "Uzbek (Uzbekistan)",
	"vi-VN":  "Vietnamese (Vietnam)",
	"zh-CHS": "Chinese (Simplified, China)",
	"zh-CN":  "Chinese (Simplified, Mainland China)",
	"zh-TW":  "Chinese (Traditional, Taiwan)",
}

// byBase indexes Registry by base language for fallback lookups. When a
// base has several regional entries the alphabetically first one wins.
var byBase = func() map[string]string {
	codes := Codes()
	m := make(map[string]string, len(codes))
	for _, code := range codes {
		base := strings.ToLower(strings.SplitN(code, "-", 2)[0])
		if _, ok := m[base]; !ok {
			m[base] = code
		}
	}
	return m
}()

// Codes returns the registry codes sorted.
func Codes() []string {
	codes := make([]string, 0, len(Registry))
	for code := range Registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Canonical returns the BCP 47 form of lang ("pt_br" -> "pt-BR").
// ok is false when lang is not a well-formed tag; lang is then returned
// trimmed but otherwise unchanged.
func Canonical(lang string) (string, bool) {
	lang = strings.TrimSpace(lang)
	if lang == "" {
		return "", false
	}
	tag, err := language.Parse(strings.ReplaceAll(lang, "_", "-"))
	if err != nil {
		return lang, false
	}
	return tag.String(), true
}

// Valid reports whether lang is a well-formed language tag or a registry
// code.
func Valid(lang string) bool {
	if _, ok := Registry[lang]; ok {
		return true
	}
	_, ok := Canonical(lang)
	return ok
}

// Base returns the base language subtag of lang, lower-cased.
func Base(lang string) string {
	if c, ok := Canonical(lang); ok {
		tag := language.Make(c)
		if b, conf := tag.Base(); conf != language.No {
			return b.String()
		}
	}
	return strings.ToLower(strings.SplitN(strings.ReplaceAll(lang, "_", "-"), "-", 2)[0])
}

// Resolve returns best-effort metadata for lang: an exact or canonical
// registry entry, then the English name from the CLDR tables, then a
// registry entry with the same base language. Unknown codes come back with the
// code as name.
func Resolve(lang string) Meta {
	if name, ok := Registry[lang]; ok {
		return Meta{Code: lang, Name: name}
	}
	canonical, ok := Canonical(lang)
	if !ok {
		return Meta{Code: lang, Name: lang}
	}
	if name, ok := Registry[canonical]; ok {
		return Meta{Code: canonical, Name: name}
	}
	if name := display.English.Tags().Name(language.Make(canonical)); name != "" {
		return Meta{Code: canonical, Name: name}
	}
	if code, ok := byBase[Base(canonical)]; ok {
		return Meta{Code: code, Name: Registry[code]}
	}
	return Meta{Code: canonical, Name: lang}
}
