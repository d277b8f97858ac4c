package i18n

import "testing"

func clearLocaleEnv(t *testing.T) {
	t.Helper()
	t.Setenv("LANGUAGE", "")
	t.Setenv("LC_ALL", "")
	t.Setenv("LC_MESSAGES", "")
	t.Setenv("LANG", "")
}

func TestDetectLanguagePriorityAndNormalization(t *testing.T) {
	t.Run("LANGUAGE has highest priority", func(t *testing.T) {
		clearLocaleEnv(t)
		t.Setenv("LANGUAGE", "ru_RU.UTF-8:en_US")
		t.Setenv("LC_ALL", "de_DE.UTF-8")

		if got := detectLanguage(); got != "ru_RU" {
			t.Fatalf("detectLanguage() = %q, want %q", got, "ru_RU")
		}
	})

	t.Run("C and POSIX are skipped", func(t *testing.T) {
		clearLocaleEnv(t)
		t.Setenv("LANGUAGE", "C")
		t.Setenv("LC_ALL", "POSIX")
		t.Setenv("LC_MESSAGES", "fr_FR.UTF-8")

		if got := detectLanguage(); got != "fr_FR" {
			t.Fatalf("detectLanguage() = %q, want %q", got, "fr_FR")
		}
	})

	t.Run("falls back to en", func(t *testing.T) {
		clearLocaleEnv(t)
		if got := detectLanguage(); got != "en" {
			t.Fatalf("detectLanguage() = %q, want %q", got, "en")
		}
	})
}

func TestTAndNFallbackWhenUninitialized(t *testing.T) {
	old := po
	po = nil
	t.Cleanup(func() { po = old })

	if got := T("Hello"); got != "Hello" {
		t.Fatalf("T fallback = %q, want %q", got, "Hello")
	}

	if got := N("file", "files", 1); got != "file" {
		t.Fatalf("N singular fallback = %q, want %q", got, "file")
	}

	if got := N("file", "files", 2); got != "files" {
		t.Fatalf("N plural fallback = %q, want %q", got, "files")
	}
}

func TestInitLoadsEmbeddedCatalog(t *testing.T) {
	old := po
	t.Cleanup(func() { po = old })

	if got := Init("de_AT.UTF-8"); got != "de" {
		t.Fatalf("Init() chose %q, want de", got)
	}
	if got := T("Translation interrupted"); got != "Übersetzung unterbrochen" {
		t.Fatalf("T() = %q, want German catalog entry", got)
	}
	if got := N("%d language", "%d languages", 2); got != "%d Sprachen" {
		t.Fatalf("N() = %q, want plural German entry", got)
	}
	if got := T("not in the catalog"); got != "not in the catalog" {
		t.Fatalf("T(unknown) = %q, want passthrough", got)
	}
}

func TestMatchCatalog(t *testing.T) {
	catalogs := []string{"en", "de"}
	tests := []struct {
		lang, want string
	}{
		{"de", "de"},
		{"de_AT", "de"},
		{"de-CH", "de"},
		{"en_US", "en"},
		{"ru_RU", "en"},
		{"not a language", "en"},
	}
	for _, tt := range tests {
		if got := matchCatalog(tt.lang, catalogs); got != tt.want {
			t.Errorf("matchCatalog(%q) = %q, want %q", tt.lang, got, tt.want)
		}
	}
}

func TestAvailableListsEmbeddedCatalogs(t *testing.T) {
	got := Available()
	if len(got) < 2 || got[0] != "en" {
		t.Fatalf("Available() = %v, want en first", got)
	}
	found := false
	for _, l := range got {
		if l == "de" {
			found = true
		}
	}
	if !found {
		t.Errorf("Available() = %v, want de among them", got)
	}
}

func TestDetectLanguageStripsModifier(t *testing.T) {
	clearLocaleEnv(t)
	t.Setenv("LANG", "de_DE@euro")
	if got := detectLanguage(); got != "de_DE" {
		t.Fatalf("detectLanguage() = %q, want %q", got, "de_DE")
	}
}
