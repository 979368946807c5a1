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
	t.Run("LANGUAGE beats LC_ALL and takes first list entry", func(t *testing.T) {
		clearLocaleEnv(t)
		t.Setenv("LANGUAGE", "es_ES.UTF-8:en_US")
		t.Setenv("LC_ALL", "de_DE.UTF-8")

		if got := detectLanguage(); got != "es_ES" {
			t.Fatalf("detectLanguage() = %q, want %q", got, "es_ES")
		}
	})

	t.Run("C and POSIX are skipped", func(t *testing.T) {
		clearLocaleEnv(t)
		t.Setenv("LC_ALL", "C")
		t.Setenv("LANG", "ru_RU.UTF-8")

		if got := detectLanguage(); got != "ru_RU" {
			t.Fatalf("detectLanguage() = %q, want %q", got, "ru_RU")
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
	old := locale
	locale = nil
	t.Cleanup(func() { locale = old })

	if got := T("Translation sync complete!"); got != "Translation sync complete!" {
		t.Fatalf("T fallback = %q", got)
	}
	if got := N("catalog", "catalogs", 1); got != "catalog" {
		t.Fatalf("N singular fallback = %q", got)
	}
	if got := N("catalog", "catalogs", 3); got != "catalogs" {
		t.Fatalf("N plural fallback = %q", got)
	}
}

func TestEmbeddedSpanishCatalog(t *testing.T) {
	old := locale
	t.Cleanup(func() { locale = old })

	Init("es")
	want := "¡Sincronización de traducciones completada!"
	if got := T("Translation sync complete!"); got != want {
		t.Fatalf("T(es) = %q, want %q", got, want)
	}

	// Untranslated messages pass through.
	if got := T("no such message"); got != "no such message" {
		t.Fatalf("T passthrough = %q", got)
	}
}
