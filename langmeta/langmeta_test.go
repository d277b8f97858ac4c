package langmeta

import "testing"

func TestCanonical(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{in: "pt_br", want: "pt-BR", ok: true},
		{in: " EN-us ", want: "en-US", ok: true},
		{in: "ru", want: "ru", ok: true},
		{in: "not a tag", want: "not a tag", ok: false},
		{in: "", want: "", ok: false},
	}

	for _, tc := range cases {
		got, ok := Canonical(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("Canonical(%q) = %q, %v; want %q, %v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestValidAndBase(t *testing.T) {
	if !Valid("zh-CHS") {
		t.Error("registry code zh-CHS should be valid")
	}
	if !Valid("de-AT") {
		t.Error("de-AT should be valid")
	}
	if Valid("de AT") {
		t.Error("\"de AT\" should be invalid")
	}
	for in, want := range map[string]string{"zh-TW": "zh", "zh-CHS": "zh", "pt_BR": "pt", "fil-PH": "fil"} {
		if got := Base(in); got != want {
			t.Errorf("Base(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestResolve(t *testing.T) {
	t.Run("exact match", func(t *testing.T) {
		got := Resolve("de-DE")
		if got.Name != "German (Germany)" || got.Code != "de-DE" {
			t.Fatalf("unexpected result: %#v", got)
		}
	})

	t.Run("legacy code", func(t *testing.T) {
		got := Resolve("zh-CHS")
		if got.Name != "Chinese (Simplified, China)" {
			t.Fatalf("unexpected result: %#v", got)
		}
	})

	t.Run("normalized match", func(t *testing.T) {
		got := Resolve("nb_no")
		if got.Name != "Norwegian Bokmål (Norway)" || got.Code != "nb-NO" {
			t.Fatalf("unexpected result: %#v", got)
		}
	})

	t.Run("cldr name", func(t *testing.T) {
		got := Resolve("de")
		if got.Name != "German" {
			t.Fatalf("unexpected result: %#v", got)
		}
	})

	t.Run("unknown passthrough", func(t *testing.T) {
		got := Resolve("zz-ZZ")
		if got.Name != "zz-ZZ" {
			t.Fatalf("unexpected unknown result: %#v", got)
		}
	})
}

func TestCodesSorted(t *testing.T) {
	codes := Codes()
	if len(codes) != len(Registry) {
		t.Fatalf("Codes() = %d entries, want %d", len(codes), len(Registry))
	}
	for i := 1; i < len(codes); i++ {
		if codes[i-1] > codes[i] {
			t.Fatalf("codes not sorted at %d: %q > %q", i, codes[i-1], codes[i])
		}
	}
}
