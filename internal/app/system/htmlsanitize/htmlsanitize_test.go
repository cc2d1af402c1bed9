package htmlsanitize_test

import (
	"strings"
	"testing"

	"github.com/Pelezi/videira-caruaru-api/internal/app/system/htmlsanitize"
)

func TestSanitize_Empty(t *testing.T) {
	if got := htmlsanitize.Sanitize(""); got != "" {
		t.Errorf("expected empty string, got %q", got)
	}
}

func TestSanitize_PlainText(t *testing.T) {
	if got := htmlsanitize.Sanitize("Reunião na quinta"); got != "Reunião na quinta" {
		t.Errorf("expected plain text unchanged, got %q", got)
	}
}

func TestSanitize_SafeHTML(t *testing.T) {
	input := "<p><strong>Multiplicação</strong> em <em>março</em></p>"
	if got := htmlsanitize.Sanitize(input); got != input {
		t.Errorf("expected safe HTML preserved, got %q", got)
	}
}

func TestSanitize_RemovesScript(t *testing.T) {
	input := "<p>Oração</p><script>alert('xss')</script>"
	if got := htmlsanitize.Sanitize(input); got != "<p>Oração</p>" {
		t.Errorf("expected script removed, got %q", got)
	}
}

func TestSanitize_RemovesOnclick(t *testing.T) {
	input := `<button onclick="alert('xss')">Abrir</button>`
	if got := htmlsanitize.Sanitize(input); strings.Contains(got, "onclick") {
		t.Errorf("expected onclick attribute removed, got %q", got)
	}
}

func TestSanitize_RemovesJavascriptHref(t *testing.T) {
	input := `<a href="javascript:alert('xss')">Abrir</a>`
	if got := htmlsanitize.Sanitize(input); strings.Contains(got, "javascript:") {
		t.Errorf("expected javascript: href removed, got %q", got)
	}
}

func TestPlainText_StripsAllMarkup(t *testing.T) {
	input := "<p><strong>Célula</strong> Vida Nova</p>"
	if got := htmlsanitize.PlainText(input); got != "Célula Vida Nova" {
		t.Errorf("expected all markup stripped, got %q", got)
	}
}
