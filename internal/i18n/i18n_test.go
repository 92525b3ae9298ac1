//go:build !integration

package i18n

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestGetTranslator_Shared(t *testing.T) {
	assert.Same(t, GetTranslator(), GetTranslator())
}

func TestTranslator_Translate(t *testing.T) {
	tr := NewTranslator()

	tests := []struct {
		name   string
		key    string
		locale string
		want   string
	}{
		{"english", ErrKeyPrinterBusy, "en", "Printer is busy"},
		{"portuguese", ErrKeyPrinterBusy, "pt", "Impressora ocupada"},
		{"dutch", ErrKeyPrinterBusy, "nl", "Printer is bezet"},
		{"empty locale is english", ErrKeyJobNotFound, "", "Print job not found"},
		{"unsupported locale is english", ErrKeyJobNotFound, "fr", "Print job not found"},
		{"portuguese job not found", ErrKeyJobNotFound, "pt", "Trabalho de impressão não encontrado"},
		{"unknown key echoes the key", "error.paper_jam", "pt", "error.paper_jam"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tr.Translate(tt.key, tt.locale))
		})
	}
}

func TestTranslator_FallsBackPerKey(t *testing.T) {
	tr := &Translator{messages: map[string]map[string]string{
		"en": {ErrKeyPrinterBusy: "Printer is busy", ErrKeyEmptyJob: "Print job has no labels"},
		"nl": {ErrKeyPrinterBusy: "Printer is bezet"},
	}}

	assert.Equal(t, "Printer is bezet", tr.Translate(ErrKeyPrinterBusy, "nl"))
	assert.Equal(t, "Print job has no labels", tr.Translate(ErrKeyEmptyJob, "nl"))
}

func TestSupportedLocales_HaveMessages(t *testing.T) {
	messages := getDefaultMessages()

	assert.Equal(t, DefaultLocale, supportedLocales[0])
	assert.Len(t, messages, len(supportedLocales))
	for _, locale := range supportedLocales {
		assert.Contains(t, messages, locale)
	}
}

func TestGetLocale(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"no header", "", DefaultLocale},
		{"plain tag", "nl", "nl"},
		{"region subtag", "pt-BR", "pt"},
		{"upper case", "NL-be", "nl"},
		{"first of equal weights", "nl,pt", "nl"},
		{"weights decide", "en;q=0.4,pt;q=0.9", "pt"},
		{"unsupported first choice skipped", "fr-FR,pt;q=0.8,en;q=0.5", "pt"},
		{"zero weight is refused", "pt;q=0", DefaultLocale},
		{"malformed weight", "nl;q=high", DefaultLocale},
		{"wildcard only", "*", DefaultLocale},
		{"nothing supported", "de,fr;q=0.5", DefaultLocale},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodGet, "/api/print/queue", nil)
			if tt.header != "" {
				c.Request.Header.Set(AcceptLanguageHeader, tt.header)
			}

			assert.Equal(t, tt.want, GetLocale(c))
		})
	}
}

func TestDefaultMessages_EveryLocaleHasEveryKey(t *testing.T) {
	messages := getDefaultMessages()
	english := messages[DefaultLocale]

	for locale, translated := range messages {
		t.Run(locale, func(t *testing.T) {
			for key := range english {
				assert.NotEmpty(t, translated[key], key)
			}
			assert.Len(t, translated, len(english))
		})
	}
}
