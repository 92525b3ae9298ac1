// Package i18n provides internationalization support for the label print service.
// It handles translation of user-facing messages and error messages.
package i18n

import (
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/text/language"
)

const (
	// DefaultLocale is the default language locale (English).
	DefaultLocale = "en"
	// AcceptLanguageHeader is the HTTP header name for language preference.
	AcceptLanguageHeader = "Accept-Language"
)

var (
	// defaultTranslator is the singleton translator instance.
	defaultTranslator *Translator
	translatorOnce    sync.Once
)

// Translator handles message translation for different locales.
type Translator struct {
	messages map[string]map[string]string
}

// NewTranslator creates a new translator with the default messages.
func NewTranslator() *Translator {
	return &Translator{
		messages: getDefaultMessages(),
	}
}

// GetTranslator returns the default singleton translator instance.
func GetTranslator() *Translator {
	translatorOnce.Do(func() {
		defaultTranslator = NewTranslator()
	})
	return defaultTranslator
}

// Translate returns key's message in locale, then in DefaultLocale, then the key itself.
func (t *Translator) Translate(key, locale string) string {
	if msg, ok := t.messages[locale][key]; ok {
		return msg
	}
	if msg, ok := t.messages[DefaultLocale][key]; ok {
		return msg
	}
	return key
}

// supportedLocales lists the message tables in matcher order; the first is the fallback.
var (
	supportedLocales = []string{DefaultLocale, "pt", "nl"}
	localeMatcher    = language.NewMatcher([]language.Tag{language.English, language.Portuguese, language.Dutch})
)

// GetLocale matches Accept-Language against the supported locales.
// A missing, malformed or unmatched header yields DefaultLocale.
func GetLocale(c *gin.Context) string {
	header := c.GetHeader(AcceptLanguageHeader)
	if header == "" {
		return DefaultLocale
	}
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(tags) == 0 {
		return DefaultLocale
	}
	_, idx, confidence := localeMatcher.Match(tags...)
	if confidence == language.No {
		return DefaultLocale
	}
	return supportedLocales[idx]
}

// getDefaultMessages returns the default message translations.
func getDefaultMessages() map[string]map[string]string {
	return map[string]map[string]string{
		"en": {
			// Error messages
			ErrKeyInvalidRequest:        "Invalid request",
			ErrKeyInvalidRequestBody:    "Invalid request body",
			ErrKeyUnknownOption:         "Unknown option in request",
			ErrKeyInternalError:         "An unexpected error occurred",
			ErrKeyNotFound:              "Not found",
			ErrKeyRateLimitExceeded:     "Too many requests, please try again later",
			ErrKeyConflict:              "Conflict",
			ErrKeyTimeout:               "Request timed out",
			ErrKeyServiceUnavailable:    "Service is shutting down",
			ErrKeyValidationFailed:      "Label data is invalid",
			ErrKeyMalformedPayload:      "QR payload could not be decoded",
			ErrKeyInvalidLayout:         "Label layout does not fit the label size",
			ErrKeyEmptyJob:              "Print job has no labels",
			ErrKeyEmptyBatch:            "Batch has no transactions",
			ErrKeyHeterogeneousBatch:    "Labels of one job must belong to one transaction",
			ErrKeyBatchRejected:         "Batch rejected, no job was created",
			ErrKeyPrinterNotFound:       "Printer not found",
			ErrKeyPrinterUnavailable:    "Printer is unavailable",
			ErrKeyPrinterIncompatible:   "Printer cannot print this label size",
			ErrKeyPrinterBusy:           "Printer is busy",
			ErrKeyJobNotFound:           "Print job not found",
			ErrKeyBatchNotFound:         "Batch not found",
			ErrKeyTransactionNotFound:   "Transaction not found",
			ErrKeyInvalidTransition:     "Print job cannot change to the requested state",
			ErrKeyIdempotencyInProgress: "A request with this idempotency key is still being processed",

			// Success messages
			SuccessKeyJobSubmitted:   "Print job queued",
			SuccessKeyBatchSubmitted: "Print batch queued",
		},
		"pt": {
			// Error messages
			ErrKeyInvalidRequest:        "Requisição inválida",
			ErrKeyInvalidRequestBody:    "Corpo da requisição inválido",
			ErrKeyUnknownOption:         "Opção desconhecida na requisição",
			ErrKeyInternalError:         "Ocorreu um erro inesperado",
			ErrKeyNotFound:              "Não encontrado",
			ErrKeyRateLimitExceeded:     "Muitas requisições, tente novamente mais tarde",
			ErrKeyConflict:              "Conflito",
			ErrKeyTimeout:               "Tempo da requisição esgotado",
			ErrKeyServiceUnavailable:    "Serviço em desligamento",
			ErrKeyValidationFailed:      "Dados da etiqueta inválidos",
			ErrKeyMalformedPayload:      "Não foi possível decodificar o QR",
			ErrKeyInvalidLayout:         "O layout não cabe no tamanho da etiqueta",
			ErrKeyEmptyJob:              "O trabalho de impressão não tem etiquetas",
			ErrKeyEmptyBatch:            "O lote não tem transações",
			ErrKeyHeterogeneousBatch:    "As etiquetas de um trabalho devem ser da mesma transação",
			ErrKeyBatchRejected:         "Lote rejeitado, nenhum trabalho foi criado",
			ErrKeyPrinterNotFound:       "Impressora não encontrada",
			ErrKeyPrinterUnavailable:    "Impressora indisponível",
			ErrKeyPrinterIncompatible:   "A impressora não imprime este tamanho de etiqueta",
			ErrKeyPrinterBusy:           "Impressora ocupada",
			ErrKeyJobNotFound:           "Trabalho de impressão não encontrado",
			ErrKeyBatchNotFound:         "Lote não encontrado",
			ErrKeyTransactionNotFound:   "Transação não encontrada",
			ErrKeyInvalidTransition:     "O trabalho não pode mudar para o estado pedido",
			ErrKeyIdempotencyInProgress: "Uma requisição com esta chave de idempotência ainda está em processamento",

			// Success messages
			SuccessKeyJobSubmitted:   "Trabalho de impressão enfileirado",
			SuccessKeyBatchSubmitted: "Lote de impressão enfileirado",
		},
		"nl": {
			// Error messages
			ErrKeyInvalidRequest:        "Ongeldig verzoek",
			ErrKeyInvalidRequestBody:    "Ongeldige aanvraag body",
			ErrKeyUnknownOption:         "Onbekende optie in verzoek",
			ErrKeyInternalError:         "Er is een onverwachte fout opgetreden",
			ErrKeyNotFound:              "Niet gevonden",
			ErrKeyRateLimitExceeded:     "Te veel verzoeken, probeer het later opnieuw",
			ErrKeyConflict:              "Conflict",
			ErrKeyTimeout:               "Verzoek verlopen",
			ErrKeyServiceUnavailable:    "Service wordt afgesloten",
			ErrKeyValidationFailed:      "Labelgegevens zijn ongeldig",
			ErrKeyMalformedPayload:      "QR-gegevens konden niet worden gedecodeerd",
			ErrKeyInvalidLayout:         "Labelindeling past niet op het label",
			ErrKeyEmptyJob:              "Printopdracht heeft geen labels",
			ErrKeyEmptyBatch:            "Batch heeft geen transacties",
			ErrKeyHeterogeneousBatch:    "Labels van een opdracht moeten bij een transactie horen",
			ErrKeyBatchRejected:         "Batch geweigerd, er is geen opdracht aangemaakt",
			ErrKeyPrinterNotFound:       "Printer niet gevonden",
			ErrKeyPrinterUnavailable:    "Printer is niet beschikbaar",
			ErrKeyPrinterIncompatible:   "Printer kan dit labelformaat niet printen",
			ErrKeyPrinterBusy:           "Printer is bezet",
			ErrKeyJobNotFound:           "Printopdracht niet gevonden",
			ErrKeyBatchNotFound:         "Batch niet gevonden",
			ErrKeyTransactionNotFound:   "Transactie niet gevonden",
			ErrKeyInvalidTransition:     "Printopdracht kan niet naar de gevraagde status",
			ErrKeyIdempotencyInProgress: "Een verzoek met deze idempotentiesleutel wordt nog verwerkt",

			// Success messages
			SuccessKeyJobSubmitted:   "Printopdracht in wachtrij",
			SuccessKeyBatchSubmitted: "Printbatch in wachtrij",
		},
	}
}
