// Package google is a service.Service backed by the free Google Translate
// web endpoint through github.com/bregydoc/gtranslate.
//
// It needs no key and is meant for trying things out; the endpoint is
// rate limited and undocumented.
package google

import (
	"context"

	"github.com/bregydoc/gtranslate"

	"github.com/minios-linux/resxlate/service"
)

// Client translates through gtranslate.
type Client struct {
	translate func(text string, params gtranslate.TranslationParams) (string, error)
}

// New returns a Client.
func New() *Client {
	return &Client{translate: gtranslate.TranslateWithParams}
}

// Translate implements service.Service. gtranslate cannot be canceled, so
// the context is only checked before the call.
func (c *Client) Translate(ctx context.Context, text, targetLang, sourceLang string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if targetLang == "" {
		return "", &service.Error{Code: service.CodeBadLanguage, Message: "target language is empty"}
	}
	out, err := c.translate(text, gtranslate.TranslationParams{
		From: service.SourceOrAuto(sourceLang),
		To:   targetLang,
	})
	if err != nil {
		return "", &service.Error{Code: "google", Message: err.Error(), Err: err}
	}
	return out, nil
}
