// Package webui embeds the tokenizer preview page.
package webui

import _ "embed"

//go:embed static/index.html
var index []byte

// Index returns the preview page markup.
func Index() []byte {
	return index
}
