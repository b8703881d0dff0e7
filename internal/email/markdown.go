package email

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/renderer/html"
)

var md = goldmark.New(
	goldmark.WithRendererOptions(html.WithHardWraps()),
)

// RenderMarkdown converts a Markdown body into the HTML sent to recipients.
// Raw HTML in the source is dropped.
func RenderMarkdown(source string) (string, error) {
	const op = "email.RenderMarkdown"

	var buf bytes.Buffer
	if err := md.Convert([]byte(source), &buf); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return buf.String(), nil
}
