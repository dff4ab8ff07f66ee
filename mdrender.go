package dxl2html

import (
	"fmt"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
)

// RenderMarkdown produces a best-effort Markdown rendition of an
// already-rendered HTML page. Markdown is a convenience output:
// formatting that has no Markdown equivalent (cell colors, inline
// fonts) degrades to plain text, and only a converter failure is an
// error.
func RenderMarkdown(htmlPage string) (string, error) {
	conv := md.NewConverter("", true, nil)
	conv.Use(plugin.GitHubFlavored())

	out, err := conv.ConvertString(htmlPage)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMarkdownConversion, err)
	}
	return out, nil
}
