package overleaf

import (
	"fmt"
	"io"

	"golang.org/x/net/html"
)

// metaContent scans an HTML document for <meta name="..." content="...">
// and returns the content attribute of the first match. Overleaf embeds
// both the prefetched projects blob and the CSRF token this way, with the
// content HTML-entity escaped; the tokenizer unescapes it for us.
func metaContent(r io.Reader, name string) (string, error) {
	tokenizer := html.NewTokenizer(r)

	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			if tokenizer.Err() == io.EOF {
				return "", fmt.Errorf("%w: %q", ErrMissingMeta, name)
			}
			return "", fmt.Errorf("parse page: %w", tokenizer.Err())
		case html.StartTagToken, html.SelfClosingTagToken:
			token := tokenizer.Token()
			if token.Data != "meta" {
				continue
			}

			var tagName, content string
			for _, attr := range token.Attr {
				switch attr.Key {
				case "name":
					tagName = attr.Val
				case "content":
					content = attr.Val
				}
			}
			if tagName == name {
				return content, nil
			}
		}
	}
}
