package utils

import (
	"bytes"
	"html/template"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	bodyMarkdown = goldmark.New(
		goldmark.WithExtensions(extension.Strikethrough, extension.Linkify, extension.Table),
		goldmark.WithRendererOptions(html.WithHardWraps()),
	)
	bodyPolicy = newBodyPolicy()
)

func newBodyPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowImages()
	p.AddTargetBlankToFullyQualifiedLinks(true)
	return p
}

// RenderMarkdown turns a thread or comment body into sanitized HTML.
// Line breaks typed by the author are kept.
func RenderMarkdown(source string) template.HTML {
	if strings.TrimSpace(source) == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := bodyMarkdown.Convert([]byte(source), &buf); err != nil {
		return template.HTML("<p>" + template.HTMLEscapeString(source) + "</p>")
	}
	return decorateBody(bodyPolicy.SanitizeBytes(buf.Bytes()))
}

// decorateBody marks outbound links as user content and defers image loads.
// Links back into the forum are left alone.
func decorateBody(sanitized []byte) template.HTML {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(sanitized))
	if err != nil {
		return template.HTML(sanitized)
	}

	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
			a.SetAttr("rel", "nofollow ugc noopener noreferrer")
		}
	})
	doc.Find("img").Each(func(_ int, img *goquery.Selection) {
		img.SetAttr("loading", "lazy")
		img.SetAttr("referrerpolicy", "no-referrer")
	})

	// The parser wraps the fragment in html/body.
	out, err := doc.Find("body").Html()
	if err != nil {
		return template.HTML(sanitized)
	}
	return template.HTML(out)
}
