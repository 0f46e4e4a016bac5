// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/loorisr/tinychat/internal/model"
)

// =============================================================================
// HTML EXPORTER
// =============================================================================

// HTMLExporter exports conversations to a self-contained HTML page.
type HTMLExporter struct {
	options  *Options
	markdown goldmark.Markdown
	policy   *bluemonday.Policy
}

// NewHTMLExporter creates an HTML exporter.
func NewHTMLExporter(opts *Options) *HTMLExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	policy := bluemonday.UGCPolicy()
	policy.AllowAttrs("class").Matching(bluemonday.SpaceSeparatedTokens).OnElements("code", "pre")
	return &HTMLExporter{
		options:  opts,
		markdown: goldmark.New(goldmark.WithExtensions(extension.GFM)),
		policy:   policy,
	}
}

type htmlMessage struct {
	Role  string
	Label string
	Body  template.HTML
}

type htmlPage struct {
	Title    string
	Theme    string
	Metadata bool
	Updated  string
	Exported string
	Count    int
	Messages []htmlMessage
}

// Export converts a conversation to HTML.
func (e *HTMLExporter) Export(conv *model.Conversation) ([]byte, error) {
	if err := validate(conv); err != nil {
		return nil, err
	}

	theme := e.options.Theme
	if theme != "light" {
		theme = "dark"
	}
	page := htmlPage{
		Title:    conv.Title(80),
		Theme:    theme,
		Metadata: e.options.IncludeMetadata,
		Exported: e.options.now().UTC().Format(time.RFC3339),
		Count:    conv.Len(),
	}
	if !conv.Time.IsZero() {
		page.Updated = conv.Time.Time().UTC().Format(time.RFC3339)
	}

	for _, msg := range conv.Messages {
		body, err := e.renderBody(msg)
		if err != nil {
			return nil, err
		}
		page.Messages = append(page.Messages, htmlMessage{
			Role:  string(msg.Role),
			Label: msg.Role.DisplayName(),
			Body:  body,
		})
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, page); err != nil {
		return nil, fmt.Errorf("render html: %w", err)
	}
	return buf.Bytes(), nil
}

// renderBody converts message markdown to sanitized HTML. Tool output is
// preformatted text.
func (e *HTMLExporter) renderBody(msg model.Message) (template.HTML, error) {
	if msg.Role == model.RoleTool {
		return template.HTML("<pre>" + template.HTMLEscapeString(msg.Content) + "</pre>"), nil
	}
	var buf bytes.Buffer
	if err := e.markdown.Convert([]byte(msg.Content), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return template.HTML(e.policy.SanitizeBytes(buf.Bytes())), nil
}

// FileExtension returns ".html".
func (e *HTMLExporter) FileExtension() string { return ".html" }

// MimeType returns the HTML MIME type.
func (e *HTMLExporter) MimeType() string { return "text/html" }

// =============================================================================
// TEMPLATE
// =============================================================================

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<meta name="generator" content="tinychat">
<title>{{.Title}}</title>
<style>
* { box-sizing: border-box; }
body { margin: 0; font-family: -apple-system, "Segoe UI", Roboto, sans-serif; line-height: 1.6; }
.dark-theme { background: #1a1b26; color: #c0caf5; --panel: #24283b; --muted: #565f89; --user: #7dcfff; --assistant: #bb9af7; --tool: #9ece6a; }
.light-theme { background: #ffffff; color: #1f2937; --panel: #f5f5f5; --muted: #6b7280; --user: #0891b2; --assistant: #7c3aed; --tool: #059669; }
.container { max-width: 860px; margin: 0 auto; padding: 2rem 1rem; }
header { border-bottom: 1px solid var(--muted); margin-bottom: 1.5rem; }
header p { color: var(--muted); font-size: 0.9rem; }
.message { background: var(--panel); border-radius: 8px; padding: 0.75rem 1rem; margin-bottom: 1rem; }
.role { font-weight: bold; margin-bottom: 0.25rem; }
.user .role { color: var(--user); }
.assistant .role { color: var(--assistant); }
.tool .role { color: var(--tool); }
pre { overflow-x: auto; padding: 0.75rem; border-radius: 6px; background: rgba(0,0,0,0.2); }
code { font-family: "SF Mono", Monaco, "Fira Code", monospace; }
footer { color: var(--muted); font-size: 0.8rem; text-align: center; margin-top: 2rem; }
</style>
</head>
<body class="{{.Theme}}-theme">
<div class="container">
<header>
<h1>{{.Title}}</h1>
{{- if .Metadata}}
<p>{{.Count}} messages{{if .Updated}} · updated {{.Updated}}{{end}}</p>
{{- end}}
</header>
<main>
{{- range .Messages}}
<section class="message {{.Role}}">
<div class="role">{{.Label}}</div>
<div class="content">{{.Body}}</div>
</section>
{{- end}}
</main>
<footer>Exported by tinychat on {{.Exported}}</footer>
</div>
</body>
</html>
`))
