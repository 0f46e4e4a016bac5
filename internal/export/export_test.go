// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loorisr/tinychat/internal/model"
)

func testConversation() *model.Conversation {
	conv := model.NewConversation()
	conv.Time = model.StampOf(time.Date(2024, 6, 10, 12, 30, 0, 0, time.UTC))
	conv.Append(model.RoleUser, "How do I print in *Go*?")
	conv.Append(model.RoleTool, "docs: fmt.Println <script>")
	conv.Append(model.RoleAssistant, "Use `fmt.Println`:\n\n```go\nfmt.Println(\"hi\")\n```\n<script>alert(1)</script>")
	return conv
}

func testOptions(dir string) *Options {
	opts := DefaultOptions()
	opts.OutputDir = dir
	opts.Now = func() time.Time { return time.Date(2024, 6, 11, 0, 0, 0, 0, time.UTC) }
	return opts
}

func TestNew(t *testing.T) {
	for format, ext := range map[string]string{"markdown": ".md", "MD": ".md", "html": ".html", "json": ".json"} {
		exp, err := New(format, nil)
		require.NoError(t, err, format)
		assert.Equal(t, ext, exp.FileExtension())
		assert.NotEmpty(t, exp.MimeType())
	}
	_, err := New("pdf", nil)
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestMarkdownExport(t *testing.T) {
	out, err := NewMarkdownExporter(testOptions(t.TempDir())).Export(testConversation())
	require.NoError(t, err)
	md := string(out)

	assert.True(t, strings.HasPrefix(md, "---\ntitle: \"How do I print in *Go*?\"\n"), md)
	assert.Contains(t, md, "updated: 2024-06-10T12:30:00Z")
	assert.Contains(t, md, "exported: 2024-06-11T00:00:00Z")
	assert.Contains(t, md, "messages: 3")
	assert.Contains(t, md, "# How do I print in \\*Go\\*?")
	assert.Contains(t, md, "### Tool\n\n```\ndocs: fmt.Println <script>\n```")
	assert.Contains(t, md, "### Assistant\n\nUse `fmt.Println`")
}

func TestMarkdownExport_NoMetadata(t *testing.T) {
	opts := testOptions(t.TempDir())
	opts.IncludeMetadata = false
	out, err := NewMarkdownExporter(opts).Export(testConversation())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(out), "# "))
}

func TestHTMLExport_SanitizesContent(t *testing.T) {
	out, err := NewHTMLExporter(testOptions(t.TempDir())).Export(testConversation())
	require.NoError(t, err)
	page := string(out)

	assert.Contains(t, page, `<body class="dark-theme">`)
	assert.Contains(t, page, "<em>Go</em>")
	assert.Contains(t, page, `<code class="language-go">`)
	assert.Contains(t, page, "docs: fmt.Println &lt;script&gt;")
	assert.NotContains(t, page, "<script>alert(1)</script>")
	assert.Contains(t, page, "3 messages")
}

func TestJSONExport(t *testing.T) {
	out, err := NewJSONExporter(nil).Export(testConversation())
	require.NoError(t, err)

	var decoded model.Conversation
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Equal(t, testConversation(), &decoded)
}

func TestExportRejectsEmpty(t *testing.T) {
	for _, format := range Formats {
		exp, err := New(format, nil)
		require.NoError(t, err)
		_, err = exp.Export(model.NewConversation())
		assert.ErrorIs(t, err, ErrEmptyConversation, format)
	}
}

func TestToFile(t *testing.T) {
	dir := t.TempDir()
	opts := testOptions(filepath.Join(dir, "out"))
	exp, err := New("markdown", opts)
	require.NoError(t, err)

	path, err := ToFile(testConversation(), exp, opts)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "out"), filepath.Dir(path))
	assert.True(t, strings.HasSuffix(path, ".md"))
	assert.Contains(t, filepath.Base(path), "conversation_How_do_I_print_in_-Go-")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "### You")
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "a-b-c_d", sanitizeFilename("a/b:c d"))
	assert.Equal(t, "conversation", sanitizeFilename(""))
	assert.Len(t, []rune(sanitizeFilename(strings.Repeat("x", 80))), 50)
}
