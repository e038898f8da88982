// Package prompt assembles the content blocks of a session/prompt request.
package prompt

import (
	"fmt"
	"mime"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/wagiedev/acp-client-go/internal/message"
)

// File is a file attached to a prompt. When Text is set the contents are
// embedded; otherwise the agent receives a link and reads the file itself.
type File struct {
	Path string
	Text string
}

// Selection is text the user highlighted in an editor.
type Selection struct {
	Path string
	Text string
}

// PDFSelection is text the user highlighted in a PDF viewer.
type PDFSelection struct {
	Path string
	Page int
	Text string
}

// Request is everything the user supplied for one turn.
type Request struct {
	Text            string
	CurrentFile     *File
	ReferencedFiles []File
	Selection       *Selection
	PDFSelection    *PDFSelection
}

// Build returns the prompt blocks for req in wire order: user text, current
// file, referenced files, editor selection, PDF selection. Empty parts are
// omitted. A nil req yields no blocks.
func Build(req *Request) []message.ContentBlock {
	if req == nil {
		return nil
	}

	blocks := make([]message.ContentBlock, 0, 2+len(req.ReferencedFiles))

	if req.Text != "" {
		blocks = append(blocks, message.NewTextBlock(req.Text))
	}

	if req.CurrentFile != nil && req.CurrentFile.Path != "" {
		blocks = append(blocks, FileBlock(*req.CurrentFile))
	}

	for _, f := range req.ReferencedFiles {
		if f.Path == "" {
			continue
		}

		blocks = append(blocks, FileBlock(f))
	}

	if s := req.Selection; s != nil && s.Text != "" {
		blocks = append(blocks, message.NewTextBlock(
			fmt.Sprintf("Selected text from %s:\n```\n%s\n```", displayPath(s.Path), s.Text),
		))
	}

	if s := req.PDFSelection; s != nil && s.Text != "" {
		blocks = append(blocks, message.NewTextBlock(
			fmt.Sprintf("Selected text from %s (page %d):\n%s", displayPath(s.Path), s.Page, s.Text),
		))
	}

	return blocks
}

// FileBlock returns an embedded resource when f carries text, otherwise a
// resource link.
func FileBlock(f File) message.ContentBlock {
	uri := FileURI(f.Path)
	mimeType := MimeType(f.Path)

	if f.Text != "" {
		return &message.ResourceBlock{
			Type: message.BlockTypeResource,
			Resource: message.EmbeddedResource{
				URI:      uri,
				MimeType: mimeType,
				Text:     f.Text,
			},
		}
	}

	return &message.ResourceLinkBlock{
		Type:     message.BlockTypeResourceLink,
		URI:      uri,
		Name:     filepath.Base(f.Path),
		MimeType: mimeType,
	}
}

// FileURI converts a path into a file:// URI. Relative paths are made
// absolute against the process working directory.
func FileURI(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}

	u := url.URL{Scheme: "file", Path: filepath.ToSlash(path)}

	return u.String()
}

func displayPath(path string) string {
	if path == "" {
		return "the editor"
	}

	return path
}

// sourceTypes covers extensions the system MIME database usually lacks or
// reports as binary.
var sourceTypes = map[string]string{
	".go":    "text/x-go",
	".rs":    "text/x-rust",
	".py":    "text/x-python",
	".rb":    "text/x-ruby",
	".java":  "text/x-java",
	".kt":    "text/x-kotlin",
	".c":     "text/x-c",
	".h":     "text/x-c",
	".cc":    "text/x-c++",
	".cpp":   "text/x-c++",
	".hpp":   "text/x-c++",
	".cs":    "text/x-csharp",
	".swift": "text/x-swift",
	".ts":    "text/typescript",
	".tsx":   "text/typescript",
	".js":    "text/javascript",
	".jsx":   "text/javascript",
	".json":  "application/json",
	".yaml":  "application/yaml",
	".yml":   "application/yaml",
	".toml":  "application/toml",
	".md":    "text/markdown",
	".sh":    "text/x-shellscript",
	".sql":   "application/sql",
	".html":  "text/html",
	".css":   "text/css",
	".txt":   "text/plain",
	".pdf":   "application/pdf",
}

// MimeType guesses a file's MIME type from its extension: the source type
// table first, then the system database, then text/plain.
func MimeType(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return "text/plain"
	}

	if t, ok := sourceTypes[ext]; ok {
		return t
	}

	if t := mime.TypeByExtension(ext); t != "" {
		if mediaType, _, err := mime.ParseMediaType(t); err == nil {
			return mediaType
		}

		return t
	}

	return "text/plain"
}
