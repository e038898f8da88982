package prompt

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wagiedev/acp-client-go/internal/message"
)

func TestBuild_Order(t *testing.T) {
	blocks := Build(&Request{
		Text:            "explain",
		CurrentFile:     &File{Path: "/src/main.go", Text: "package main"},
		ReferencedFiles: []File{{Path: "/src/util.go"}},
		Selection:       &Selection{Path: "/src/main.go", Text: "func main()"},
		PDFSelection:    &PDFSelection{Path: "/docs/paper.pdf", Page: 3, Text: "abstract"},
	})

	require.Len(t, blocks, 5)

	types := make([]string, 0, len(blocks))
	for _, b := range blocks {
		types = append(types, b.BlockType())
	}

	require.Equal(t, []string{
		message.BlockTypeText,
		message.BlockTypeResource,
		message.BlockTypeResourceLink,
		message.BlockTypeText,
		message.BlockTypeText,
	}, types)

	require.Equal(t, "explain", message.TextOf(blocks[0]))
	require.Contains(t, message.TextOf(blocks[3]), "func main()")
	require.Contains(t, message.TextOf(blocks[4]), "(page 3)")
	require.Contains(t, message.TextOf(blocks[4]), "abstract")
}

func TestBuild_OmitsEmptyParts(t *testing.T) {
	require.Empty(t, Build(&Request{}))
	require.Empty(t, Build(nil))

	blocks := Build(&Request{Text: "hi", Selection: &Selection{}})
	require.Len(t, blocks, 1)
}

func TestFileBlock_WireShape(t *testing.T) {
	embedded, err := json.Marshal(FileBlock(File{Path: "/a/b.go", Text: "package b"}))
	require.NoError(t, err)
	require.JSONEq(t, `{
		"type": "resource",
		"resource": {"uri": "file:///a/b.go", "mimeType": "text/x-go", "text": "package b"}
	}`, string(embedded))

	link, err := json.Marshal(FileBlock(File{Path: "/a/notes.md"}))
	require.NoError(t, err)
	require.JSONEq(t, `{
		"type": "resource_link",
		"uri": "file:///a/notes.md",
		"name": "notes.md",
		"mimeType": "text/markdown"
	}`, string(link))
}

func TestMimeType(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{path: "main.go", want: "text/x-go"},
		{path: "MAIN.GO", want: "text/x-go"},
		{path: "lib.rs", want: "text/x-rust"},
		{path: "paper.pdf", want: "application/pdf"},
		{path: "image.png", want: "image/png"},
		{path: "Makefile", want: "text/plain"},
		{path: "data.unknownext", want: "text/plain"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, MimeType(tt.path))
		})
	}
}

func TestExpandReferences(t *testing.T) {
	root := t.TempDir()

	for _, p := range []string{"a.go", "pkg/b.go", "pkg/deep/c.go", "pkg/readme.md"} {
		full := filepath.Join(root, p)
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(p), 0o600))
	}

	got, err := ExpandReferences(root, []string{"**/*.go", "pkg/*.md", "a.go", "missing/*.txt"})
	require.NoError(t, err)

	require.Equal(t, []string{
		filepath.Join(root, "a.go"),
		filepath.Join(root, "pkg/b.go"),
		filepath.Join(root, "pkg/deep/c.go"),
		filepath.Join(root, "pkg/readme.md"),
	}, got)
}

func TestExpandReferences_SkipsDirectories(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "dir"), 0o755))

	got, err := ExpandReferences(root, []string{"*"})
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestExpandReferences_BadPattern(t *testing.T) {
	_, err := ExpandReferences(t.TempDir(), []string{"[unclosed"})
	require.Error(t, err)
}

func TestReadFiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o600))

	files, err := ReadFiles([]string{path})
	require.NoError(t, err)
	require.Equal(t, []File{{Path: path, Text: "hello"}}, files)

	_, err = ReadFiles([]string{path + ".missing"})
	require.Error(t, err)
}
