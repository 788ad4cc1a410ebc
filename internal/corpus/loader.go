package corpus

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"retailqa/internal/util"

	"github.com/ledongthuc/pdf"
)

// Load reads every markdown and PDF file in docsDir and chunks it. Markdown
// documents split on headings, falling back to blank-line paragraphs when the
// document has none. Sections longer than maxChunkRunes are split further.
// A missing or empty directory yields an empty corpus, not an error.
func Load(docsDir string, maxChunkRunes int) ([]Chunk, error) {
	entries, err := os.ReadDir(docsDir)
	if err != nil {
		if os.IsNotExist(err) {
			log.Printf("corpus: docs directory %s not found, starting with empty corpus", docsDir)
			return nil, nil
		}
		return nil, fmt.Errorf("read docs dir: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext == ".md" || ext == ".pdf" {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	chunks := make([]Chunk, 0, len(names)*4)
	for _, name := range names {
		path := util.SafeJoin(docsDir, name)
		var text string
		if strings.EqualFold(filepath.Ext(name), ".pdf") {
			text, err = extractPDFText(path)
			if err != nil {
				log.Printf("corpus: skipping %s: %v", name, err)
				continue
			}
		} else {
			b, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("read %s: %w", name, err)
			}
			text = string(b)
		}

		docName := strings.TrimSuffix(name, filepath.Ext(name))
		idx := 0
		for _, section := range SplitSections(text) {
			for _, part := range util.ChunkText(section, maxChunkRunes, 0) {
				chunks = append(chunks, Chunk{
					ID:      fmt.Sprintf("%s::chunk%d", docName, idx),
					Content: part,
					Source:  name,
				})
				idx++
			}
		}
	}
	return chunks, nil
}

// SplitSections divides document text at markdown headings. Text before the
// first heading forms its own section. Documents without headings split on
// blank lines instead.
func SplitSections(text string) []string {
	lines := strings.Split(text, "\n")
	hasHeading := false
	for _, line := range lines {
		if isHeading(line) {
			hasHeading = true
			break
		}
	}

	if !hasHeading {
		paras := strings.Split(text, "\n\n")
		out := make([]string, 0, len(paras))
		for _, p := range paras {
			if s := strings.TrimSpace(p); s != "" {
				out = append(out, s)
			}
		}
		return out
	}

	out := make([]string, 0, 8)
	var b strings.Builder
	flush := func() {
		if s := strings.TrimSpace(b.String()); s != "" {
			out = append(out, s)
		}
		b.Reset()
	}
	for _, line := range lines {
		if isHeading(line) {
			flush()
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	flush()
	return out
}

func isHeading(line string) bool {
	t := strings.TrimSpace(line)
	return strings.HasPrefix(t, "#")
}

func extractPDFText(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	reader, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}
	if _, err := io.Copy(&buf, reader); err != nil {
		return "", fmt.Errorf("copy pdf text: %w", err)
	}
	text := util.SanitizeText(buf.String())
	if text == "" {
		return "", fmt.Errorf("no extractable text in %s", filepath.Base(path))
	}
	return text, nil
}
