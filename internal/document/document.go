// Package document extracts text from uploaded RAG source documents.
// Only .txt and .pdf files are accepted.
package document

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

const maxDocumentSize = 32 * 1024 * 1024 // 32MB

// ErrUnsupported is returned for files that are neither .txt nor .pdf.
var ErrUnsupported = errors.New("unsupported document type (want .txt or .pdf)")

// Supported reports whether path has an accepted extension.
func Supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".pdf":
		return true
	}
	return false
}

// Reader extracts document text.
type Reader struct {
	// PDFToText is the pdftotext binary; empty means look it up on PATH.
	PDFToText string
}

// ReadText returns the text content of path.
func (r *Reader) ReadText(ctx context.Context, path string) (string, error) {
	if !Supported(path) {
		return "", fmt.Errorf("%s: %w", filepath.Base(path), ErrUnsupported)
	}
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("failed to stat file: %w", err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s is a directory", path)
	}
	if info.Size() > maxDocumentSize {
		return "", fmt.Errorf("document too large: %d bytes (max %d)", info.Size(), maxDocumentSize)
	}

	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return r.readPDF(ctx, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%s is not valid UTF-8 text", filepath.Base(path))
	}
	return string(data), nil
}

// readPDF extracts text with pdftotext (poppler-utils), falling back to a
// minimal scan of the PDF text objects when the binary is unavailable.
func (r *Reader) readPDF(ctx context.Context, path string) (string, error) {
	bin := r.PDFToText
	if bin == "" {
		bin, _ = exec.LookPath("pdftotext")
	}
	if bin != "" {
		out, err := exec.CommandContext(ctx, bin, "-layout", path, "-").Output()
		if err != nil {
			return "", fmt.Errorf("pdftotext error: %w", err)
		}
		return string(out), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read PDF: %w", err)
	}
	if text := extractBasicPDFText(data); text != "" {
		return text, nil
	}
	return "", fmt.Errorf("cannot extract text from %s; install poppler-utils for PDF support", filepath.Base(path))
}

// extractBasicPDFText pulls the literal strings out of BT..ET text objects.
// Compressed streams are not decoded.
func extractBasicPDFText(data []byte) string {
	content := string(data)
	var result strings.Builder
	seen := make(map[string]bool)

	idx := 0
	for idx < len(content) {
		btIdx := strings.Index(content[idx:], "BT")
		if btIdx < 0 {
			break
		}
		btIdx += idx
		etIdx := strings.Index(content[btIdx:], "ET")
		if etIdx < 0 {
			break
		}
		etIdx += btIdx

		block := content[btIdx:etIdx]
		for i := 0; i < len(block); i++ {
			if block[i] != '(' {
				continue
			}
			depth := 1
			start := i + 1
			for j := start; j < len(block); j++ {
				if block[j] == '\\' {
					j++
					continue
				}
				if block[j] == '(' {
					depth++
				} else if block[j] == ')' {
					depth--
					if depth == 0 {
						text := block[start:j]
						if !seen[text] && strings.TrimSpace(text) != "" {
							seen[text] = true
							if result.Len() > 0 {
								result.WriteByte(' ')
							}
							result.WriteString(text)
						}
						i = j
						break
					}
				}
			}
		}
		idx = etIdx + 2
	}
	return strings.TrimSpace(result.String())
}
