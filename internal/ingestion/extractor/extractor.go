package extractor

import (
	"archive/zip"
	"bytes"
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/yungbote/examify-backend/internal/logger"
)

// -------------------- Kind detection --------------------

func ClassifyKind(name, declaredType string, smallBytes []byte) string {
	d := strings.ToLower(strings.TrimSpace(declaredType))
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))

	has := func(kinds ...string) bool {
		for _, k := range kinds {
			if d == k || ext == k {
				return true
			}
		}
		return false
	}

	switch {
	case has("png", "jpg", "jpeg", "webp", "gif") || strings.HasPrefix(d, "image/"):
		return "image"
	case has("pdf") || d == "application/pdf" || isPDFHeader(smallBytes):
		return "pdf"
	case has("docx") || strings.Contains(d, "wordprocessingml"):
		return "docx"
	case has("pptx") || strings.Contains(d, "presentationml"):
		return "pptx"
	case has("txt", "md", "csv", "log", "html", "htm") || strings.HasPrefix(d, "text/"):
		return "text"
	default:
		return "unknown"
	}
}

func isPDFHeader(b []byte) bool {
	if len(b) < 5 {
		return false
	}
	return string(b[:5]) == "%PDF-"
}

// -------------------- Best-effort extraction --------------------

// ExtractText never fails: on any decode or parse problem it logs and returns
// an empty string so downstream stages see the empty-content case.
func ExtractText(log *logger.Logger, name, declaredType string, data []byte) string {
	if len(data) == 0 {
		return ""
	}
	kind := ClassifyKind(name, declaredType, data[:minInt(len(data), 16)])

	var (
		text string
		err  error
	)
	switch kind {
	case "pdf":
		text, err = extractPDFText(data)
	case "docx":
		text, err = extractZipXMLText(data, func(p string) bool { return p == "word/document.xml" })
	case "pptx":
		text, err = extractZipXMLText(data, func(p string) bool {
			return strings.HasPrefix(p, "ppt/slides/slide") && strings.HasSuffix(p, ".xml")
		})
	case "text":
		text = string(data)
		if strings.HasSuffix(strings.ToLower(name), ".html") || strings.HasSuffix(strings.ToLower(name), ".htm") {
			text = stripHTMLTags(text)
		}
	case "image":
		// OCR happens upstream via the Vision client; raw image bytes carry no text.
		err = fmt.Errorf("image bytes require OCR")
	default:
		// Raw byte decode with invalid-byte tolerance.
		text = string(data)
	}

	if err != nil {
		if log != nil {
			log.Error("Text extraction failed", "file_name", name, "kind", kind, "error", err)
		}
		return ""
	}
	return sanitizeUTF8(text)
}

// extractPDFText pulls text only when the bytes are mostly printable, which
// covers uncompressed or pre-converted PDFs. Compressed streams need an OCR
// or DocAI pass that this deployment does not carry.
func extractPDFText(data []byte) (string, error) {
	s := string(data)
	printable := 0
	total := 0
	for _, r := range s {
		total++
		if r == '\n' || r == '\r' || r == '\t' || r == ' ' {
			printable++
			continue
		}
		if r >= 32 && r != 127 {
			printable++
		}
	}
	if total > 0 && float64(printable)/float64(total) > 0.90 {
		return s, nil
	}
	return "", fmt.Errorf("pdf stream is not plain text")
}

func extractZipXMLText(data []byte, want func(path string) bool) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open archive: %w", err)
	}

	names := make([]string, 0, 4)
	for _, f := range zr.File {
		if want(f.Name) {
			names = append(names, f.Name)
		}
	}
	if len(names) == 0 {
		return "", fmt.Errorf("no text parts found in archive")
	}
	sort.Strings(names)

	var b strings.Builder
	for _, n := range names {
		f, err := zr.Open(n)
		if err != nil {
			return "", fmt.Errorf("open %s: %w", n, err)
		}
		var part bytes.Buffer
		_, copyErr := part.ReadFrom(f)
		_ = f.Close()
		if copyErr != nil {
			return "", fmt.Errorf("read %s: %w", n, copyErr)
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(stripOfficeXML(part.String()))
	}
	return b.String(), nil
}

var (
	paraBreakRe = regexp.MustCompile(`</(w:p|a:p)>`)
	xmlTagRe    = regexp.MustCompile(`(?s)<[^>]*>`)
)

func stripOfficeXML(s string) string {
	s = paraBreakRe.ReplaceAllString(s, "\n")
	return xmlTagRe.ReplaceAllString(s, " ")
}

func stripHTMLTags(s string) string {
	return xmlTagRe.ReplaceAllString(s, " ")
}

func sanitizeUTF8(s string) string {
	if s == "" {
		return s
	}
	if utf8.ValidString(s) {
		return s
	}
	// Replace invalid byte sequences with a space (keeps words separated)
	return strings.ToValidUTF8(s, " ")
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
