// Package resumetext extracts plain text from uploaded resume files (PDF, DOCX, plain text).
package resumetext

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
)

// Supported media types.
const (
	MIMEPlain = "text/plain"
	MIMEPDF   = "application/pdf"
	MIMEDocx  = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

var (
	// ErrUnsupportedType is returned for files that are not PDF, DOCX or plain text.
	ErrUnsupportedType = errors.New("unsupported file type")
	// ErrInvalidEncoding is returned for plain text that is not valid UTF-8.
	ErrInvalidEncoding = errors.New("text file is not valid UTF-8")
)

var extensionTypes = map[string]string{
	".txt":  MIMEPlain,
	".md":   MIMEPlain,
	".pdf":  MIMEPDF,
	".docx": MIMEDocx,
}

// DetectType resolves the media type of an upload from its file extension, the declared
// Content-Type, and finally the content itself.
func DetectType(filename, declared string, data []byte) string {
	if t, ok := extensionTypes[strings.ToLower(filepath.Ext(filename))]; ok {
		return t
	}

	if declared != "" {
		if mediaType, _, err := mime.ParseMediaType(declared); err == nil && mediaType != "application/octet-stream" {
			return mediaType
		}
	}

	sniffed, _, _ := mime.ParseMediaType(http.DetectContentType(data))

	return sniffed
}

// Extract returns the text content of data interpreted as mediaType.
func Extract(mediaType string, data []byte) (string, error) {
	switch {
	case mediaType == MIMEPDF:
		return extractPDFText(data)
	case mediaType == MIMEDocx:
		return extractDocxText(data)
	case strings.HasPrefix(mediaType, "text/"):
		if !utf8.Valid(data) {
			return "", ErrInvalidEncoding
		}

		return string(data), nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, mediaType)
	}
}

func extractPDFText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("read pdf: %w", err)
	}

	var sb strings.Builder

	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("read pdf page %d: %w", i, err)
		}

		sb.WriteString(text)
		sb.WriteString("\n")
	}

	return sb.String(), nil
}

func extractDocxText(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("parse docx: %w", err)
	}
	defer func() { _ = doc.Close() }()

	return wordXMLText(doc.Editable().GetContent())
}

// wordXMLText collects the runs of a WordprocessingML body, one line per paragraph.
func wordXMLText(content string) (string, error) {
	dec := xml.NewDecoder(strings.NewReader(content))

	var (
		sb     strings.Builder
		inText bool
	)

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return "", fmt.Errorf("parse docx body: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				sb.WriteString("\t")
			case "br":
				sb.WriteString("\n")
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				sb.WriteString("\n")
			}
		case xml.CharData:
			if inText {
				sb.Write(t)
			}
		}
	}

	return sb.String(), nil
}
