package ingest

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/akolanti/pdfrag/internal/domain/commonModels"
	"github.com/akolanti/pdfrag/pkg/logger_i"
	"github.com/dslipak/pdf"
	"github.com/lu4p/cat"
)

const pageExtractTimeout = 10 * time.Second

// ExtractFunc turns one file into its non-blank pages, numbered from 1.
type ExtractFunc func(path string) ([]commonModels.Page, error)

// ExtractDocument picks the extractor by extension. Unsupported files are an error.
func ExtractDocument(path string) ([]commonModels.Page, error) {
	switch commonModels.GetDocType(path) {
	case commonModels.PDF:
		return extractPDF(path)
	case commonModels.DOCX:
		return extractDocxTxtRtf(path)
	default:
		return nil, fmt.Errorf("unsupported document type: %s", filepath.Base(path))
	}
}

func extractPDF(path string) ([]commonModels.Page, error) {
	log := logger_i.NewLogger("extraction").With("file", filepath.Base(path))
	log.Debug("attempting extraction")

	f, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf %s: %w", filepath.Base(path), err)
	}

	source := filepath.Base(path)
	var pages []commonModels.Page
	numPages := f.NumPage()
	log.Debug("extractPDF", "number of pages", numPages)
	for i := 1; i <= numPages; i++ {
		page := f.Page(i)
		if page.V.IsNull() {
			log.Debug("page value is null", "page", i)
			continue
		}

		content, err := protectExtract(page)
		if err != nil {
			// one bad page should not lose the rest of the document
			log.Warn("Error parsing page content", "page", i, "error", err)
			continue
		}

		content = strings.TrimSpace(content)
		if content == "" {
			continue
		}
		pages = append(pages, commonModels.NewPage(content, i, source))
	}
	return pages, nil
}

// extractDocxTxtRtf reads .odt, .docx, .rtf or plain text. These formats carry no page
// breaks, so the whole document becomes page 1.
func extractDocxTxtRtf(path string) ([]commonModels.Page, error) {
	text, err := cat.File(path)
	if err != nil {
		return nil, fmt.Errorf("failed to extract %s: %w", filepath.Base(path), err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	return []commonModels.Page{commonModels.NewPage(text, 1, filepath.Base(path))}, nil
}

// protectExtract bounds GetPlainText, which can spin forever on malformed content streams.
// It also turns a panic inside the pdf package into an error.
func protectExtract(page pdf.Page) (string, error) {
	type result struct {
		content string
		err     error
	}
	resChan := make(chan result, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				resChan <- result{err: fmt.Errorf("pdf parser panic: %v", r)}
			}
		}()
		content, err := page.GetPlainText(nil)
		resChan <- result{content, err}
	}()
	select {
	case r := <-resChan:
		return r.content, r.err
	case <-time.After(pageExtractTimeout):
		return "", errors.New("page extraction timed out")
	}
}
