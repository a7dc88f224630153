package preview

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// ErrNotPDF indicates the upstream object is not a well-formed PDF.
var ErrNotPDF = errors.New("object is not a valid PDF")

// ErrObjectNotFound indicates the storage upstream has no object for the
// requested key.
var ErrObjectNotFound = errors.New("object not found")

// Proxy fetches statement PDFs from the storage upstream on behalf of
// the browser, which cannot reach the bucket directly. Every payload is
// parsed and validated with pdfcpu before it is served; a corrupt or
// non-PDF object is rejected here rather than handed to the viewer.
type Proxy struct {
	client  *http.Client
	baseURL string
	maxSize int64
}

// NewProxy creates a Proxy against the given storage base URL. maxSize
// bounds the accepted payload in bytes; zero means 50MB.
func NewProxy(client *http.Client, baseURL string, maxSize int64) *Proxy {
	if client == nil {
		client = http.DefaultClient
	}
	if maxSize <= 0 {
		maxSize = 50 * 1024 * 1024
	}
	return &Proxy{client: client, baseURL: baseURL, maxSize: maxSize}
}

// Fetch retrieves the object for the storage key and returns the
// validated PDF bytes.
func (p *Proxy) Fetch(ctx context.Context, storageKey string) ([]byte, error) {
	if storageKey == "" {
		return nil, errors.New("missing storage key")
	}

	reqURL := p.baseURL + "/" + url.PathEscape(storageKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build storage request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("storage fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrObjectNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("storage fetch failed with status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, p.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("read storage response: %w", err)
	}
	if int64(len(data)) > p.maxSize {
		return nil, fmt.Errorf("object exceeds %d byte limit", p.maxSize)
	}
	if len(data) == 0 {
		return nil, errors.New(ErrMsgEmptyPDF)
	}

	if err := ValidatePDF(data); err != nil {
		return nil, err
	}
	return data, nil
}

// ValidatePDF parses the payload with pdfcpu and validates its structure.
// Returns ErrNotPDF (wrapped) when the bytes are not a usable PDF.
func ValidatePDF(data []byte) error {
	ctx, err := api.ReadContext(bytes.NewReader(data), model.NewDefaultConfiguration())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNotPDF, err)
	}
	if err := api.ValidateContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrNotPDF, err)
	}
	return nil
}
