package crawler

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/PuerkitoBio/goquery"
)

// loadDocument fetches url and parses the body into a traversable document.
// Every failure is reported as a *FetchError.
func loadDocument(ctx context.Context, fetcher Fetcher, url string) (*goquery.Document, FetchResponse, error) {
	resp, err := fetcher.Fetch(ctx, FetchRequest{URL: url})
	if err != nil {
		var fe *FetchError
		if errors.As(err, &fe) {
			return nil, resp, err
		}
		return nil, resp, &FetchError{URL: url, StatusCode: resp.StatusCode, Err: err}
	}
	if resp.StatusCode != 0 && (resp.StatusCode < 200 || resp.StatusCode > 299) {
		return nil, resp, &FetchError{URL: url, StatusCode: resp.StatusCode, Err: ErrUnexpectedStatus}
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
	if err != nil {
		return nil, resp, &FetchError{URL: url, StatusCode: resp.StatusCode, Err: fmt.Errorf("parse html: %w", err)}
	}
	return doc, resp, nil
}
