// Package viewer maps parsed citations onto the native PDF viewer's
// "#page=N" URL contract.
package viewer

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/papercomputeco/ragdesk/pkg/answer"
)

// FileInfoer looks up the web-accessible URL of a document's file.
type FileInfoer interface {
	FileURL(ctx context.Context, documentID string) (string, error)
}

// FileInfoerFunc adapts a function to FileInfoer.
type FileInfoerFunc func(ctx context.Context, documentID string) (string, error)

// FileURL calls f.
func (f FileInfoerFunc) FileURL(ctx context.Context, documentID string) (string, error) {
	return f(ctx, documentID)
}

// Link is a citation ready to be opened in a viewer.
type Link struct {
	Citation answer.Citation
	Page     int
	URL      string
}

// DisplayPage returns the page a citation should open at. Records without a
// page number open at the first page.
func DisplayPage(c answer.Citation) int {
	if c.Page < 1 {
		return 1
	}
	return c.Page
}

// PageURL points fileURL at the citation's display page, replacing any
// fragment already present.
func PageURL(fileURL string, c answer.Citation) (string, error) {
	if fileURL == "" {
		return "", errors.New("file url is empty")
	}

	u, err := url.Parse(fileURL)
	if err != nil {
		return "", fmt.Errorf("parsing file url: %w", err)
	}

	u.Fragment = "page=" + strconv.Itoa(DisplayPage(c))
	u.RawFragment = ""
	return u.String(), nil
}

// Resolve looks up the document's file once and returns a Link per citation,
// in citation order. It returns nil without a lookup when there are no
// citations.
func Resolve(ctx context.Context, files FileInfoer, documentID string, citations []answer.Citation) ([]Link, error) {
	if len(citations) == 0 {
		return nil, nil
	}

	fileURL, err := files.FileURL(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("looking up file for document %s: %w", documentID, err)
	}

	links := make([]Link, 0, len(citations))
	for _, c := range citations {
		target, err := PageURL(fileURL, c)
		if err != nil {
			return nil, err
		}
		links = append(links, Link{
			Citation: c,
			Page:     DisplayPage(c),
			URL:      target,
		})
	}
	return links, nil
}
