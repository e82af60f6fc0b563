package apiclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
)

// ListDocuments returns the documents of the client's tenant.
func (c *Client) ListDocuments(ctx context.Context) ([]Document, error) {
	var out listResponse[Document]
	if err := c.doJSON(ctx, http.MethodGet, c.endpoint("documents"), nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// UploadDocument uploads r as a multipart "file" field named name.
func (c *Client) UploadDocument(ctx context.Context, name string, r io.Reader) (*Document, error) {
	if name == "" {
		return nil, errors.New("document name is required")
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part, err := mw.CreateFormFile("file", filepath.Base(name))
	if err != nil {
		return nil, fmt.Errorf("creating form file: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("reading document: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("closing multipart body: %w", err)
	}

	var out Document
	err = c.do(ctx, http.MethodPost, c.endpoint("documents"), &buf, mw.FormDataContentType(), &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// UploadFile uploads the file at path.
func (c *Client) UploadFile(ctx context.Context, path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening document: %w", err)
	}
	defer f.Close()

	return c.UploadDocument(ctx, filepath.Base(path), f)
}

// FileInfo returns the web-accessible location of a document's file.
func (c *Client) FileInfo(ctx context.Context, documentID string) (*FileInfo, error) {
	if documentID == "" {
		return nil, errors.New("document id is required")
	}

	var out FileInfo
	if err := c.doJSON(ctx, http.MethodGet, c.endpoint("documents", documentID, "file"), nil, &out); err != nil {
		return nil, err
	}
	if out.URL == "" {
		return nil, fmt.Errorf("document %s has no file url", documentID)
	}
	return &out, nil
}

// FileURL is FileInfo reduced to the URL.
func (c *Client) FileURL(ctx context.Context, documentID string) (string, error) {
	info, err := c.FileInfo(ctx, documentID)
	if err != nil {
		return "", err
	}
	return info.URL, nil
}
