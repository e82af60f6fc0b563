package api

import (
	"cmp"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/ragdesk/pkg/apiclient"
)

var (
	errDocumentNotFound = errors.New("document not found")
	errDocumentExists   = errors.New("document already exists")
	errNotPDF           = errors.New("not a pdf")
)

const statusReady = "ready"

type document struct {
	meta  apiclient.Document
	path  string
	pages []string
}

// store holds the extracted text of every PDF in a directory.
type store struct {
	dir     string
	extract Extractor

	mu   sync.RWMutex
	docs map[string]*document
}

func newStore(dir string, extract Extractor) *store {
	return &store{
		dir:     dir,
		extract: extract,
		docs:    make(map[string]*document),
	}
}

// documentID derives a stable ID from a file name so documents keep their
// ID across restarts.
func documentID(name string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("ragdesk:document:"+name)).String()
}

// load indexes every PDF in the directory. Files that fail to parse are
// skipped and reported in skipped.
func (s *store) load() (loaded int, skipped []error, err error) {
	if s.dir == "" {
		return 0, nil, nil
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, nil, fmt.Errorf("reading docs dir: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".pdf") {
			continue
		}
		if _, err := s.add(filepath.Join(s.dir, entry.Name())); err != nil {
			skipped = append(skipped, err)
			continue
		}
		loaded++
	}

	return loaded, skipped, nil
}

func (s *store) add(path string) (*apiclient.Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	pages, err := s.extract(path)
	if err != nil {
		return nil, err
	}

	name := filepath.Base(path)
	doc := &document{
		meta: apiclient.Document{
			ID:         documentID(name),
			Name:       name,
			Status:     statusReady,
			Pages:      len(pages),
			SizeBytes:  info.Size(),
			UploadedAt: info.ModTime().UTC(),
		},
		path:  path,
		pages: pages,
	}

	s.mu.Lock()
	s.docs[doc.meta.ID] = doc
	s.mu.Unlock()

	meta := doc.meta
	return &meta, nil
}

// upload writes r into the directory as name and indexes it.
func (s *store) upload(name string, r io.Reader) (*apiclient.Document, error) {
	if s.dir == "" {
		return nil, errors.New("uploads are disabled without a docs dir")
	}

	name = filepath.Base(name)
	if !strings.EqualFold(filepath.Ext(name), ".pdf") {
		return nil, fmt.Errorf("%w: %s", errNotPDF, name)
	}

	if _, err := s.get(documentID(name)); err == nil {
		return nil, fmt.Errorf("%w: %s", errDocumentExists, name)
	}

	path := filepath.Join(s.dir, name)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("%w: %s", errDocumentExists, name)
		}
		return nil, fmt.Errorf("creating %s: %w", name, err)
	}

	_, err = io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("writing %s: %w", name, err)
	}

	doc, err := s.add(path)
	if err != nil {
		os.Remove(path)
		return nil, err
	}
	doc.UploadedAt = time.Now().UTC()
	return doc, nil
}

func (s *store) get(id string) (*document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.docs[id]
	if !ok {
		return nil, errDocumentNotFound
	}
	return doc, nil
}

func (s *store) list() []apiclient.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]apiclient.Document, 0, len(s.docs))
	for _, doc := range s.docs {
		out = append(out, doc.meta)
	}
	slices.SortFunc(out, func(a, b apiclient.Document) int {
		return cmp.Compare(a.Name, b.Name)
	})
	return out
}
