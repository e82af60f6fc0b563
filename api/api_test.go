package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/ragdesk/pkg/answer"
	"github.com/papercomputeco/ragdesk/pkg/apiclient"
	testutils "github.com/papercomputeco/ragdesk/pkg/utils/test"
)

// fakePages maps file base names to page text, standing in for real PDFs.
type fakePages map[string][]string

func (f fakePages) extract(path string) ([]string, error) {
	pages, ok := f[filepath.Base(path)]
	if !ok {
		return nil, errors.New("malformed pdf")
	}
	return pages, nil
}

func writeFile(dir, name string) {
	Expect(os.WriteFile(filepath.Join(dir, name), []byte("%PDF-1.4 test"), 0o644)).To(Succeed())
}

func decode[T any](resp *http.Response) T {
	defer resp.Body.Close()
	var out T
	Expect(json.NewDecoder(resp.Body).Decode(&out)).To(Succeed())
	return out
}

var _ = Describe("Server", func() {
	var (
		server *Server
		dir    string
		pages  fakePages
		config Config
	)

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		pages = fakePages{
			"manual.pdf": {
				"Introduction to the pump.",
				"The pump pressure must stay below 40 bar during operation.",
				"Maintenance: replace the pump seal every year.",
			},
			"other.pdf": {"Unrelated text."},
		}
		writeFile(dir, "manual.pdf")
		writeFile(dir, "other.pdf")
		writeFile(dir, "notes.txt")

		config = Config{ListenAddr: ":0", DocsDir: dir, Extract: pages.extract}
	})

	JustBeforeEach(func() {
		var err error
		server, err = NewServer(config)
		Expect(err).NotTo(HaveOccurred())
	})

	request := func(method, target string, body io.Reader) *http.Response {
		req := httptest.NewRequest(method, target, body)
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		resp, err := server.app.Test(req, -1)
		Expect(err).NotTo(HaveOccurred())
		return resp
	}

	It("answers ping", func() {
		resp := request(http.MethodGet, "/ping", nil)
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
	})

	Describe("documents", func() {
		It("indexes the PDFs in the docs dir", func() {
			resp := request(http.MethodGet, "/api/documents", nil)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			docs := decode[listResponse[apiclient.Document]](resp).Items
			Expect(docs).To(HaveLen(2))
			Expect(docs[0].Name).To(Equal("manual.pdf"))
			Expect(docs[0].Pages).To(Equal(3))
			Expect(docs[0].ID).To(Equal(documentID("manual.pdf")))
			Expect(docs[0].Status).To(Equal(statusReady))
		})

		It("skips PDFs that fail to parse", func() {
			writeFile(dir, "broken.pdf")
			s, err := NewServer(config)
			Expect(err).NotTo(HaveOccurred())
			Expect(s.store.list()).To(HaveLen(2))
		})

		It("fails when the docs dir is missing", func() {
			config.DocsDir = filepath.Join(dir, "missing")
			_, err := NewServer(config)
			Expect(err).To(HaveOccurred())
		})

		It("accepts uploads", func() {
			pages["upload.pdf"] = []string{"one", "two"}

			var buf bytes.Buffer
			mw := multipart.NewWriter(&buf)
			fw, err := mw.CreateFormFile("file", "upload.pdf")
			Expect(err).NotTo(HaveOccurred())
			_, _ = fw.Write([]byte("%PDF-1.4 upload"))
			Expect(mw.Close()).To(Succeed())

			req := httptest.NewRequest(http.MethodPost, "/api/documents", &buf)
			req.Header.Set("Content-Type", mw.FormDataContentType())
			resp, err := server.app.Test(req, -1)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusCreated))

			doc := decode[apiclient.Document](resp)
			Expect(doc.Pages).To(Equal(2))
			Expect(filepath.Join(dir, "upload.pdf")).To(BeAnExistingFile())
		})

		It("rejects duplicate uploads", func() {
			_, err := server.store.upload("manual.pdf", strings.NewReader("x"))
			Expect(err).To(MatchError(errDocumentExists))
		})

		It("rejects non-PDF uploads", func() {
			_, err := server.store.upload("notes.docx", strings.NewReader("x"))
			Expect(err).To(MatchError(errNotPDF))
		})

		It("removes uploads that fail to parse", func() {
			_, err := server.store.upload("garbage.pdf", strings.NewReader("x"))
			Expect(err).To(HaveOccurred())
			Expect(filepath.Join(dir, "garbage.pdf")).NotTo(BeAnExistingFile())
		})

		It("points file info at the file route", func() {
			id := documentID("manual.pdf")
			resp := request(http.MethodGet, "/api/documents/"+id+"/file", nil)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			info := decode[apiclient.FileInfo](resp)
			Expect(info.URL).To(HaveSuffix("/files/" + id))

			resp = request(http.MethodGet, "/files/"+id, nil)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
		})

		It("returns 404 for unknown documents", func() {
			resp := request(http.MethodGet, "/api/documents/nope/file", nil)
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
		})
	})

	Describe("query", func() {
		query := func(id, q string) *http.Response {
			body, _ := json.Marshal(map[string]string{"query": q})
			return request(http.MethodPost, "/api/documents/"+id+"/query", bytes.NewReader(body))
		}

		It("streams an answer the parser turns into citations", func() {
			resp := query(documentID("manual.pdf"), "What pressure is safe for the pump?")
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(resp.Header.Get("Content-Type")).To(HavePrefix("text/event-stream"))
			defer resp.Body.Close()

			sink := testutils.NewRecordingSink()
			Expect(answer.NewQueryStream(sink).Run(context.Background(), resp.Body)).To(Succeed())

			Expect(sink.Answer()).To(ContainSubstring("Based on manual.pdf"))
			Expect(sink.Answer()).NotTo(ContainSubstring(answer.SourcesSentinel))

			calls := sink.SourceCalls()
			Expect(calls).To(HaveLen(1))
			Expect(calls[0]).To(HaveLen(3))
			Expect(calls[0][0].Page).To(Equal(2))
			Expect(calls[0][0].Text).To(ContainSubstring("below 40 bar"))
		})

		It("answers without sources when nothing matches", func() {
			resp := query(documentID("manual.pdf"), "quantum chromodynamics")
			defer resp.Body.Close()

			sink := testutils.NewRecordingSink()
			Expect(answer.NewQueryStream(sink).Run(context.Background(), resp.Body)).To(Succeed())
			Expect(sink.Answer()).To(ContainSubstring("No passage"))
			Expect(sink.SourceCalls()).To(BeEmpty())
		})

		It("rejects empty queries", func() {
			resp := query(documentID("manual.pdf"), "  ")
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("tenants and users", func() {
		It("manages tenants and their users", func() {
			resp := request(http.MethodPost, "/api/tenants", strings.NewReader(`{"name":"Acme"}`))
			Expect(resp.StatusCode).To(Equal(http.StatusCreated))
			tenant := decode[apiclient.Tenant](resp)

			resp = request(http.MethodPost, "/api/tenants/"+tenant.ID+"/users", strings.NewReader(`{"email":"a@acme.test"}`))
			Expect(resp.StatusCode).To(Equal(http.StatusCreated))
			user := decode[apiclient.User](resp)
			Expect(user.Role).To(Equal("member"))

			users := decode[listResponse[apiclient.User]](request(http.MethodGet, "/api/tenants/"+tenant.ID+"/users", nil)).Items
			Expect(users).To(HaveLen(1))

			resp = request(http.MethodDelete, "/api/tenants/"+tenant.ID+"/users/"+user.ID, nil)
			Expect(resp.StatusCode).To(Equal(http.StatusNoContent))

			resp = request(http.MethodDelete, "/api/tenants/"+tenant.ID, nil)
			Expect(resp.StatusCode).To(Equal(http.StatusNoContent))

			resp = request(http.MethodGet, "/api/tenants/"+tenant.ID+"/users", nil)
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
		})

		It("requires a tenant name", func() {
			resp := request(http.MethodPost, "/api/tenants", strings.NewReader(`{}`))
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})
	})

	Context("with a token", func() {
		BeforeEach(func() {
			config.Token = "secret"
		})

		It("rejects requests without it", func() {
			resp := request(http.MethodGet, "/api/documents", nil)
			Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))
		})

		It("accepts the bearer token", func() {
			req := httptest.NewRequest(http.MethodGet, "/api/documents", nil)
			req.Header.Set("Authorization", "Bearer secret")
			resp, err := server.app.Test(req, -1)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
		})

		It("leaves ping open", func() {
			Expect(request(http.MethodGet, "/ping", nil).StatusCode).To(Equal(http.StatusOK))
		})
	})
})

var _ = Describe("rank", func() {
	It("orders pages by term frequency and drops short words", func() {
		matches := rank([]string{"the cat", "cat cat dog", "bird"}, "a cat?", 0)
		Expect(matches).To(HaveLen(2))
		Expect(matches[0].page).To(Equal(2))
		Expect(matches[1].page).To(Equal(1))
	})

	It("limits the number of matches", func() {
		matches := rank([]string{"cat", "cat", "cat"}, "cat", 2)
		Expect(matches).To(HaveLen(2))
		Expect(matches[0].page).To(Equal(1))
	})

	It("cuts excerpts around the first hit", func() {
		long := strings.Repeat("filler ", 100) + "needle " + strings.Repeat("filler ", 100)
		m := rank([]string{long}, "needle", 1)[0]
		Expect(m.excerpt).To(ContainSubstring("needle"))
		Expect(m.excerpt).To(HavePrefix("..."))
		Expect(m.excerpt).To(HaveSuffix("..."))
	})
})

var _ = Describe("answerChunks", func() {
	It("splits every source record across chunks", func() {
		chunks := answerChunks("doc.pdf", []match{{page: 4, excerpt: "alpha beta gamma delta"}})
		joined := strings.Join(chunks, "")
		Expect(joined).To(ContainSubstring("\n" + answer.SourcesSentinel + "\n"))
		Expect(joined).To(HaveSuffix("Source 1 (Page 4): alpha beta gamma delta\n"))
		Expect(chunks[len(chunks)-2]).To(HavePrefix("Source 1 (Page 4): "))
	})
})
