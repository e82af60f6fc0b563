package apiclient_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/ragdesk/pkg/answer"
	"github.com/papercomputeco/ragdesk/pkg/apiclient"
	testutils "github.com/papercomputeco/ragdesk/pkg/utils/test"
)

var _ = Describe("Client", func() {
	var (
		server  *httptest.Server
		mux     *http.ServeMux
		client  *apiclient.Client
		ctx     context.Context
		lastReq *http.Request
	)

	BeforeEach(func() {
		ctx = context.Background()
		mux = http.NewServeMux()
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			lastReq = r.Clone(context.Background())
			mux.ServeHTTP(w, r)
		}))

		var err error
		client, err = apiclient.New(apiclient.Config{
			BaseURL:  server.URL,
			Token:    "secret-token",
			TenantID: "acme",
		})
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		server.Close()
	})

	writeJSON := func(w http.ResponseWriter, status int, v any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(v)
	}

	Describe("New", func() {
		It("requires a base URL", func() {
			_, err := apiclient.New(apiclient.Config{})
			Expect(err).To(HaveOccurred())
		})

		It("rejects unsupported schemes", func() {
			_, err := apiclient.New(apiclient.Config{BaseURL: "ftp://example.com"})
			Expect(err).To(MatchError(ContainSubstring("unsupported")))
		})
	})

	Describe("request headers", func() {
		It("sends the bearer token and tenant header", func() {
			mux.HandleFunc("GET /api/tenants", func(w http.ResponseWriter, _ *http.Request) {
				writeJSON(w, http.StatusOK, map[string]any{"items": []any{}})
			})

			_, err := client.ListTenants(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(lastReq.Header.Get("Authorization")).To(Equal("Bearer secret-token"))
			Expect(lastReq.Header.Get(apiclient.TenantHeader)).To(Equal("acme"))
		})

		It("scopes a copy to another tenant without changing the original", func() {
			mux.HandleFunc("GET /api/documents", func(w http.ResponseWriter, _ *http.Request) {
				writeJSON(w, http.StatusOK, map[string]any{"items": []any{}})
			})

			other := client.WithTenant("globex")
			_, err := other.ListDocuments(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(lastReq.Header.Get(apiclient.TenantHeader)).To(Equal("globex"))
			Expect(client.Tenant()).To(Equal("acme"))
		})
	})

	Describe("tenants and users", func() {
		It("lists tenants", func() {
			mux.HandleFunc("GET /api/tenants", func(w http.ResponseWriter, _ *http.Request) {
				writeJSON(w, http.StatusOK, map[string]any{"items": []map[string]any{
					{"id": "t1", "name": "Acme"},
					{"id": "t2", "name": "Globex"},
				}})
			})

			tenants, err := client.ListTenants(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(tenants).To(HaveLen(2))
			Expect(tenants[1].Name).To(Equal("Globex"))
		})

		It("creates a tenant", func() {
			mux.HandleFunc("POST /api/tenants", func(w http.ResponseWriter, r *http.Request) {
				var body apiclient.CreateTenantRequest
				Expect(json.NewDecoder(r.Body).Decode(&body)).To(Succeed())
				writeJSON(w, http.StatusCreated, apiclient.Tenant{ID: "t3", Name: body.Name})
			})

			tenant, err := client.CreateTenant(ctx, apiclient.CreateTenantRequest{Name: "Initech"})
			Expect(err).NotTo(HaveOccurred())
			Expect(tenant.ID).To(Equal("t3"))
			Expect(tenant.Name).To(Equal("Initech"))
		})

		It("validates tenant creation input locally", func() {
			_, err := client.CreateTenant(ctx, apiclient.CreateTenantRequest{})
			Expect(err).To(HaveOccurred())
		})

		It("deletes a tenant", func() {
			mux.HandleFunc("DELETE /api/tenants/{id}", func(w http.ResponseWriter, r *http.Request) {
				Expect(r.PathValue("id")).To(Equal("t1"))
				w.WriteHeader(http.StatusNoContent)
			})

			Expect(client.DeleteTenant(ctx, "t1")).To(Succeed())
		})

		It("creates, lists and deletes users", func() {
			mux.HandleFunc("POST /api/tenants/{tenant}/users", func(w http.ResponseWriter, r *http.Request) {
				var body apiclient.CreateUserRequest
				Expect(json.NewDecoder(r.Body).Decode(&body)).To(Succeed())
				writeJSON(w, http.StatusCreated, apiclient.User{
					ID: "u1", TenantID: r.PathValue("tenant"), Email: body.Email, Role: body.Role,
				})
			})
			mux.HandleFunc("GET /api/tenants/{tenant}/users", func(w http.ResponseWriter, _ *http.Request) {
				writeJSON(w, http.StatusOK, map[string]any{"items": []apiclient.User{{ID: "u1", Email: "a@acme.test"}}})
			})
			mux.HandleFunc("DELETE /api/tenants/{tenant}/users/{id}", func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusNoContent)
			})

			user, err := client.CreateUser(ctx, "acme", apiclient.CreateUserRequest{Email: "a@acme.test", Role: "admin"})
			Expect(err).NotTo(HaveOccurred())
			Expect(user.TenantID).To(Equal("acme"))
			Expect(user.Role).To(Equal("admin"))

			users, err := client.ListUsers(ctx, "acme")
			Expect(err).NotTo(HaveOccurred())
			Expect(users).To(HaveLen(1))

			Expect(client.DeleteUser(ctx, "acme", "u1")).To(Succeed())
		})
	})

	Describe("documents", func() {
		It("uploads a document as multipart form data", func() {
			mux.HandleFunc("POST /api/documents", func(w http.ResponseWriter, r *http.Request) {
				file, header, err := r.FormFile("file")
				Expect(err).NotTo(HaveOccurred())
				defer file.Close()
				data, _ := io.ReadAll(file)
				writeJSON(w, http.StatusCreated, apiclient.Document{
					ID: "d1", Name: header.Filename, SizeBytes: int64(len(data)), Status: "processing",
				})
			})

			doc, err := client.UploadDocument(ctx, "dir/manual.pdf", strings.NewReader("%PDF-1.4"))
			Expect(err).NotTo(HaveOccurred())
			Expect(doc.Name).To(Equal("manual.pdf"))
			Expect(doc.SizeBytes).To(Equal(int64(8)))
		})

		It("looks up file info", func() {
			mux.HandleFunc("GET /api/documents/{id}/file", func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusOK, apiclient.FileInfo{URL: "https://files.test/" + r.PathValue("id") + ".pdf"})
			})

			info, err := client.FileInfo(ctx, "d1")
			Expect(err).NotTo(HaveOccurred())
			Expect(info.URL).To(Equal("https://files.test/d1.pdf"))
		})

		It("errors when the file has no url", func() {
			mux.HandleFunc("GET /api/documents/{id}/file", func(w http.ResponseWriter, _ *http.Request) {
				writeJSON(w, http.StatusOK, apiclient.FileInfo{})
			})

			_, err := client.FileInfo(ctx, "d1")
			Expect(err).To(MatchError(ContainSubstring("no file url")))
		})
	})

	Describe("errors", func() {
		It("returns a StatusError carrying the service message", func() {
			mux.HandleFunc("GET /api/tenants", func(w http.ResponseWriter, _ *http.Request) {
				writeJSON(w, http.StatusForbidden, map[string]string{"error": "not allowed"})
			})

			_, err := client.ListTenants(ctx)
			var se *answer.StatusError
			Expect(errors.As(err, &se)).To(BeTrue())
			Expect(se.Code).To(Equal(http.StatusForbidden))
			Expect(se.Body).To(Equal("not allowed"))
		})

		It("marks unreachable services as transport errors", func() {
			server.Close()

			_, err := client.ListTenants(ctx)
			Expect(err).To(MatchError(apiclient.ErrTransport))
		})
	})

	Describe("Query", func() {
		It("returns the open stream for the parser", func() {
			mux.HandleFunc("POST /api/documents/{id}/query", func(w http.ResponseWriter, r *http.Request) {
				var body map[string]string
				Expect(json.NewDecoder(r.Body).Decode(&body)).To(Succeed())
				Expect(body["query"]).To(Equal("what is it?"))
				Expect(r.PathValue("id")).To(Equal("doc-1"))

				w.Header().Set("Content-Type", "text/event-stream")
				flusher := w.(http.Flusher)
				for _, line := range []string{
					testutils.ChunkLine("It is "),
					testutils.ChunkLine("a manual."),
					testutils.ChunkLine(answer.SourcesSentinel),
					testutils.ChunkLine("Source 1 (Page 3): A manual."),
					testutils.DoneLine,
				} {
					fmt.Fprint(w, line)
					flusher.Flush()
				}
			})

			body, err := client.Query(ctx, apiclient.QueryRequest{DocumentID: "doc-1", Query: "what is it?"})
			Expect(err).NotTo(HaveOccurred())
			defer body.Close()

			sink := testutils.NewRecordingSink()
			Expect(answer.NewQueryStream(sink).Run(ctx, body)).To(Succeed())
			Expect(sink.Answer()).To(Equal("It is a manual."))
			Expect(sink.SourceCalls()).To(Equal([][]answer.Citation{{{Text: "A manual.", Page: 3}}}))
			Expect(lastReq.Header.Get("Accept")).To(Equal("text/event-stream"))
		})

		It("returns a StatusError for non-success responses", func() {
			mux.HandleFunc("POST /api/documents/{id}/query", func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "document not ready", http.StatusConflict)
			})

			_, err := client.Query(ctx, apiclient.QueryRequest{DocumentID: "doc-1", Query: "q"})
			var se *answer.StatusError
			Expect(errors.As(err, &se)).To(BeTrue())
			Expect(se.Code).To(Equal(http.StatusConflict))
			Expect(se.Body).To(Equal("document not ready"))
		})

		It("returns ErrNilBody for an empty success response", func() {
			mux.HandleFunc("POST /api/documents/{id}/query", func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Length", "0")
				w.WriteHeader(http.StatusOK)
			})

			_, err := client.Query(ctx, apiclient.QueryRequest{DocumentID: "doc-1", Query: "q"})
			Expect(err).To(MatchError(answer.ErrNilBody))
		})

		It("aborts a hung stream when the context is canceled", func() {
			release := make(chan struct{})
			defer close(release)
			mux.HandleFunc("POST /api/documents/{id}/query", func(w http.ResponseWriter, _ *http.Request) {
				fmt.Fprint(w, testutils.ChunkLine("partial"))
				w.(http.Flusher).Flush()
				<-release
			})

			cctx, cancel := context.WithCancel(ctx)
			body, err := client.Query(cctx, apiclient.QueryRequest{DocumentID: "doc-1", Query: "q"})
			Expect(err).NotTo(HaveOccurred())
			defer body.Close()

			sink := testutils.NewRecordingSink()
			done := make(chan error, 1)
			go func() { done <- answer.NewQueryStream(sink).Run(cctx, body) }()

			Eventually(sink.Chunks).Should(Equal([]string{"partial"}))
			cancel()

			var runErr error
			Eventually(done).WithTimeout(2 * time.Second).Should(Receive(&runErr))
			Expect(runErr).To(MatchError(context.Canceled))
		})

		It("validates input locally", func() {
			_, err := client.Query(ctx, apiclient.QueryRequest{Query: "q"})
			Expect(err).To(HaveOccurred())
			_, err = client.Query(ctx, apiclient.QueryRequest{DocumentID: "d"})
			Expect(err).To(HaveOccurred())
		})
	})
})
