package ragdeskcmder_test

import (
	"bytes"
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/ragdesk/api"
	ragdeskcmder "github.com/papercomputeco/ragdesk/cmd/ragdesk"
	"github.com/papercomputeco/ragdesk/pkg/apiclient"
	"github.com/papercomputeco/ragdesk/pkg/dotdir"
)

var pages = map[string][]string{
	"manual.pdf": {
		"Introduction to the pump.",
		"The pump pressure must stay below 40 bar during operation.",
		"Maintenance: replace the pump seal every year.",
	},
}

func extract(path string) ([]string, error) {
	p, ok := pages[filepath.Base(path)]
	if !ok {
		return nil, errors.New("malformed pdf")
	}
	return p, nil
}

var _ = Describe("ragdesk", func() {
	var (
		configDir string
		target    string
	)

	BeforeEach(func() {
		configDir = GinkgoT().TempDir()
		docsDir := GinkgoT().TempDir()
		Expect(os.WriteFile(filepath.Join(docsDir, "manual.pdf"), []byte("%PDF-1.4 test"), 0o600)).To(Succeed())

		server, err := api.NewServer(api.Config{DocsDir: docsDir, Extract: extract})
		Expect(err).NotTo(HaveOccurred())

		ln, err := net.Listen("tcp", "127.0.0.1:0")
		Expect(err).NotTo(HaveOccurred())
		go func() { _ = server.Serve(ln) }()
		DeferCleanup(server.Shutdown)

		target = "http://" + ln.Addr().String()
		GinkgoT().Setenv("RAGDESK_API_TARGET", target)
		GinkgoT().Setenv("XDG_DATA_HOME", "")
	})

	run := func(args ...string) (string, error) {
		var out bytes.Buffer
		cmd := ragdeskcmder.NewRagdeskCmd()
		cmd.SetOut(&out)
		cmd.SetErr(&out)
		cmd.SetIn(strings.NewReader(""))
		cmd.SetArgs(append(args, "--config-dir", configDir))
		err := cmd.ExecuteContext(context.Background())
		return out.String(), err
	}

	documentID := func() string {
		client, err := apiclient.New(apiclient.Config{BaseURL: target})
		Expect(err).NotTo(HaveOccurred())
		docs, err := client.ListDocuments(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(docs).To(HaveLen(1))
		return docs[0].ID
	}

	It("prints the version", func() {
		out, err := run("version")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("ragdesk dev"))
	})

	It("creates and lists tenants", func() {
		out, err := run("tenants", "create", "acme")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("Created tenant"))

		out, err = run("tenants", "list")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("acme"))
	})

	It("requires a tenant for user commands", func() {
		_, err := run("users", "list")
		Expect(err).To(MatchError(ContainSubstring("tenant is required")))
	})

	It("lists and selects documents", func() {
		out, err := run("docs", "list")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("manual.pdf"))

		id := documentID()
		out, err = run("docs", "use", id[:8])
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("manual.pdf"))

		sel, err := dotdir.NewManager().LoadSelection(configDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(sel.DocumentID).To(Equal(id))

		_, err = run("docs", "use", "--clear")
		Expect(err).NotTo(HaveOccurred())
		sel, err = dotdir.NewManager().LoadSelection(configDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(sel).To(BeNil())
	})

	It("fails to ask without a document", func() {
		_, err := run("ask", "anything")
		Expect(err).To(MatchError(ContainSubstring("no document given")))
	})

	It("streams an answer with sources and records it", func() {
		id := documentID()

		out, err := run("ask", "--document", id, "what", "pump", "pressure")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("Based on manual.pdf"))
		Expect(out).To(ContainSubstring("Sources"))
		Expect(out).To(ContainSubstring("40 bar"))
		Expect(out).To(ContainSubstring("/files/" + id + "#page=2"))
		Expect(out).NotTo(ContainSubstring("--- Sources ---"))

		out, err = run("history")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("completed"))
		Expect(out).To(ContainSubstring("what pump pressure"))

		out, err = run("history", "--document", "someone-else")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("No recorded exchanges"))
	})

	It("answers questions in chat until /exit", func() {
		id := documentID()

		var out bytes.Buffer
		cmd := ragdeskcmder.NewRagdeskCmd()
		cmd.SetOut(&out)
		cmd.SetIn(strings.NewReader("pump seal\n/exit\n"))
		cmd.SetArgs([]string{"chat", "--document", id, "--no-history", "--config-dir", configDir})

		Expect(cmd.ExecuteContext(context.Background())).To(Succeed())
		Expect(out.String()).To(ContainSubstring("Based on manual.pdf"))
		Expect(out.String()).To(ContainSubstring("#page=3"))
	})

	It("manages configuration and masks secrets", func() {
		_, err := run("config", "set", "api.token", "s3cret")
		Expect(err).NotTo(HaveOccurred())
		_, err = run("config", "set", "api.tenant", "acme")
		Expect(err).NotTo(HaveOccurred())

		out, err := run("config", "list")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("acme"))
		Expect(out).NotTo(ContainSubstring("s3cret"))

		out, err = run("config", "get", "api.token", "--reveal")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("s3cret"))

		_, err = run("config", "set", "history.driver", "mongo")
		Expect(err).To(HaveOccurred())
	})
})
