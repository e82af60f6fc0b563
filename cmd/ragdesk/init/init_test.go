package initcmder_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	initcmder "github.com/papercomputeco/ragdesk/cmd/ragdesk/init"
	"github.com/papercomputeco/ragdesk/pkg/config"
)

func loadConfig(dir string) *config.Config {
	data, err := os.ReadFile(filepath.Join(dir, ".ragdesk", "config.toml"))
	Expect(err).NotTo(HaveOccurred())

	cfg := &config.Config{}
	Expect(toml.Unmarshal(data, cfg)).To(Succeed())
	return cfg
}

var _ = Describe("NewInitCmd", func() {
	It("rejects any arguments", func() {
		cmd := initcmder.NewInitCmd()
		Expect(cmd.Args(cmd, []string{"extra"})).To(HaveOccurred())
	})

	It("has a --preset flag", func() {
		cmd := initcmder.NewInitCmd()
		f := cmd.Flags().Lookup("preset")
		Expect(f).NotTo(BeNil())
		Expect(f.DefValue).To(Equal(""))
	})
})

var _ = Describe("Init command execution", func() {
	var tmpDir string

	BeforeEach(func() {
		var err error
		tmpDir, err = filepath.EvalSymlinks(GinkgoT().TempDir())
		Expect(err).NotTo(HaveOccurred())

		origDir, err := os.Getwd()
		Expect(err).NotTo(HaveOccurred())
		Expect(os.Chdir(tmpDir)).To(Succeed())
		DeferCleanup(func() { _ = os.Chdir(origDir) })
	})

	execute := func(args ...string) error {
		cmd := initcmder.NewInitCmd()
		cmd.SetOut(GinkgoWriter)
		cmd.SetArgs(args)
		return cmd.Execute()
	}

	It("creates .ragdesk with a default config.toml", func() {
		Expect(execute()).To(Succeed())

		cfg := loadConfig(tmpDir)
		Expect(cfg.Version).To(Equal(config.CurrentV))
		Expect(cfg.API.Target).To(Equal("http://localhost:8000"))
		Expect(cfg.History.Driver).To(Equal("sqlite"))
	})

	It("keeps an existing config.toml", func() {
		dir := filepath.Join(tmpDir, ".ragdesk")
		Expect(os.MkdirAll(dir, 0o755)).To(Succeed())
		Expect(os.WriteFile(filepath.Join(dir, "config.toml"), []byte("[api]\ntenant = \"acme\"\n"), 0o600)).To(Succeed())

		Expect(execute("--preset", "shared")).To(Succeed())
		Expect(loadConfig(tmpDir).API.Tenant).To(Equal("acme"))
	})

	It("overwrites an existing config.toml with --force", func() {
		dir := filepath.Join(tmpDir, ".ragdesk")
		Expect(os.MkdirAll(dir, 0o755)).To(Succeed())
		Expect(os.WriteFile(filepath.Join(dir, "config.toml"), []byte("[api]\ntenant = \"acme\"\n"), 0o600)).To(Succeed())

		Expect(execute("--preset", "shared", "--force")).To(Succeed())
		cfg := loadConfig(tmpDir)
		Expect(cfg.API.Tenant).To(BeEmpty())
		Expect(cfg.History.Driver).To(Equal("postgres"))
	})

	It("applies the shared preset", func() {
		Expect(execute("--preset", "shared")).To(Succeed())

		cfg := loadConfig(tmpDir)
		Expect(cfg.History.Driver).To(Equal("postgres"))
		Expect(cfg.Events.Brokers).To(Equal("localhost:9092"))
	})

	It("rejects unknown preset names", func() {
		err := execute("--preset", "cloud")
		Expect(err).To(MatchError(ContainSubstring("unknown preset")))
		Expect(filepath.Join(tmpDir, ".ragdesk")).NotTo(BeADirectory())
	})

	It("fetches a remote config.toml", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, "version = 0\n\n[api]\ntarget = \"https://docs.example.com\"\ntenant = \"team\"\n")
		}))
		DeferCleanup(server.Close)

		Expect(execute("--preset", server.URL+"/ragdesk.toml")).To(Succeed())

		cfg := loadConfig(tmpDir)
		Expect(cfg.API.Target).To(Equal("https://docs.example.com"))
		Expect(cfg.API.Tenant).To(Equal("team"))
	})

	It("fails on remote errors", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		DeferCleanup(server.Close)

		Expect(execute("--preset", server.URL)).To(MatchError(ContainSubstring("unexpected status 404")))
	})
})
