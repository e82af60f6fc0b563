package dotdir_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/ragdesk/pkg/dotdir"
)

// chdir switches the working directory until the current test ends.
func chdir(dir string) {
	origDir, err := os.Getwd()
	Expect(err).NotTo(HaveOccurred())
	Expect(os.Chdir(dir)).To(Succeed())
	DeferCleanup(func() { _ = os.Chdir(origDir) })
}

var _ = Describe("dotdir", func() {
	var tmpDir string
	var m *dotdir.Manager

	BeforeEach(func() {
		var err error
		// Resolve symlinks so paths match filepath.Abs results
		// (e.g. on macOS /var -> /private/var).
		tmpDir, err = filepath.EvalSymlinks(GinkgoT().TempDir())
		Expect(err).NotTo(HaveOccurred())

		m = dotdir.NewManager()
		GinkgoT().Setenv(dotdir.EnvDir, "")
	})

	Describe("Target", func() {
		It("creates the directory if it doesn't exist", func() {
			dir := filepath.Join(tmpDir, "newdir")
			result, err := m.Target(dir)
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(dir))

			info, err := os.Stat(dir)
			Expect(err).NotTo(HaveOccurred())
			Expect(info.IsDir()).To(BeTrue())
		})

		It("returns the override dir even when a local .ragdesk dir exists", func() {
			Expect(os.Mkdir(filepath.Join(tmpDir, ".ragdesk"), 0o755)).To(Succeed())
			chdir(tmpDir)

			overrideDir := filepath.Join(tmpDir, "override")
			result, err := m.Target(overrideDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(overrideDir))
		})

		It("returns the local .ragdesk dir when it exists and no override is provided", func() {
			local := filepath.Join(tmpDir, ".ragdesk")
			Expect(os.Mkdir(local, 0o755)).To(Succeed())
			chdir(tmpDir)

			result, err := m.Target("")
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(local))
		})

		It("falls back to creating ~/.ragdesk", func() {
			work := filepath.Join(tmpDir, "work")
			home := filepath.Join(tmpDir, "home")
			Expect(os.Mkdir(work, 0o755)).To(Succeed())
			Expect(os.Mkdir(home, 0o755)).To(Succeed())
			chdir(work)
			GinkgoT().Setenv("HOME", home)

			result, err := m.Target("")
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(filepath.Join(home, ".ragdesk")))
			Expect(filepath.Join(home, ".ragdesk")).To(BeADirectory())
		})

		It("uses RAGDESK_DIR when no override is given", func() {
			Expect(os.Mkdir(filepath.Join(tmpDir, ".ragdesk"), 0o755)).To(Succeed())
			chdir(tmpDir)

			envDir := filepath.Join(tmpDir, "from-env")
			GinkgoT().Setenv(dotdir.EnvDir, envDir)

			result, err := m.Target("")
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(envDir))
			Expect(envDir).To(BeADirectory())

			result, err = m.Target(filepath.Join(tmpDir, "flag"))
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(filepath.Join(tmpDir, "flag")))
		})

		It("finds a project .ragdesk dir in an ancestor of the working directory", func() {
			project := filepath.Join(tmpDir, "project")
			nested := filepath.Join(project, "docs", "pdfs")
			Expect(os.MkdirAll(nested, 0o755)).To(Succeed())
			Expect(os.Mkdir(filepath.Join(project, ".ragdesk"), 0o755)).To(Succeed())
			chdir(nested)
			GinkgoT().Setenv("HOME", filepath.Join(tmpDir, "home"))

			result, err := m.Target("")
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(filepath.Join(project, ".ragdesk")))
		})

		It("stops the ancestor search at the home directory", func() {
			home := filepath.Join(tmpDir, "home")
			work := filepath.Join(home, "work")
			Expect(os.MkdirAll(work, 0o755)).To(Succeed())
			// A .ragdesk above home must not be mistaken for a project dir.
			Expect(os.Mkdir(filepath.Join(tmpDir, ".ragdesk"), 0o755)).To(Succeed())
			chdir(work)
			GinkgoT().Setenv("HOME", home)

			result, err := m.Target("")
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(filepath.Join(home, ".ragdesk")))
		})
	})
})
