package sqlite_test

import (
	"context"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/ragdesk/pkg/history"
	"github.com/papercomputeco/ragdesk/pkg/history/drivertest"
	"github.com/papercomputeco/ragdesk/pkg/history/sqlite"
)

var _ = Describe("Driver", func() {
	drivertest.DescribeDriver(func() history.Driver {
		d, err := sqlite.NewDriver(context.Background(), ":memory:")
		Expect(err).NotTo(HaveOccurred())
		return d
	})

	Describe("NewDriver", func() {
		It("creates a driver with file database", func() {
			dbPath := filepath.Join(GinkgoT().TempDir(), "history.db")

			d, err := sqlite.NewDriver(context.Background(), dbPath)
			Expect(err).NotTo(HaveOccurred())
			defer d.Close()

			_, err = os.Stat(dbPath)
			Expect(err).NotTo(HaveOccurred())
		})

		It("persists exchanges across reopen", func() {
			ctx := context.Background()
			dbPath := filepath.Join(GinkgoT().TempDir(), "history.db")

			d, err := sqlite.NewDriver(ctx, dbPath)
			Expect(err).NotTo(HaveOccurred())
			_, err = d.Put(ctx, drivertest.NewExchange("x1", "acme", "doc-1", 0))
			Expect(err).NotTo(HaveOccurred())
			Expect(d.Close()).To(Succeed())

			d, err = sqlite.NewDriver(ctx, dbPath)
			Expect(err).NotTo(HaveOccurred())
			defer d.Close()

			got, err := d.Get(ctx, "x1")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.DocumentID).To(Equal("doc-1"))
		})
	})
})
