package historyutils_test

import (
	"context"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/ragdesk/pkg/history/inmemory"
	"github.com/papercomputeco/ragdesk/pkg/history/sqlite"
	historyutils "github.com/papercomputeco/ragdesk/pkg/history/utils"
)

var _ = Describe("NewDriver", func() {
	ctx := context.Background()

	It("defaults to the in-memory driver", func() {
		d, err := historyutils.NewDriver(ctx, &historyutils.NewDriverOpts{})
		Expect(err).NotTo(HaveOccurred())
		Expect(d).To(BeAssignableToTypeOf(&inmemory.Driver{}))
	})

	It("opens a sqlite driver at the configured path", func() {
		d, err := historyutils.NewDriver(ctx, &historyutils.NewDriverOpts{
			DriverType: historyutils.DriverSQLite,
			SQLitePath: filepath.Join(GinkgoT().TempDir(), "history.db"),
		})
		Expect(err).NotTo(HaveOccurred())
		defer d.Close()
		Expect(d).To(BeAssignableToTypeOf(&sqlite.Driver{}))
	})

	It("requires a path for sqlite", func() {
		_, err := historyutils.NewDriver(ctx, &historyutils.NewDriverOpts{DriverType: historyutils.DriverSQLite})
		Expect(err).To(MatchError(ContainSubstring("sqlite_path")))
	})

	It("requires a dsn for postgres", func() {
		_, err := historyutils.NewDriver(ctx, &historyutils.NewDriverOpts{DriverType: historyutils.DriverPostgres})
		Expect(err).To(MatchError(ContainSubstring("postgres_dsn")))
	})

	It("rejects unknown drivers", func() {
		_, err := historyutils.NewDriver(ctx, &historyutils.NewDriverOpts{DriverType: "mongo"})
		Expect(err).To(MatchError(ContainSubstring("unsupported history driver")))
	})
})
