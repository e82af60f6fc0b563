package postgres_test

import (
	"context"
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/ragdesk/pkg/history"
	"github.com/papercomputeco/ragdesk/pkg/history/drivertest"
	"github.com/papercomputeco/ragdesk/pkg/history/postgres"
)

// connStr returns the PostgreSQL connection string from environment or skips the test.
func connStr() string {
	dsn := os.Getenv("RAGDESK_TEST_POSTGRES_DSN")
	if dsn == "" {
		Skip("RAGDESK_TEST_POSTGRES_DSN not set, skipping PostgreSQL tests")
	}
	return dsn
}

var _ = Describe("Driver", func() {
	drivertest.DescribeDriver(func() history.Driver {
		ctx := context.Background()
		d, err := postgres.NewDriver(ctx, connStr())
		Expect(err).NotTo(HaveOccurred())

		_, err = d.Driver.DB().ExecContext(ctx, "TRUNCATE exchanges")
		Expect(err).NotTo(HaveOccurred())
		return d
	})
})
