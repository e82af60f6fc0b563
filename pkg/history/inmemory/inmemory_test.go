package inmemory_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/ragdesk/pkg/history"
	"github.com/papercomputeco/ragdesk/pkg/history/drivertest"
	"github.com/papercomputeco/ragdesk/pkg/history/inmemory"
)

var _ = Describe("Driver", func() {
	drivertest.DescribeDriver(func() history.Driver {
		return inmemory.NewDriver()
	})

	It("does not share citation slices with callers", func() {
		ctx := context.Background()
		d := inmemory.NewDriver()
		e := drivertest.NewExchange("x1", "acme", "doc-1", 0)

		_, err := d.Put(ctx, e)
		Expect(err).NotTo(HaveOccurred())
		e.Citations[0].Text = "mutated"

		got, err := d.Get(ctx, "x1")
		Expect(err).NotTo(HaveOccurred())
		Expect(got.Citations[0].Text).To(Equal("excerpt of x1"))
	})
})
