// Package drivertest holds the behavior every history.Driver must share,
// as ginkgo specs the driver test suites register.
package drivertest

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/ragdesk/pkg/answer"
	"github.com/papercomputeco/ragdesk/pkg/history"
)

var epoch = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

// NewExchange builds a completed exchange started offset after a fixed epoch.
func NewExchange(id, tenant, document string, offset time.Duration) *history.Exchange {
	return &history.Exchange{
		ID:          id,
		TenantID:    tenant,
		DocumentID:  document,
		Query:       "what is " + id + "?",
		Answer:      "It is " + id + ".",
		Citations:   []answer.Citation{{Text: "excerpt of " + id, Page: 2}},
		Outcome:     history.OutcomeCompleted,
		StartedAt:   epoch.Add(offset),
		CompletedAt: epoch.Add(offset + 1500*time.Millisecond),
	}
}

// DescribeDriver registers the shared driver specs. newDriver is called
// before every spec; the driver is closed after it.
func DescribeDriver(newDriver func() history.Driver) {
	var (
		driver history.Driver
		ctx    context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		driver = newDriver()
	})

	AfterEach(func() {
		if driver != nil {
			Expect(driver.Close()).To(Succeed())
			driver = nil
		}
	})

	Describe("Put and Get", func() {
		It("stores and retrieves an exchange", func() {
			e := NewExchange("x1", "acme", "doc-1", 0)

			inserted, err := driver.Put(ctx, e)
			Expect(err).NotTo(HaveOccurred())
			Expect(inserted).To(BeTrue())

			got, err := driver.Get(ctx, "x1")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Query).To(Equal(e.Query))
			Expect(got.Answer).To(Equal(e.Answer))
			Expect(got.Citations).To(Equal(e.Citations))
			Expect(got.Outcome).To(Equal(history.OutcomeCompleted))
			Expect(got.StartedAt.Equal(e.StartedAt)).To(BeTrue())
			Expect(got.Duration()).To(Equal(1500 * time.Millisecond))
		})

		It("keeps the first exchange stored under an id", func() {
			first := NewExchange("x1", "acme", "doc-1", 0)
			second := NewExchange("x1", "acme", "doc-1", time.Minute)
			second.Answer = "replacement"

			_, err := driver.Put(ctx, first)
			Expect(err).NotTo(HaveOccurred())

			inserted, err := driver.Put(ctx, second)
			Expect(err).NotTo(HaveOccurred())
			Expect(inserted).To(BeFalse())

			got, err := driver.Get(ctx, "x1")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Answer).To(Equal(first.Answer))
		})

		It("round-trips exchanges without citations", func() {
			e := NewExchange("x2", "", "doc-1", 0)
			e.Citations = nil
			e.Outcome = history.OutcomeFailed
			e.Error = "status 502"

			_, err := driver.Put(ctx, e)
			Expect(err).NotTo(HaveOccurred())

			got, err := driver.Get(ctx, "x2")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Citations).To(BeEmpty())
			Expect(got.Error).To(Equal("status 502"))
			Expect(got.Outcome).To(Equal(history.OutcomeFailed))
		})

		It("returns NotFoundError for unknown ids", func() {
			_, err := driver.Get(ctx, "missing")
			Expect(err).To(MatchError(history.NotFoundError{ID: "missing"}))
		})

		It("rejects invalid exchanges", func() {
			_, err := driver.Put(ctx, nil)
			Expect(err).To(MatchError(history.ErrInvalidExchange))

			_, err = driver.Put(ctx, &history.Exchange{DocumentID: "doc-1"})
			Expect(err).To(MatchError(history.ErrInvalidExchange))
		})
	})

	Describe("List", func() {
		BeforeEach(func() {
			for _, e := range []*history.Exchange{
				NewExchange("a", "acme", "doc-1", 1*time.Minute),
				NewExchange("b", "acme", "doc-2", 3*time.Minute),
				NewExchange("c", "globex", "doc-1", 2*time.Minute),
			} {
				_, err := driver.Put(ctx, e)
				Expect(err).NotTo(HaveOccurred())
			}
		})

		ids := func(exchanges []*history.Exchange) []string {
			out := make([]string, len(exchanges))
			for i, e := range exchanges {
				out[i] = e.ID
			}
			return out
		}

		It("lists most recent first", func() {
			got, err := driver.List(ctx, history.Filter{})
			Expect(err).NotTo(HaveOccurred())
			Expect(ids(got)).To(Equal([]string{"b", "c", "a"}))
		})

		It("filters by tenant and document", func() {
			got, err := driver.List(ctx, history.Filter{TenantID: "acme"})
			Expect(err).NotTo(HaveOccurred())
			Expect(ids(got)).To(Equal([]string{"b", "a"}))

			got, err = driver.List(ctx, history.Filter{DocumentID: "doc-1"})
			Expect(err).NotTo(HaveOccurred())
			Expect(ids(got)).To(Equal([]string{"c", "a"}))

			got, err = driver.List(ctx, history.Filter{TenantID: "globex", DocumentID: "doc-2"})
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(BeEmpty())
		})

		It("applies the limit after ordering", func() {
			got, err := driver.List(ctx, history.Filter{Limit: 2})
			Expect(err).NotTo(HaveOccurred())
			Expect(ids(got)).To(Equal([]string{"b", "c"}))
		})
	})
}
