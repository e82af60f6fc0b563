package cliui_test

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/ragdesk/pkg/answer"
	"github.com/papercomputeco/ragdesk/pkg/cliui"
	"github.com/papercomputeco/ragdesk/pkg/viewer"
)

var _ = Describe("cliui", func() {
	Describe("FormatDuration", func() {
		It("uses milliseconds below a second", func() {
			Expect(cliui.FormatDuration(12 * time.Millisecond)).To(Equal("12ms"))
		})

		It("uses tenths of seconds above a second", func() {
			Expect(cliui.FormatDuration(3200 * time.Millisecond)).To(Equal("3.2s"))
		})
	})

	Describe("Mark", func() {
		It("distinguishes success from failure", func() {
			Expect(cliui.Mark(nil)).To(Equal(cliui.SuccessMark))
			Expect(cliui.Mark(errors.New("boom"))).To(Equal(cliui.FailMark))
		})
	})

	Describe("Step", func() {
		It("returns the error of fn and prints the message", func() {
			var buf bytes.Buffer
			err := cliui.Step(&buf, "uploading", func() error { return errors.New("boom") })
			Expect(err).To(MatchError("boom"))
			Expect(buf.String()).To(ContainSubstring("uploading"))
			Expect(buf.String()).To(HaveSuffix("\n"))
		})

		It("writes only the result line when the writer is not a terminal", func() {
			var buf bytes.Buffer
			err := cliui.Step(&buf, "waiting", func() error {
				time.Sleep(200 * time.Millisecond)
				return nil
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(buf.String()).NotTo(ContainSubstring("\r"))
			Expect(strings.Count(buf.String(), "waiting")).To(Equal(1))
			Expect(buf.String()).To(ContainSubstring(cliui.SuccessMark))
		})
	})

	Describe("IsTerminal", func() {
		It("is false for buffers and regular files", func() {
			Expect(cliui.IsTerminal(&bytes.Buffer{})).To(BeFalse())

			f, err := os.CreateTemp(GinkgoT().TempDir(), "out")
			Expect(err).NotTo(HaveOccurred())
			defer f.Close()
			Expect(cliui.IsTerminal(f)).To(BeFalse())
		})
	})

	Describe("RenderSources", func() {
		It("writes nothing without links", func() {
			var buf bytes.Buffer
			cliui.RenderSources(&buf, nil)
			Expect(buf.Len()).To(BeZero())
		})

		It("numbers citations and prints their page and URL", func() {
			var buf bytes.Buffer
			cliui.RenderSources(&buf, []viewer.Link{
				{Citation: answer.Citation{Text: "Foo\nbar.", Page: 2}, Page: 2, URL: "http://h/files/a#page=2"},
				{Citation: answer.Citation{Text: "Baz.", Page: 0}, Page: 1},
			})

			out := buf.String()
			Expect(out).To(ContainSubstring("Sources"))
			Expect(out).To(ContainSubstring("[1]"))
			Expect(out).To(ContainSubstring("p. 2"))
			Expect(out).To(ContainSubstring("Foo bar."))
			Expect(out).To(ContainSubstring("http://h/files/a#page=2"))
			Expect(out).To(ContainSubstring("[2]"))
			Expect(out).To(ContainSubstring("p. 1"))
		})

		It("truncates long excerpts", func() {
			var buf bytes.Buffer
			cliui.RenderSources(&buf, []viewer.Link{
				{Citation: answer.Citation{Text: strings.Repeat("x", 500)}, Page: 1},
			})
			Expect(buf.String()).To(ContainSubstring("..."))
			Expect(buf.String()).NotTo(ContainSubstring(strings.Repeat("x", 200)))
		})
	})

	Describe("RenderPairs", func() {
		It("marks empty values as not set", func() {
			var buf bytes.Buffer
			cliui.RenderPairs(&buf, []string{"a", "bb"}, func(k string) string {
				if k == "a" {
					return "1"
				}
				return ""
			})
			Expect(buf.String()).To(ContainSubstring("1"))
			Expect(buf.String()).To(ContainSubstring("<not set>"))
		})
	})

	Describe("RenderMarkdown", func() {
		It("renders markdown text", func() {
			out, err := cliui.RenderMarkdown("# Title\n\nBody text", 40)
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("Title"))
			Expect(out).To(ContainSubstring("Body text"))
		})
	})
})
