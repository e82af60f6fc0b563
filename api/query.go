package api

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/ragdesk/pkg/answer"
	"github.com/papercomputeco/ragdesk/pkg/apiclient"
)

// handleQuery streams an extractive answer: a summary sentence, the
// sources sentinel, one record per matching page, then the done line.
func (s *Server) handleQuery(c *fiber.Ctx) error {
	doc, err := s.store.get(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: err.Error()})
	}

	var req apiclient.QueryRequest
	if err := c.BodyParser(&req); err != nil || strings.TrimSpace(req.Query) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "query required"})
	}

	matches := rank(doc.pages, req.Query, s.config.MaxSources)
	chunks := answerChunks(doc.meta.Name, matches)

	s.logger.Debug("answering query",
		"document_id", doc.meta.ID,
		"tenant", c.Get(apiclient.TenantHeader),
		"matches", len(matches),
	)

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")

	// io.Pipe flushes every chunk to the socket as it is written, where
	// SetBodyStreamWriter would buffer them.
	pr, pw := io.Pipe()
	go s.writeStream(pw, chunks)
	c.Context().Response.SetBodyStream(pr, -1)

	return nil
}

func (s *Server) writeStream(pw *io.PipeWriter, chunks []string) {
	defer pw.Close()

	for i, chunk := range chunks {
		if i > 0 && s.config.ChunkDelay > 0 {
			time.Sleep(s.config.ChunkDelay)
		}

		payload, err := json.Marshal(map[string]string{"chunk": chunk})
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := fmt.Fprintf(pw, "data: %s\n\n", payload); err != nil {
			s.logger.Debug("client went away mid-stream", "error", err)
			return
		}
	}

	if _, err := io.WriteString(pw, "data: {\"done\": true}\n\n"); err != nil {
		s.logger.Debug("client went away before done", "error", err)
	}
}

// answerChunks renders the response text as the chunk sequence a
// generating service would send: the answer a few words at a time, then
// each source record split across two chunks.
func answerChunks(name string, matches []match) []string {
	if len(matches) == 0 {
		return splitWords(fmt.Sprintf("No passage in %s matches the question.", name))
	}

	pages := make([]string, len(matches))
	for i, m := range matches {
		pages[i] = strconv.Itoa(m.page)
	}

	summary := fmt.Sprintf("Based on %s, the most relevant passages are on %s %s. The closest one reads: %q",
		name, plural(len(pages), "page", "pages"), joinList(pages), matches[0].excerpt)

	chunks := splitWords(summary)
	chunks = append(chunks, "\n\n"+answer.SourcesSentinel+"\n")

	for i, m := range matches {
		label := fmt.Sprintf("Source %d (Page %d): ", i+1, m.page)
		head, tail := splitHalf(m.excerpt)
		chunks = append(chunks, label+head)
		if tail != "" {
			chunks = append(chunks, tail)
		}
		chunks[len(chunks)-1] += "\n"
	}

	return chunks
}

// splitWords breaks text after every run of spaces, keeping the spaces.
func splitWords(text string) []string {
	parts := strings.SplitAfter(text, " ")

	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// splitHalf cuts text at the space nearest its middle.
func splitHalf(text string) (string, string) {
	mid := len(text) / 2
	if i := strings.IndexByte(text[mid:], ' '); i >= 0 {
		return text[:mid+i+1], text[mid+i+1:]
	}
	return text, ""
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func joinList(items []string) string {
	if len(items) <= 1 {
		return strings.Join(items, "")
	}
	return strings.Join(items[:len(items)-1], ", ") + " and " + items[len(items)-1]
}
