package sse

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ParseEvent", func() {
	Context("with standard SSE events", func() {
		It("parses a single data field", func() {
			ev := ParseEvent([]byte("data: hello world\n\n"))
			Expect(ev).NotTo(BeNil())
			Expect(ev.Data).To(Equal("hello world"))
			Expect(ev.Type).To(BeEmpty())
			Expect(ev.ID).To(BeEmpty())
		})

		It("parses event type", func() {
			ev := ParseEvent([]byte("event: content_block_delta\ndata: {\"type\":\"delta\"}\n\n"))
			Expect(ev.Type).To(Equal("content_block_delta"))
			Expect(ev.Data).To(Equal("{\"type\":\"delta\"}"))
		})

		It("parses event ID", func() {
			ev := ParseEvent([]byte("id: 42\ndata: hello\n\n"))
			Expect(ev.ID).To(Equal("42"))
			Expect(ev.Data).To(Equal("hello"))
		})

		It("joins multiple data lines with newline", func() {
			ev := ParseEvent([]byte("data: line one\ndata: line two\ndata: line three\n\n"))
			Expect(ev.Data).To(Equal("line one\nline two\nline three"))
		})

		It("accepts CRLF line endings", func() {
			ev := ParseEvent([]byte("data: crlf\r\n\r\n"))
			Expect(ev.Data).To(Equal("crlf"))
		})
	})

	Context("with the OpenAI end-of-stream sentinel", func() {
		It("reports done", func() {
			ev := ParseEvent([]byte("data: [DONE]\n\n"))
			Expect(ev.IsDone()).To(BeTrue())
		})

		It("does not report done for content events", func() {
			ev := ParseEvent([]byte("data: {\"choices\":[]}\n\n"))
			Expect(ev.IsDone()).To(BeFalse())
		})

		It("treats a nil event as not done", func() {
			var ev *Event
			Expect(ev.IsDone()).To(BeFalse())
		})
	})

	Context("with SSE comments", func() {
		It("ignores comment lines", func() {
			ev := ParseEvent([]byte(": this is a comment\ndata: hello\n\n"))
			Expect(ev.Data).To(Equal("hello"))
		})

		It("returns nil for a keep-alive comment frame", func() {
			Expect(ParseEvent([]byte(": keep-alive\n\n"))).To(BeNil())
		})
	})

	Context("with data field variations", func() {
		It("handles data field with no space after colon", func() {
			ev := ParseEvent([]byte("data:no-space\n\n"))
			Expect(ev.Data).To(Equal("no-space"))
		})

		It("handles empty data field", func() {
			ev := ParseEvent([]byte("data:\n\n"))
			Expect(ev).NotTo(BeNil())
			Expect(ev.Data).To(BeEmpty())
		})

		It("handles field with no colon", func() {
			ev := ParseEvent([]byte("data\n\n"))
			Expect(ev).NotTo(BeNil())
			Expect(ev.Data).To(BeEmpty())
		})
	})

	Context("edge cases", func() {
		It("returns nil on empty input", func() {
			Expect(ParseEvent(nil)).To(BeNil())
		})

		It("returns nil on a bare delimiter", func() {
			Expect(ParseEvent([]byte("\n\n"))).To(BeNil())
		})

		It("parses a fragment without a trailing delimiter", func() {
			ev := ParseEvent([]byte("data: unterminated"))
			Expect(ev.Data).To(Equal("unterminated"))
		})

		It("ignores unknown fields", func() {
			Expect(ParseEvent([]byte("retry: 3000\nfoo: bar\n\n"))).To(BeNil())

			ev := ParseEvent([]byte("retry: 3000\nfoo: bar\ndata: hello\n\n"))
			Expect(ev.Data).To(Equal("hello"))
		})
	})
})
