package transcript_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/farmguru/pkg/llm"
	"github.com/papercomputeco/farmguru/pkg/transcript"
)

var _ = Describe("Entry", func() {
	Describe("NewEntry", func() {
		Context("when creating the first entry (no parent)", func() {
			It("sets ParentHash to nil", func() {
				entry := transcript.NewEntry(llm.SystemMessage("persona"), nil)

				Expect(entry.ParentHash).To(BeNil())
				Expect(entry.Message()).To(Equal(llm.SystemMessage("persona")))
			})

			It("produces consistent hashes for the same message", func() {
				a := transcript.NewEntry(llm.UserMessage("same"), nil)
				b := transcript.NewEntry(llm.UserMessage("same"), nil)

				Expect(a.Hash).To(Equal(b.Hash))
			})

			It("produces different hashes for different roles", func() {
				a := transcript.NewEntry(llm.UserMessage("same"), nil)
				b := transcript.NewEntry(llm.AssistantMessage("same"), nil)

				Expect(a.Hash).NotTo(Equal(b.Hash))
			})

			It("produces a valid SHA-256 hex string (64 characters)", func() {
				entry := transcript.NewEntry(llm.UserMessage("test"), nil)

				Expect(entry.Hash).To(MatchRegexp("^[a-f0-9]{64}$"))
			})
		})

		Context("when following a parent", func() {
			var parent transcript.Entry

			BeforeEach(func() {
				parent = transcript.NewEntry(llm.SystemMessage("persona"), nil)
			})

			It("links the entry to the parent via ParentHash", func() {
				child := transcript.NewEntry(llm.UserMessage("hi"), &parent)

				Expect(child.ParentHash).NotTo(BeNil())
				Expect(*child.ParentHash).To(Equal(parent.Hash))
			})

			It("produces different hashes for the same message with different parents", func() {
				other := transcript.NewEntry(llm.SystemMessage("other persona"), nil)
				a := transcript.NewEntry(llm.UserMessage("hi"), &parent)
				b := transcript.NewEntry(llm.UserMessage("hi"), &other)

				Expect(a.Hash).NotTo(Equal(b.Hash))
			})
		})
	})
})

var _ = Describe("Transcript", func() {
	history := []llm.Message{
		llm.SystemMessage("persona"),
		llm.UserMessage("How do I start an OSP?"),
		llm.AssistantMessage("You should start by..."),
	}

	It("chains every message to the previous one", func() {
		t := transcript.Build(history)

		Expect(t.Depth).To(Equal(3))
		Expect(t.Messages).To(HaveLen(3))
		Expect(t.Messages[0].ParentHash).To(BeNil())
		Expect(*t.Messages[1].ParentHash).To(Equal(t.Messages[0].Hash))
		Expect(*t.Messages[2].ParentHash).To(Equal(t.Messages[1].Hash))
		Expect(t.HeadHash).To(Equal(t.Messages[2].Hash))
		Expect(t.Verify()).To(BeTrue())
	})

	It("gives equal histories equal heads and grown histories new heads", func() {
		a := transcript.Build(history)
		b := transcript.Build(append([]llm.Message{}, history...))
		grown := transcript.Build(append(append([]llm.Message{}, history...), llm.UserMessage("thanks")))

		Expect(a.HeadHash).To(Equal(b.HeadHash))
		Expect(grown.HeadHash).NotTo(Equal(a.HeadHash))
		Expect(grown.Messages[2].Hash).To(Equal(a.HeadHash))
	})

	It("has an empty head for an empty history", func() {
		t := transcript.Build(nil)

		Expect(t.HeadHash).To(BeEmpty())
		Expect(t.Depth).To(Equal(0))
		Expect(t.Verify()).To(BeTrue())
	})

	It("detects altered entries", func() {
		t := transcript.Build(history)
		t.Messages[1].Content = "something else"

		Expect(t.Verify()).To(BeFalse())
	})

	It("detects dropped entries", func() {
		t := transcript.Build(history)
		t.Messages = append(t.Messages[:1], t.Messages[2:]...)

		Expect(t.Verify()).To(BeFalse())
	})

	Describe("Append", func() {
		It("extends a prefix into the full transcript", func() {
			full := transcript.Build(history)
			prefix := transcript.Build(history[:1])

			entries, ok := full.Since(prefix.HeadHash)
			Expect(ok).To(BeTrue())

			prefix.Append(entries...)
			Expect(prefix.Depth).To(Equal(3))
			Expect(prefix.HeadHash).To(Equal(full.HeadHash))
			Expect(prefix.Verify()).To(BeTrue())
		})

		It("fails verification when entries do not follow the head", func() {
			full := transcript.Build(history)
			prefix := transcript.Build(history[:1])

			prefix.Append(full.Messages[2])
			Expect(prefix.Verify()).To(BeFalse())
		})
	})

	Describe("Since", func() {
		It("returns the entries after a known hash", func() {
			t := transcript.Build(history)

			entries, ok := t.Since(t.Messages[0].Hash)
			Expect(ok).To(BeTrue())
			Expect(entries).To(HaveLen(2))
			Expect(entries[0].Content).To(Equal("How do I start an OSP?"))

			entries, ok = t.Since(t.HeadHash)
			Expect(ok).To(BeTrue())
			Expect(entries).To(BeEmpty())
		})

		It("returns everything for an empty hash and nothing for an unknown one", func() {
			t := transcript.Build(history)

			entries, ok := t.Since("")
			Expect(ok).To(BeTrue())
			Expect(entries).To(HaveLen(3))

			_, ok = t.Since("deadbeef")
			Expect(ok).To(BeFalse())
		})
	})
})
