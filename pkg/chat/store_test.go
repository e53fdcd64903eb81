package chat_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/papercomputeco/farmguru/pkg/chat"
	"github.com/papercomputeco/farmguru/pkg/llm/llmtest"
)

var _ = Describe("Store", func() {
	var (
		store   *chat.Store
		manager *chat.Manager
	)

	BeforeEach(func() {
		store = chat.NewStore()
		manager = chat.NewManager(llmtest.New("hi"), chat.DefaultConfig(), zap.NewNop())
	})

	It("registers and looks up sessions", func() {
		s := manager.NewSession()
		store.Add(s)

		got, err := store.Get(s.ID())
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(BeIdenticalTo(s))
		Expect(store.Len()).To(Equal(1))
	})

	It("returns ErrSessionNotFound for unknown IDs", func() {
		_, err := store.Get("missing")
		Expect(err).To(MatchError(chat.ErrSessionNotFound))

		Expect(store.End("missing")).To(MatchError(chat.ErrSessionNotFound))
	})

	It("closes sessions when they end", func() {
		s := manager.NewSession()
		store.Add(s)

		Expect(store.End(s.ID())).To(Succeed())

		Expect(s.Closed()).To(BeTrue())
		Expect(store.Len()).To(Equal(0))
	})

	It("closes every session on CloseAll", func() {
		a, b := manager.NewSession(), manager.NewSession()
		store.Add(a)
		store.Add(b)

		store.CloseAll()

		Expect(a.Closed()).To(BeTrue())
		Expect(b.Closed()).To(BeTrue())
		Expect(store.Len()).To(Equal(0))
	})

	It("gives every session a distinct ID", func() {
		Expect(manager.NewSession().ID()).NotTo(Equal(manager.NewSession().ID()))
	})
})
