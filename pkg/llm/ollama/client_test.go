package ollama_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/papercomputeco/farmguru/pkg/llm"
	"github.com/papercomputeco/farmguru/pkg/llm/ollama"
)

var _ = Describe("Client", func() {
	var (
		ctx      context.Context
		server   *httptest.Server
		received map[string]any
		status   int
		lines    []string
		req      *llm.ChatRequest
	)

	BeforeEach(func() {
		ctx = context.Background()
		status = http.StatusOK
		received = nil
		lines = nil
		req = llm.NewChatRequest("llama3", []llm.Message{
			llm.SystemMessage("persona"),
			llm.UserMessage("hi"),
		}, llm.DefaultOptions())

		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer GinkgoRecover()
			Expect(r.URL.Path).To(Equal("/api/chat"))
			Expect(json.NewDecoder(r.Body).Decode(&received)).To(Succeed())

			w.Header().Set("Content-Type", "application/x-ndjson")
			w.WriteHeader(status)
			for _, line := range lines {
				fmt.Fprintln(w, line)
			}
		}))
	})

	AfterEach(func() {
		server.Close()
	})

	newClient := func() *ollama.Client {
		return ollama.New(ollama.Config{URL: server.URL + "/"}, zap.NewNop())
	}

	collect := func(s llm.Stream) []string {
		var out []string
		for s.Next() {
			out = append(out, s.Current())
		}
		return out
	}

	It("streams message content until done", func() {
		lines = []string{
			`{"model":"llama3","message":{"role":"assistant","content":"You "},"done":false}`,
			``,
			`{"model":"llama3","message":{"role":"assistant","content":"should "},"done":false}`,
			`not json`,
			`{"model":"llama3","message":{"role":"assistant","content":"start by..."},"done":false}`,
			`{"model":"llama3","message":{"role":"assistant","content":""},"done":true,"eval_count":3}`,
		}

		s, err := newClient().Stream(ctx, req)
		Expect(err).NotTo(HaveOccurred())
		defer s.Close()

		Expect(collect(s)).To(Equal([]string{"You ", "should ", "start by..."}))
		Expect(s.Err()).NotTo(HaveOccurred())
	})

	It("maps generation parameters to Ollama options", func() {
		lines = []string{`{"message":{"role":"assistant","content":"ok"},"done":true}`}

		s, err := newClient().Stream(ctx, req)
		Expect(err).NotTo(HaveOccurred())
		Expect(collect(s)).To(Equal([]string{"ok"}))

		Expect(received["model"]).To(Equal("llama3"))
		Expect(received["stream"]).To(Equal(true))
		Expect(received["options"]).To(HaveKeyWithValue("temperature", 0.75))
		Expect(received["options"]).To(HaveKeyWithValue("num_predict", float64(225)))
		Expect(received["messages"]).To(HaveLen(2))
	})

	It("fails when the stream ends without done", func() {
		lines = []string{`{"message":{"role":"assistant","content":"You "},"done":false}`}

		s, err := newClient().Stream(ctx, req)
		Expect(err).NotTo(HaveOccurred())

		Expect(collect(s)).To(Equal([]string{"You "}))
		Expect(s.Err()).To(HaveOccurred())
	})

	It("fails on an in-stream error", func() {
		lines = []string{`{"error":"model crashed"}`}

		s, err := newClient().Stream(ctx, req)
		Expect(err).NotTo(HaveOccurred())

		Expect(collect(s)).To(BeEmpty())
		Expect(s.Err()).To(MatchError(ContainSubstring("model crashed")))
	})

	It("returns an APIError for non-200 responses", func() {
		status = http.StatusNotFound
		lines = []string{`{"error":"model \"llama3\" not found"}`}

		_, err := newClient().Stream(ctx, req)

		var apiErr *llm.APIError
		Expect(err).To(BeAssignableToTypeOf(apiErr))
		Expect(err.Error()).To(ContainSubstring(`model "llama3" not found`))
		Expect(err.(*llm.APIError).StatusCode).To(Equal(http.StatusNotFound))
	})
})
