package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/farmguru/pkg/content"
)

// TopicSummary is a menu entry without its text.
type TopicSummary struct {
	Key      string            `json:"key"`
	Title    string            `json:"title"`
	Prompt   string            `json:"prompt,omitempty"`
	Sections []content.Section `json:"sections,omitempty"`
}

// TopicsResponse lists the catalog in menu order.
type TopicsResponse struct {
	Topics []TopicSummary `json:"topics"`
}

// TopicResponse is one topic with its text.
type TopicResponse struct {
	content.Topic

	// Markdown is the intro followed by the first section, as first shown
	Markdown string `json:"markdown"`
}

func summarize(t content.Topic) TopicSummary {
	sum := TopicSummary{Key: t.Key, Title: t.Title, Prompt: t.Prompt}
	for _, sec := range t.Sections {
		sum.Sections = append(sum.Sections, content.Section{Key: sec.Key, Title: sec.Title})
	}
	return sum
}

func (s *Server) handleListTopics(c *fiber.Ctx) error {
	topics := s.navigator.Topics()

	resp := TopicsResponse{Topics: make([]TopicSummary, 0, len(topics))}
	for _, t := range topics {
		resp.Topics = append(resp.Topics, summarize(t))
	}
	return c.JSON(resp)
}

func (s *Server) handleGetTopic(c *fiber.Ctx) error {
	topic, ok := s.navigator.Lookup(c.Params("key"))
	if !ok {
		return errorJSON(c, fiber.StatusNotFound, "topic not found")
	}

	return c.JSON(TopicResponse{Topic: topic, Markdown: topic.Markdown("")})
}

func (s *Server) handleGetSection(c *fiber.Ctx) error {
	section, ok := s.navigator.Section(c.Params("key"), c.Params("section"))
	if !ok {
		return errorJSON(c, fiber.StatusNotFound, "section not found")
	}

	return c.JSON(section)
}
