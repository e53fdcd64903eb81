// Package content serves the static guidance shown in the farm guru menu.
// Topics and their sections are described by topics/topics.toml and their
// text lives in markdown files next to it, embedded at build time.
package content

import (
	"embed"
	"fmt"
	"io/fs"
	"strings"

	"github.com/BurntSushi/toml"
)

// Topic keys of the navigation menu.
const (
	TopicHome                 = "home"
	TopicOrganicCertification = "organic-certification"
	TopicSellProduce          = "sell-produce"
	TopicTaxes                = "taxes"
	TopicPermits              = "permits"
)

const catalogFile = "topics.toml"

//go:embed topics
var embedded embed.FS

// Section is one selectable part of a topic, such as a certification step.
type Section struct {
	Key   string `json:"key"`
	Title string `json:"title"`
	Body  string `json:"body,omitempty"`
}

// Topic is one entry of the navigation menu.
type Topic struct {
	Key      string    `json:"key"`
	Title    string    `json:"title"`
	Intro    string    `json:"intro,omitempty"`
	Prompt   string    `json:"prompt,omitempty"` // Label of the section selector
	Sections []Section `json:"sections,omitempty"`
}

// Section returns the section with the given key.
func (t Topic) Section(key string) (Section, bool) {
	for _, s := range t.Sections {
		if s.Key == key {
			return s, true
		}
	}
	return Section{}, false
}

// Empty reports whether the topic has nothing to display yet.
func (t Topic) Empty() bool {
	return t.Intro == "" && len(t.Sections) == 0
}

// Markdown returns the topic intro followed by the body of the selected
// section. An empty or unknown sectionKey selects the first section.
func (t Topic) Markdown(sectionKey string) string {
	parts := make([]string, 0, 2)
	if t.Intro != "" {
		parts = append(parts, t.Intro)
	}

	if len(t.Sections) > 0 {
		section, ok := t.Section(sectionKey)
		if !ok {
			section = t.Sections[0]
		}
		parts = append(parts, section.Body)
	}

	return strings.Join(parts, "\n")
}

// Navigator maps topic keys to static content. It is read-only after
// construction and safe for concurrent use.
type Navigator struct {
	topics []Topic
	index  map[string]int
}

// NewNavigator loads the embedded catalog.
func NewNavigator() (*Navigator, error) {
	fsys, err := fs.Sub(embedded, "topics")
	if err != nil {
		return nil, err
	}
	return Load(fsys)
}

// Load reads a catalog from fsys. The catalog file names the markdown files
// for each topic intro and section, relative to the root of fsys.
func Load(fsys fs.FS) (*Navigator, error) {
	var c catalog
	md, err := toml.DecodeFS(fsys, catalogFile, &c)
	if err != nil {
		return nil, fmt.Errorf("could not decode %s: %w", catalogFile, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown keys in %s: %v", catalogFile, undecoded)
	}

	n := &Navigator{
		topics: make([]Topic, 0, len(c.Topics)),
		index:  make(map[string]int, len(c.Topics)),
	}

	for _, entry := range c.Topics {
		if entry.Key == "" {
			return nil, fmt.Errorf("topic %q has no key", entry.Title)
		}
		if _, dup := n.index[entry.Key]; dup {
			return nil, fmt.Errorf("duplicate topic %q", entry.Key)
		}

		topic := Topic{
			Key:    entry.Key,
			Title:  entry.Title,
			Prompt: entry.Prompt,
		}

		if topic.Intro, err = readMarkdown(fsys, entry.Intro); err != nil {
			return nil, fmt.Errorf("topic %q: %w", entry.Key, err)
		}

		seen := make(map[string]bool, len(entry.Sections))
		for _, s := range entry.Sections {
			if s.Key == "" || seen[s.Key] {
				return nil, fmt.Errorf("topic %q: missing or duplicate section key %q", entry.Key, s.Key)
			}
			seen[s.Key] = true

			body, err := readMarkdown(fsys, s.Body)
			if err != nil {
				return nil, fmt.Errorf("topic %q section %q: %w", entry.Key, s.Key, err)
			}
			topic.Sections = append(topic.Sections, Section{Key: s.Key, Title: s.Title, Body: body})
		}

		n.index[topic.Key] = len(n.topics)
		n.topics = append(n.topics, topic)
	}

	return n, nil
}

// Topics returns every topic in menu order.
func (n *Navigator) Topics() []Topic {
	out := make([]Topic, len(n.topics))
	copy(out, n.topics)
	return out
}

// Lookup returns the topic with the given key.
func (n *Navigator) Lookup(key string) (Topic, bool) {
	i, ok := n.index[key]
	if !ok {
		return Topic{}, false
	}
	return n.topics[i], true
}

// Section returns one section of a topic.
func (n *Navigator) Section(topicKey, sectionKey string) (Section, bool) {
	topic, ok := n.Lookup(topicKey)
	if !ok {
		return Section{}, false
	}
	return topic.Section(sectionKey)
}

type catalog struct {
	Topics []catalogTopic `toml:"topic"`
}

type catalogTopic struct {
	Key      string           `toml:"key"`
	Title    string           `toml:"title"`
	Intro    string           `toml:"intro"`
	Prompt   string           `toml:"prompt"`
	Sections []catalogSection `toml:"section"`
}

type catalogSection struct {
	Key   string `toml:"key"`
	Title string `toml:"title"`
	Body  string `toml:"body"`
}

func readMarkdown(fsys fs.FS, name string) (string, error) {
	if name == "" {
		return "", nil
	}

	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return "", fmt.Errorf("could not read %s: %w", name, err)
	}
	return strings.TrimSpace(string(data)) + "\n", nil
}
