// Package transcript derives a content-addressed view of a conversation
// history. Each message is hashed together with the hash of the message
// before it, so the hash of the last message identifies the whole history
// and equal histories always produce equal hashes.
package transcript

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/papercomputeco/farmguru/pkg/llm"
)

// Entry is one message of a transcript.
type Entry struct {
	// Hash is the content-addressed identifier (SHA-256, hex-encoded)
	Hash string `json:"hash"`

	// ParentHash links to the previous entry's hash.
	// This will be nil for the first entry.
	ParentHash *string `json:"parent_hash,omitempty"`

	Role    string `json:"role"`
	Content string `json:"content"`
}

// NewEntry creates an entry for msg following parent, with its hash computed.
func NewEntry(msg llm.Message, parent *Entry) Entry {
	e := Entry{
		Role:    msg.Role,
		Content: msg.Content,
	}

	if parent != nil {
		parentHash := parent.Hash
		e.ParentHash = &parentHash
	}

	e.Hash = e.computeHash()
	return e
}

// Message returns the entry as a message.
func (e Entry) Message() llm.Message {
	return llm.Message{Role: e.Role, Content: e.Content}
}

type input struct {
	Content llm.Message `json:"content"`
	Parent  string      `json:"parent,omitempty"`
}

func (e Entry) computeHash() string {
	i := input{Content: e.Message()}
	if e.ParentHash != nil {
		i.Parent = *e.ParentHash
	}

	// Canonical JSON encoding for deterministic hashing
	data, err := json.Marshal(i)
	if err != nil {
		panic("failed to marshal hash input: " + err.Error())
	}

	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Transcript is a history with every message hashed.
type Transcript struct {
	// Messages in chronological order (oldest first)
	Messages []Entry `json:"messages"`
	// HeadHash is the hash of the last message, empty for an empty history
	HeadHash string `json:"head_hash"`
	// Depth is the number of messages in the history
	Depth int `json:"depth"`
}

// Build hashes history into a Transcript.
func Build(history []llm.Message) *Transcript {
	t := &Transcript{
		Messages: make([]Entry, 0, len(history)),
		Depth:    len(history),
	}

	var parent *Entry
	for _, msg := range history {
		entry := NewEntry(msg, parent)
		t.Messages = append(t.Messages, entry)
		parent = &t.Messages[len(t.Messages)-1]
	}

	if parent != nil {
		t.HeadHash = parent.Hash
	}
	return t
}

// Since returns the entries after the one with the given hash. An empty hash
// returns every entry. The second result is false when the hash is not part
// of the transcript.
func (t *Transcript) Since(hash string) ([]Entry, bool) {
	if hash == "" {
		return t.Messages, true
	}

	for i, e := range t.Messages {
		if e.Hash == hash {
			return t.Messages[i+1:], true
		}
	}
	return nil, false
}

// Append adds entries received after the current head, as returned by Since
// on a longer transcript. The caller should Verify the result.
func (t *Transcript) Append(entries ...Entry) {
	t.Messages = append(t.Messages, entries...)
	t.Depth = len(t.Messages)
	if len(t.Messages) > 0 {
		t.HeadHash = t.Messages[len(t.Messages)-1].Hash
	}
}

// Verify recomputes every hash and link, returning false if any entry was
// altered, reordered or dropped.
func (t *Transcript) Verify() bool {
	if t.Depth != len(t.Messages) {
		return false
	}

	var parent *Entry
	for i := range t.Messages {
		want := NewEntry(t.Messages[i].Message(), parent)
		if want.Hash != t.Messages[i].Hash {
			return false
		}
		parent = &t.Messages[i]
	}

	if parent == nil {
		return t.HeadHash == ""
	}
	return t.HeadHash == parent.Hash
}
