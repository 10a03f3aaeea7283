package embeddings

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
)

// Chunk is a piece of text with an optional embedding.
// The JSON form is {"id": ..., "text": "...", "embedding": [...] | null};
// id may be any JSON value and unknown fields are carried through unchanged.
type Chunk struct {
	ID        json.RawMessage
	Text      string
	Embedding []float32
	Extra     map[string]json.RawMessage
}

// HasEmbedding reports whether the chunk can take part in a search
func (c Chunk) HasEmbedding() bool {
	return len(c.Embedding) > 0
}

// MarshalJSON writes the chunk with its extra fields
func (c Chunk) MarshalJSON() ([]byte, error) {
	fields := make(map[string]any, len(c.Extra)+3)
	for k, v := range c.Extra {
		fields[k] = v
	}
	if len(c.ID) > 0 {
		fields["id"] = c.ID
	} else {
		fields["id"] = nil
	}
	fields["text"] = c.Text
	if c.Embedding != nil {
		fields["embedding"] = c.Embedding
	} else {
		fields["embedding"] = nil
	}
	return json.Marshal(fields)
}

// UnmarshalJSON reads a chunk object
func (c *Chunk) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	*c = Chunk{}
	if raw, ok := fields["id"]; ok {
		c.ID = append(json.RawMessage(nil), raw...)
		delete(fields, "id")
	}
	if raw, ok := fields["text"]; ok {
		if err := json.Unmarshal(raw, &c.Text); err != nil {
			return fmt.Errorf("chunk text: %w", err)
		}
		delete(fields, "text")
	}
	if raw, ok := fields["embedding"]; ok {
		if !bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			if err := json.Unmarshal(raw, &c.Embedding); err != nil {
				return fmt.Errorf("chunk embedding: %w", err)
			}
		}
		delete(fields, "embedding")
	}
	if len(fields) > 0 {
		c.Extra = fields
	}
	return nil
}

// LoadChunks reads a JSON array of chunks
func LoadChunks(path string) ([]Chunk, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read chunks: %w", err)
	}
	var chunks []Chunk
	if err := json.Unmarshal(data, &chunks); err != nil {
		return nil, fmt.Errorf("failed to parse chunks %s: %w", path, err)
	}
	return chunks, nil
}

// SaveChunks writes chunks as a JSON array
func SaveChunks(path string, chunks []Chunk) error {
	if chunks == nil {
		chunks = []Chunk{}
	}
	data, err := json.Marshal(chunks)
	if err != nil {
		return fmt.Errorf("failed to encode chunks: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write chunks: %w", err)
	}
	return nil
}
