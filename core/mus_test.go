package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentMUSRoundTrip(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)
	doc := Document{
		Id:         IDFromContent("https://example.com/lighthouses"),
		Title:      "Lighthouses of the North Atlantic",
		URL:        "https://example.com/lighthouses",
		Content:    "A survey of lighthouse construction techniques.",
		Vector:     []float32{0.25, -0.5, 0.75},
		Metadata:   map[string]string{"lang": "en", "source": "seed"},
		InsertedAt: now,
		UpdatedAt:  now,
	}

	buf := make([]byte, DocumentMUS.Size(doc))
	n := DocumentMUS.Marshal(doc, buf)
	assert.Equal(t, len(buf), n)

	decoded, n, err := DocumentMUS.Unmarshal(buf)
	require.NoError(t, err)
	assert.Equal(t, len(buf), n)
	assert.Equal(t, doc.Id, decoded.Id)
	assert.Equal(t, doc.Title, decoded.Title)
	assert.Equal(t, doc.URL, decoded.URL)
	assert.Equal(t, doc.Content, decoded.Content)
	assert.Equal(t, doc.Vector, decoded.Vector)
	assert.Equal(t, doc.Metadata, decoded.Metadata)
	assert.True(t, doc.InsertedAt.Equal(decoded.InsertedAt))
	assert.True(t, doc.UpdatedAt.Equal(decoded.UpdatedAt))
}

func TestDocumentMUSTruncatedData(t *testing.T) {
	doc := Document{Id: 42, Title: "t", Content: "c"}
	buf := make([]byte, DocumentMUS.Size(doc))
	DocumentMUS.Marshal(doc, buf)

	_, _, err := DocumentMUS.Unmarshal(buf[:2])
	assert.Error(t, err)
}
