package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"tutorium/backend/models"

	pdf "github.com/ledongthuc/pdf"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	// MaxChunkChars bounds a single chunk; MaxChunksPerDocument hard-caps the
	// row count per document, with overflow merged into the final chunk.
	MaxChunkChars        = 1500
	MaxChunksPerDocument = 200

	// EmbeddingDim is the dimensionality of the zero vector stored when the
	// embeddings API fails for a chunk.
	EmbeddingDim = 1536
)

// DocumentIngestor turns uploaded PDFs into embedded chunks for retrieval.
type DocumentIngestor struct {
	DB  *gorm.DB
	AI  *AIClient
	Log *zap.Logger
}

func NewDocumentIngestor(db *gorm.DB, ai *AIClient, log *zap.Logger) *DocumentIngestor {
	return &DocumentIngestor{DB: db, AI: ai, Log: log.With(zap.String("service", "ingest"))}
}

// ExtractPDFText pulls plain text out of a PDF byte stream.
func ExtractPDFText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	var sb strings.Builder
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// A single broken page does not abort the whole document.
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n\n")
	}

	out := strings.TrimSpace(sb.String())
	if out == "" {
		return "", fmt.Errorf("pdf contains no extractable text")
	}
	return out, nil
}

// ChunkText splits text into paragraph-bounded chunks of at most maxChars.
// Paragraphs longer than maxChars are split mid-paragraph. When the hard cap
// on chunk count is reached, everything left is merged into the last chunk.
func ChunkText(text string, maxChars, maxChunks int) []string {
	if maxChars <= 0 {
		maxChars = MaxChunkChars
	}
	if maxChunks <= 0 {
		maxChunks = MaxChunksPerDocument
	}

	var chunks []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			chunks = append(chunks, strings.TrimSpace(current.String()))
			current.Reset()
		}
	}

	for _, paragraph := range strings.Split(text, "\n\n") {
		paragraph = strings.TrimSpace(paragraph)
		if paragraph == "" {
			continue
		}

		for len(paragraph) > maxChars {
			cut := maxChars
			// Back up to a rune boundary so a multi-byte character is
			// never split across chunks.
			for cut > 0 && !utf8.RuneStart(paragraph[cut]) {
				cut--
			}
			if cut == 0 {
				cut = maxChars
			}
			flush()
			chunks = append(chunks, paragraph[:cut])
			paragraph = paragraph[cut:]
		}

		if current.Len()+len(paragraph)+2 > maxChars {
			flush()
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(paragraph)
	}
	flush()

	if len(chunks) > maxChunks {
		merged := strings.Join(chunks[maxChunks-1:], "\n\n")
		chunks = append(chunks[:maxChunks-1], merged)
	}

	return chunks
}

// Ingest extracts, chunks, embeds, and stores one uploaded PDF. Embedding
// failures degrade to a zero vector so ingestion never aborts mid-document.
func (d *DocumentIngestor) Ingest(ctx context.Context, userID uint, fileName, storedName string, data []byte) (*models.Document, error) {
	doc := models.Document{
		UserID:     userID,
		FileName:   fileName,
		StoredName: storedName,
		Status:     "processing",
	}
	if err := d.DB.Create(&doc).Error; err != nil {
		return nil, err
	}

	text, err := ExtractPDFText(data)
	if err != nil {
		d.DB.Model(&doc).Update("status", "failed")
		return nil, err
	}

	chunks := ChunkText(text, MaxChunkChars, MaxChunksPerDocument)
	for i, content := range chunks {
		vector, err := d.AI.Embed(ctx, content)
		if err != nil {
			d.Log.Warn("embedding failed, storing zero vector",
				zap.Uint("document_id", doc.ID), zap.Int("chunk", i), zap.Error(err))
			vector = make([]float32, EmbeddingDim)
		}

		encoded, err := json.Marshal(vector)
		if err != nil {
			return nil, err
		}

		chunk := models.DocumentChunk{
			DocumentID: doc.ID,
			Position:   i,
			Content:    content,
			Embedding:  datatypes.JSON(encoded),
		}
		if err := d.DB.Create(&chunk).Error; err != nil {
			return nil, err
		}
	}

	err = d.DB.Model(&doc).Updates(map[string]interface{}{
		"status":      "ready",
		"chunk_count": len(chunks),
	}).Error
	if err != nil {
		return nil, err
	}

	doc.Status = "ready"
	doc.ChunkCount = len(chunks)
	return &doc, nil
}

// CosineSimilarity of two vectors; 0 when either has zero magnitude.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// ScoredChunk pairs a chunk with its similarity to a query.
type ScoredChunk struct {
	Chunk models.DocumentChunk
	Score float64
}

// TopChunks ranks chunks by cosine similarity to the query vector, drops
// everything below threshold, and returns the best k.
func TopChunks(chunks []models.DocumentChunk, query []float32, k int, threshold float64) []ScoredChunk {
	scored := make([]ScoredChunk, 0, len(chunks))
	for _, chunk := range chunks {
		var vector []float32
		if err := json.Unmarshal(chunk.Embedding, &vector); err != nil {
			continue
		}
		score := CosineSimilarity(query, vector)
		if score < threshold {
			continue
		}
		scored = append(scored, ScoredChunk{Chunk: chunk, Score: score})
	}

	sort.Slice(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if len(scored) > k {
		scored = scored[:k]
	}
	return scored
}
