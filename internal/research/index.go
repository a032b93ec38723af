package research

import (
	"fmt"
	"log"
	"sync"

	"github.com/blevesearch/bleve"

	"github.com/ganesh1082/query-to-pdf-sub000/models"
)

// LearningIndex is an in-memory full-text index over the learnings of
// the most recent run, used by the search endpoint.
type LearningIndex struct {
	mu     sync.Mutex
	idx    bleve.Index
	next   int
	logger *log.Logger
}

type indexedLearning struct {
	Content     string  `json:"content"`
	Reliability float64 `json:"reliability"`
}

func NewLearningIndex() (*LearningIndex, error) {
	idx, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("learning index: %w", err)
	}
	return &LearningIndex{
		idx:    idx,
		logger: log.New(log.Writer(), "[INDEX] ", log.LstdFlags),
	}, nil
}

// Add indexes one learning.
func (l *LearningIndex) Add(learning models.Learning) {
	l.mu.Lock()
	defer l.mu.Unlock()
	id := fmt.Sprintf("learning-%d", l.next)
	l.next++
	doc := indexedLearning{Content: learning.Content, Reliability: learning.Reliability}
	if err := l.idx.Index(id, doc); err != nil {
		l.logger.Printf("index %s failed: %v", id, err)
	}
}

// Reset drops all indexed learnings, for the start of a new run.
func (l *LearningIndex) Reset() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.idx.Close(); err != nil {
		return err
	}
	idx, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return fmt.Errorf("learning index: %w", err)
	}
	l.idx = idx
	l.next = 0
	return nil
}

// Search returns the contents of the learnings matching the query, by
// descending relevance.
func (l *LearningIndex) Search(q string, limit int) ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if limit <= 0 {
		limit = 10
	}
	req := bleve.NewSearchRequest(bleve.NewQueryStringQuery(q))
	req.Size = limit
	req.Fields = []string{"content"}
	res, err := l.idx.Search(req)
	if err != nil {
		return nil, fmt.Errorf("learning search: %w", err)
	}
	var out []string
	for _, hit := range res.Hits {
		if content, ok := hit.Fields["content"].(string); ok {
			out = append(out, content)
		}
	}
	return out, nil
}
