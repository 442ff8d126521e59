package search

import (
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
)

// CardDoc is the projection of an agent card stored in the search index.
// The full card stays in the database; the index only carries the fields
// that are searched or shown in result listings.
type CardDoc struct {
	Tenant      string   `json:"tenant"`
	AgentID     string   `json:"agent_id"`
	AgentKey    string   `json:"agent_key"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Version     string   `json:"version"`
	Provider    string   `json:"provider"`
	Skills      []string `json:"skills"`
	Public      bool     `json:"public"`
}

// Hit is one search result.
type Hit struct {
	AgentID int     `json:"agent_id"`
	Version string  `json:"version"`
	Score   float64 `json:"score"`
}

// Index wraps the Bleve full-text index over published agent cards. It is a
// best-effort secondary mirror of the store: callers must tolerate indexing
// failures and fall back to the database on search errors.
type Index struct {
	mu  sync.RWMutex
	idx bleve.Index
}

// Open opens the index at path, creating it with the card mapping if it does
// not exist yet.
func Open(path string) (*Index, error) {
	var idx bleve.Index
	var err error

	if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
		idx, err = bleve.New(path, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("failed to create search index: %w", err)
		}
	} else {
		idx, err = bleve.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open search index: %w", err)
		}
	}

	return &Index{idx: idx}, nil
}

// buildIndexMapping creates the Bleve index mapping for card documents.
func buildIndexMapping() mapping.IndexMapping {
	cardMapping := bleve.NewDocumentMapping()

	textFieldMapping := bleve.NewTextFieldMapping()
	textFieldMapping.Analyzer = standard.Name

	keywordFieldMapping := bleve.NewKeywordFieldMapping()
	boolFieldMapping := bleve.NewBooleanFieldMapping()

	cardMapping.AddFieldMappingsAt("name", textFieldMapping)
	cardMapping.AddFieldMappingsAt("description", textFieldMapping)
	cardMapping.AddFieldMappingsAt("skills", textFieldMapping)
	cardMapping.AddFieldMappingsAt("tenant", keywordFieldMapping)
	cardMapping.AddFieldMappingsAt("agent_id", keywordFieldMapping)
	cardMapping.AddFieldMappingsAt("agent_key", keywordFieldMapping)
	cardMapping.AddFieldMappingsAt("version", keywordFieldMapping)
	cardMapping.AddFieldMappingsAt("provider", keywordFieldMapping)
	cardMapping.AddFieldMappingsAt("public", boolFieldMapping)

	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultMapping = cardMapping
	indexMapping.DefaultAnalyzer = standard.Name

	return indexMapping
}

func docID(tenant string, agentID int, version string) string {
	return tenant + "/" + strconv.Itoa(agentID) + "/" + version
}

// IndexCard indexes one published card version.
func (i *Index) IndexCard(doc CardDoc) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	id, err := strconv.Atoi(doc.AgentID)
	if err != nil {
		return fmt.Errorf("invalid agent id %q: %w", doc.AgentID, err)
	}
	return i.idx.Index(docID(doc.Tenant, id, doc.Version), doc)
}

// Delete removes one card version from the index.
func (i *Index) Delete(tenant string, agentID int, version string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.idx.Delete(docID(tenant, agentID, version))
}

// Search runs a full-text query over public cards in one tenant.
func (i *Index) Search(tenant, queryText string, limit, offset int) ([]Hit, uint64, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	matchQuery := bleve.NewMatchQuery(queryText)

	tenantQuery := bleve.NewTermQuery(tenant)
	tenantQuery.SetField("tenant")

	publicTrue := true
	publicQuery := bleve.NewBoolFieldQuery(publicTrue)
	publicQuery.SetField("public")

	boolQuery := bleve.NewBooleanQuery()
	boolQuery.AddMust(matchQuery)
	boolQuery.AddMust(tenantQuery)
	boolQuery.AddMust(publicQuery)

	searchReq := bleve.NewSearchRequest(boolQuery)
	searchReq.Size = limit
	searchReq.From = offset
	searchReq.Fields = []string{"agent_id", "version"}

	searchResult, err := i.idx.Search(searchReq)
	if err != nil {
		return nil, 0, fmt.Errorf("search failed: %w", err)
	}

	hits := make([]Hit, 0, len(searchResult.Hits))
	for _, hit := range searchResult.Hits {
		agentIDStr, _ := hit.Fields["agent_id"].(string)
		agentID, err := strconv.Atoi(agentIDStr)
		if err != nil {
			continue
		}
		version, _ := hit.Fields["version"].(string)
		hits = append(hits, Hit{AgentID: agentID, Version: version, Score: hit.Score})
	}

	return hits, searchResult.Total, nil
}

// Close closes the underlying index.
func (i *Index) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.idx.Close()
}
