package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/checkmoa/auth-service/internal/models"
)

const DefaultIndex = "access-logs"

// Indexer mirrors login access logs into Elasticsearch so admins can search
// the audit trail. The database rows stay authoritative.
type Indexer struct {
	ES    *elasticsearch.Client
	Index string
}

func NewIndexer(es *elasticsearch.Client, index string) *Indexer {
	if index == "" {
		index = DefaultIndex
	}
	return &Indexer{ES: es, Index: index}
}

func (i *Indexer) IndexAccessLog(ctx context.Context, log *models.AccessLog) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(log); err != nil {
		return fmt.Errorf("audit index: %w", err)
	}

	res, err := i.ES.Index(
		i.Index,
		&buf,
		i.ES.Index.WithContext(ctx),
		i.ES.Index.WithDocumentID(strconv.FormatUint(uint64(log.ID), 10)),
	)
	if err != nil {
		return fmt.Errorf("audit index: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("audit index: %s", res.Status())
	}
	return nil
}

// Search runs a fuzzy query over user agent, endpoint and ip.
func (i *Indexer) Search(ctx context.Context, query string, from, size int) (int64, []models.AccessLog, error) {
	body := map[string]interface{}{
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":     query,
				"fields":    []string{"user_agent", "endpoint", "ip"},
				"fuzziness": "AUTO",
			},
		},
		"from": from,
		"size": size,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0, nil, fmt.Errorf("audit search: %w", err)
	}

	res, err := i.ES.Search(
		i.ES.Search.WithContext(ctx),
		i.ES.Search.WithIndex(i.Index),
		i.ES.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("audit search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, nil, fmt.Errorf("audit search: %s", res.Status())
	}

	var r struct {
		Hits struct {
			Total struct{ Value int64 } `json:"total"`
			Hits  []struct {
				Source models.AccessLog `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, err
	}

	logs := make([]models.AccessLog, len(r.Hits.Hits))
	for n, hit := range r.Hits.Hits {
		logs[n] = hit.Source
	}
	return r.Hits.Total.Value, logs, nil
}
