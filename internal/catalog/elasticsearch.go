// internal/catalog/elasticsearch.go
package catalog

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"program-matcher/internal/common/errors"
	"program-matcher/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

// ProgramIndexMapping keeps every workbook column as a keyword so fee and
// duration text survive unchanged.
const ProgramIndexMapping = `{
  "mappings": {
    "properties": {
      "Abroad Course Name":     {"type": "text", "fields": {"raw": {"type": "keyword"}}},
      "Abroad University":      {"type": "keyword"},
      "Abroad Course Type":     {"type": "keyword"},
      "Abroad Course Duration": {"type": "keyword"},
      "Abroad Course Fee":      {"type": "keyword"},
      "Online Course Name":     {"type": "keyword"},
      "Online Course Duration": {"type": "keyword"},
      "Online Course Fee":      {"type": "keyword"},
      "Course Level":           {"type": "keyword"},
      "country":                {"type": "keyword"},
      "position":               {"type": "integer"}
    }
  }
}`

const defaultPageSize = 1000

// indexedProgram adds the dataset position so the index returns rows in
// workbook order, which keeps tie-breaking in the matcher stable.
type indexedProgram struct {
	models.Program
	Position int `json:"position"`
}

// ElasticsearchSource reads and writes the program index.
type ElasticsearchSource struct {
	client   *elasticsearch.Client
	index    string
	pageSize int
}

func NewElasticsearchSource(client *elasticsearch.Client, index string) *ElasticsearchSource {
	return &ElasticsearchSource{client: client, index: index, pageSize: defaultPageSize}
}

func (s *ElasticsearchSource) Name() string {
	return "elasticsearch:" + s.index
}

// Load pages through the whole index with search_after on position.
func (s *ElasticsearchSource) Load(ctx context.Context) ([]models.Program, error) {
	var (
		programs []models.Program
		after    []interface{}
	)

	for {
		query := map[string]interface{}{
			"size":  s.pageSize,
			"query": map[string]interface{}{"match_all": map[string]interface{}{}},
			"sort":  []interface{}{map[string]interface{}{"position": "asc"}},
		}
		if after != nil {
			query["search_after"] = after
		}
		body, err := json.Marshal(query)
		if err != nil {
			return nil, err
		}

		res, err := s.client.Search(
			s.client.Search.WithContext(ctx),
			s.client.Search.WithIndex(s.index),
			s.client.Search.WithBody(bytes.NewReader(body)),
		)
		if err != nil {
			return nil, errors.NewSearchQueryFailedError(s.index, err)
		}

		page, err := decodeSearch(res)
		if err != nil {
			return nil, errors.NewSearchQueryFailedError(s.index, err)
		}

		for _, hit := range page.Hits.Hits {
			programs = append(programs, hit.Source.Program)
		}
		if len(page.Hits.Hits) < s.pageSize {
			return programs, nil
		}
		after = page.Hits.Hits[len(page.Hits.Hits)-1].Sort
	}
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			Source indexedProgram `json:"_source"`
			Sort   []interface{}  `json:"sort"`
		} `json:"hits"`
	} `json:"hits"`
}

func decodeSearch(res *esapi.Response) (*searchResponse, error) {
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("search error: %s", res.Status())
	}

	var out searchResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	return &out, nil
}

// IndexPrograms bulk-writes programs. Document ids are derived from the
// row content so re-indexing the same workbook overwrites in place.
func (s *ElasticsearchSource) IndexPrograms(ctx context.Context, programs []models.Program) (int, error) {
	if len(programs) == 0 {
		return 0, nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for i, p := range programs {
		meta := map[string]interface{}{
			"index": map[string]interface{}{"_index": s.index, "_id": DocumentID(p)},
		}
		if err := enc.Encode(meta); err != nil {
			return 0, err
		}
		if err := enc.Encode(indexedProgram{Program: p, Position: i}); err != nil {
			return 0, err
		}
	}

	res, err := s.client.Bulk(
		bytes.NewReader(buf.Bytes()),
		s.client.Bulk.WithContext(ctx),
		s.client.Bulk.WithRefresh("true"),
	)
	if err != nil {
		return 0, errors.NewSearchQueryFailedError(s.index, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return 0, errors.NewSearchQueryFailedError(s.index, fmt.Errorf("bulk error: %s", res.Status()))
	}

	var bulk struct {
		Errors bool `json:"errors"`
		Items  []map[string]struct {
			Status int `json:"status"`
			Error  *struct {
				Reason string `json:"reason"`
			} `json:"error"`
		} `json:"items"`
	}
	if err := json.NewDecoder(res.Body).Decode(&bulk); err != nil {
		return 0, fmt.Errorf("decode bulk response: %w", err)
	}

	indexed := 0
	var reasons []string
	for _, item := range bulk.Items {
		for _, result := range item {
			if result.Error != nil {
				reasons = append(reasons, result.Error.Reason)
				continue
			}
			indexed++
		}
	}
	if bulk.Errors {
		return indexed, errors.NewSearchQueryFailedError(s.index,
			fmt.Errorf("%d documents rejected: %s", len(reasons), strings.Join(reasons, "; ")))
	}
	return indexed, nil
}

// DocumentID identifies a program by country, university and course.
func DocumentID(p models.Program) string {
	sum := sha1.Sum([]byte(p.Country + "\x00" + p.University + "\x00" + p.CourseName + "\x00" + p.DegreeType))
	return hex.EncodeToString(sum[:])
}
