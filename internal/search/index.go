// internal/search/index.go
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	apperrors "fieldsales-console/internal/common/errors"
	"fieldsales-console/internal/common/logger"
	"fieldsales-console/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

const DefaultIndex = "console-stores"

// storeMapping keeps ids and filter fields as keywords and the names as text.
const storeMapping = `{
  "mappings": {
    "properties": {
      "id":             {"type": "long"},
      "storeName":      {"type": "text", "fields": {"raw": {"type": "keyword"}}},
      "clientName":     {"type": "text"},
      "city":           {"type": "keyword"},
      "state":          {"type": "keyword"},
      "clientType":     {"type": "keyword"},
      "primaryContact": {"type": "keyword"},
      "email":          {"type": "keyword"},
      "employeeName":   {"type": "text"},
      "intent":         {"type": "integer"},
      "monthlySale":    {"type": "double"}
    }
  }
}`

// Document is what the index holds for one store.
type Document struct {
	ID             int64   `json:"id"`
	StoreName      string  `json:"storeName"`
	ClientName     string  `json:"clientName,omitempty"`
	City           string  `json:"city,omitempty"`
	State          string  `json:"state,omitempty"`
	ClientType     string  `json:"clientType,omitempty"`
	PrimaryContact string  `json:"primaryContact,omitempty"`
	Email          string  `json:"email,omitempty"`
	EmployeeName   string  `json:"employeeName,omitempty"`
	Intent         int     `json:"intent,omitempty"`
	MonthlySale    float64 `json:"monthlySale,omitempty"`
}

func documentOf(s models.Store) Document {
	return Document{
		ID:             s.ID,
		StoreName:      s.StoreName,
		ClientName:     s.ClientName(),
		City:           s.City,
		State:          s.State,
		ClientType:     s.EffectiveClientType(),
		PrimaryContact: s.PrimaryContact,
		Email:          s.Email,
		EmployeeName:   s.EmployeeName,
		Intent:         s.Intent,
		MonthlySale:    s.MonthlySale,
	}
}

// Query is a customer search. Text runs across the name and contact fields;
// City and ClientType narrow the hits exactly.
type Query struct {
	Text       string
	City       string
	ClientType string
	From       int
	Size       int
}

type Result struct {
	Total int        `json:"total"`
	Hits  []Document `json:"hits"`
}

// StoreIndex keeps a searchable copy of the customer list.
type StoreIndex struct {
	client *elasticsearch.Client
	index  string
	logger logger.Logger
}

func NewStoreIndex(client *elasticsearch.Client, index string, log logger.Logger) *StoreIndex {
	if index == "" {
		index = DefaultIndex
	}
	return &StoreIndex{client: client, index: index, logger: logger.Component(log, "search")}
}

func (s *StoreIndex) Index() string {
	return s.index
}

// EnsureIndex creates the index with its mapping when it does not exist.
func (s *StoreIndex) EnsureIndex(ctx context.Context) error {
	res, err := s.client.Indices.Exists([]string{s.index}, s.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return apperrors.NewSearchError("index exists", err)
	}
	res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return nil
	}

	res, err = s.client.Indices.Create(s.index,
		s.client.Indices.Create.WithContext(ctx),
		s.client.Indices.Create.WithBody(strings.NewReader(storeMapping)),
	)
	if err != nil {
		return apperrors.NewSearchError("create index", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return apperrors.NewSearchError("create index", responseError(res))
	}
	s.logger.Info("search index created", map[string]interface{}{"index": s.index})
	return nil
}

// IndexStores upserts stores in one bulk request and returns how many were
// accepted.
func (s *StoreIndex) IndexStores(ctx context.Context, stores []models.Store) (int, error) {
	if len(stores) == 0 {
		return 0, nil
	}

	var body bytes.Buffer
	enc := json.NewEncoder(&body)
	for _, st := range stores {
		meta := map[string]interface{}{
			"index": map[string]interface{}{"_index": s.index, "_id": strconv.FormatInt(st.ID, 10)},
		}
		if err := enc.Encode(meta); err != nil {
			return 0, apperrors.NewSearchError("bulk encode", err)
		}
		if err := enc.Encode(documentOf(st)); err != nil {
			return 0, apperrors.NewSearchError("bulk encode", err)
		}
	}

	req := esapi.BulkRequest{
		Index:   s.index,
		Body:    &body,
		Refresh: "true",
	}
	res, err := req.Do(ctx, s.client)
	if err != nil {
		return 0, apperrors.NewSearchError("bulk", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, apperrors.NewSearchError("bulk", responseError(res))
	}

	var out struct {
		Errors bool `json:"errors"`
		Items  []map[string]struct {
			Status int `json:"status"`
		} `json:"items"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return 0, apperrors.NewSearchError("bulk decode", err)
	}

	accepted := 0
	for _, item := range out.Items {
		for _, r := range item {
			if r.Status >= 200 && r.Status < 300 {
				accepted++
			}
		}
	}
	if out.Errors {
		s.logger.Warn("bulk index had rejected documents", map[string]interface{}{
			"accepted": accepted,
			"sent":     len(stores),
		})
	}
	return accepted, nil
}

// Search runs q against the index.
func (s *StoreIndex) Search(ctx context.Context, q Query) (Result, error) {
	body, err := json.Marshal(buildQuery(q))
	if err != nil {
		return Result{}, apperrors.NewSearchError("search encode", err)
	}

	size := q.Size
	if size <= 0 {
		size = 20
	}
	from := q.From
	req := esapi.SearchRequest{
		Index: []string{s.index},
		Body:  bytes.NewReader(body),
		From:  &from,
		Size:  &size,
	}
	res, err := req.Do(ctx, s.client)
	if err != nil {
		return Result{}, apperrors.NewSearchError("search", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return Result{}, apperrors.NewSearchError("search", responseError(res))
	}

	var out struct {
		Hits struct {
			Total struct {
				Value int `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source Document `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return Result{}, apperrors.NewSearchError("search decode", err)
	}

	result := Result{Total: out.Hits.Total.Value, Hits: make([]Document, 0, len(out.Hits.Hits))}
	for _, h := range out.Hits.Hits {
		result.Hits = append(result.Hits, h.Source)
	}
	return result, nil
}

func buildQuery(q Query) map[string]interface{} {
	must := []interface{}{}
	if text := strings.TrimSpace(q.Text); text != "" {
		must = append(must, map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":     text,
				"fields":    []string{"storeName^3", "clientName^2", "employeeName", "primaryContact", "email"},
				"type":      "best_fields",
				"fuzziness": "AUTO",
			},
		})
	} else {
		must = append(must, map[string]interface{}{"match_all": map[string]interface{}{}})
	}

	var filter []interface{}
	if q.City != "" {
		filter = append(filter, map[string]interface{}{"term": map[string]interface{}{"city": q.City}})
	}
	if q.ClientType != "" {
		filter = append(filter, map[string]interface{}{"term": map[string]interface{}{"clientType": q.ClientType}})
	}

	boolQuery := map[string]interface{}{"must": must}
	if len(filter) > 0 {
		boolQuery["filter"] = filter
	}
	return map[string]interface{}{"query": map[string]interface{}{"bool": boolQuery}}
}

// Delete drops one store from the index. A missing document is not an error.
func (s *StoreIndex) Delete(ctx context.Context, id int64) error {
	res, err := s.client.Delete(s.index, strconv.FormatInt(id, 10), s.client.Delete.WithContext(ctx))
	if err != nil {
		return apperrors.NewSearchError("delete", err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return apperrors.NewSearchError("delete", responseError(res))
	}
	return nil
}

func responseError(res *esapi.Response) error {
	data, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
	return fmt.Errorf("%s: %s", res.Status(), strings.TrimSpace(string(data)))
}
