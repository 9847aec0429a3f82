package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/pension-law-assistant/internal/core/domain"
)

// Payload keys indexed for filtering.
const (
	payloadDocumentID = "document_id"
	payloadArticleID  = "canonical_article_id"
)

type Client struct {
	baseURL    string
	collection string
	httpClient *http.Client

	ensureMu          sync.Mutex
	ensuredCollection bool
	ensuredVectorSize int
}

func New(baseURL, collection string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		collection: collection,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// ReplaceUnits supersedes the document's previous points wholesale: delete by
// document id, then upsert the fresh units. Point ids derive from the unit id,
// so re-running the same segmentation rewrites the same points.
func (c *Client) ReplaceUnits(ctx context.Context, documentID string, units []domain.TextUnit, vectors [][]float32) error {
	if len(units) == 0 {
		return c.deleteByDocument(ctx, documentID)
	}
	if len(units) != len(vectors) {
		return fmt.Errorf("units/vectors mismatch: %d vs %d", len(units), len(vectors))
	}

	if err := c.ensureCollection(ctx, len(vectors[0])); err != nil {
		return err
	}
	if err := c.deleteByDocument(ctx, documentID); err != nil {
		return err
	}

	type point struct {
		ID      string         `json:"id"`
		Vector  []float32      `json:"vector"`
		Payload map[string]any `json:"payload"`
	}

	points := make([]point, 0, len(units))
	for i, unit := range units {
		points = append(points, point{
			ID:      pointID(documentID, unit.ID),
			Vector:  vectors[i],
			Payload: unitPayload(documentID, unit),
		})
	}

	body, err := json.Marshal(map[string]any{"points": points})
	if err != nil {
		return fmt.Errorf("marshal upsert body: %w", err)
	}

	url := fmt.Sprintf("%s/collections/%s/points?wait=true", c.baseURL, c.collection)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create upsert request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant upsert request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return statusError("upsert", resp)
	}
	return nil
}

func (c *Client) SearchGeneral(ctx context.Context, queryVector []float32, limit int) ([]domain.RetrievalCandidate, error) {
	return c.search(ctx, queryVector, limit, nil)
}

// SearchByArticles restricts the search to units whose canonical article id
// is one of the given anchors.
func (c *Client) SearchByArticles(ctx context.Context, queryVector []float32, articleIDs []string, limit int) ([]domain.RetrievalCandidate, error) {
	if len(articleIDs) == 0 {
		return nil, nil
	}
	filter := map[string]any{
		"must": []map[string]any{
			{
				"key": payloadArticleID,
				"match": map[string]any{
					"any": articleIDs,
				},
			},
		},
	}
	return c.search(ctx, queryVector, limit, filter)
}

func (c *Client) search(ctx context.Context, queryVector []float32, limit int, filter map[string]any) ([]domain.RetrievalCandidate, error) {
	reqBody := map[string]any{
		"vector":       queryVector,
		"limit":        limit,
		"with_payload": true,
	}
	if filter != nil {
		reqBody["filter"] = filter
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal search body: %w", err)
	}

	url := fmt.Sprintf("%s/collections/%s/points/search", c.baseURL, c.collection)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("qdrant search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, statusError("search", resp)
	}

	var searchResp struct {
		Result []struct {
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&searchResp); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	out := make([]domain.RetrievalCandidate, 0, len(searchResp.Result))
	for _, r := range searchResp.Result {
		out = append(out, domain.RetrievalCandidate{
			Unit:           unitFromPayload(r.Payload),
			RetrievalScore: r.Score,
		})
	}
	return out, nil
}

func (c *Client) deleteByDocument(ctx context.Context, documentID string) error {
	reqBody := map[string]any{
		"filter": map[string]any{
			"must": []map[string]any{
				{
					"key": payloadDocumentID,
					"match": map[string]any{
						"value": documentID,
					},
				},
			},
		},
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal delete body: %w", err)
	}

	url := fmt.Sprintf("%s/collections/%s/points/delete?wait=true", c.baseURL, c.collection)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create delete request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant delete request: %w", err)
	}
	defer resp.Body.Close()

	// 404 means the collection does not exist yet, so there is nothing to
	// delete.
	if resp.StatusCode == http.StatusNotFound {
		return nil
	}
	if resp.StatusCode >= 300 {
		return statusError("delete", resp)
	}
	return nil
}

func (c *Client) ensureCollection(ctx context.Context, vectorSize int) error {
	c.ensureMu.Lock()
	if c.ensuredCollection && c.ensuredVectorSize == vectorSize {
		c.ensureMu.Unlock()
		return nil
	}
	c.ensureMu.Unlock()

	reqBody := map[string]any{
		"vectors": map[string]any{
			"size":     vectorSize,
			"distance": "Cosine",
		},
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal create collection body: %w", err)
	}

	url := fmt.Sprintf("%s/collections/%s", c.baseURL, c.collection)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create collection request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant ensure collection request: %w", err)
	}
	defer resp.Body.Close()

	// 200/201 for create, 409 if already exists (depends on version/config).
	if resp.StatusCode != http.StatusConflict && resp.StatusCode >= 300 {
		return statusError("ensure collection", resp)
	}

	if err := c.ensurePayloadIndexes(ctx); err != nil {
		return err
	}
	c.markCollectionEnsured(vectorSize)
	return nil
}

// ensurePayloadIndexes creates keyword indexes for the two filterable keys.
func (c *Client) ensurePayloadIndexes(ctx context.Context) error {
	for _, field := range []string{payloadDocumentID, payloadArticleID} {
		reqBody := map[string]any{
			"field_name":   field,
			"field_schema": "keyword",
		}
		body, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("marshal index body: %w", err)
		}

		url := fmt.Sprintf("%s/collections/%s/index?wait=true", c.baseURL, c.collection)
		req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create index request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("qdrant index request: %w", err)
		}
		if resp.StatusCode != http.StatusConflict && resp.StatusCode >= 300 {
			err = statusError("payload index "+field, resp)
			resp.Body.Close()
			return err
		}
		resp.Body.Close()
	}
	return nil
}

func (c *Client) markCollectionEnsured(vectorSize int) {
	c.ensureMu.Lock()
	defer c.ensureMu.Unlock()
	c.ensuredCollection = true
	c.ensuredVectorSize = vectorSize
}

// pointID is deterministic per (document, unit), so reindexing the same
// document overwrites instead of accumulating points.
func pointID(documentID, unitID string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(documentID+"/"+unitID)).String()
}

func unitPayload(documentID string, unit domain.TextUnit) map[string]any {
	p := map[string]any{
		"unit_id":       unit.ID,
		"content":       unit.Content,
		"file_name":     unit.Lineage.FileName,
		"law_title":     unit.Lineage.LawTitle,
		"chapter":       unit.Lineage.Chapter,
		"section":       unit.Lineage.Section,
		"article":       unit.Lineage.Article,
		"article_title": unit.Lineage.ArticleTitle,
		"point":         unit.Lineage.Point,
		"parent_header": unit.Lineage.ParentHeader,
	}
	p[payloadDocumentID] = documentID
	p[payloadArticleID] = unit.Lineage.CanonicalArticleID
	return p
}

func unitFromPayload(payload map[string]any) domain.TextUnit {
	return domain.TextUnit{
		ID:      getStringPayload(payload, "unit_id"),
		Content: getStringPayload(payload, "content"),
		Lineage: domain.UnitLineage{
			FileName:           getStringPayload(payload, "file_name"),
			LawTitle:           getStringPayload(payload, "law_title"),
			Chapter:            getStringPayload(payload, "chapter"),
			Section:            getStringPayload(payload, "section"),
			Article:            getStringPayload(payload, "article"),
			ArticleTitle:       getStringPayload(payload, "article_title"),
			Point:              getStringPayload(payload, "point"),
			CanonicalArticleID: getStringPayload(payload, payloadArticleID),
			ParentHeader:       getStringPayload(payload, "parent_header"),
		},
	}
}

func statusError(operation string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	if msg := strings.TrimSpace(string(body)); msg != "" {
		return fmt.Errorf("qdrant %s status: %s: %s", operation, resp.Status, msg)
	}
	return fmt.Errorf("qdrant %s status: %s", operation, resp.Status)
}

func getStringPayload(payload map[string]any, key string) string {
	v, ok := payload[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
