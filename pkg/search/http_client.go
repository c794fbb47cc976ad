package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"doc-support-be/pkg/store"
)

// HTTPClient queries a document search index over its REST API.
type HTTPClient struct {
	baseURL string
	indexID string
	apiKey  string
	client  *http.Client
}

type queryRequest struct {
	QueryText string `json:"query_text"`
	IndexID   string `json:"index_id"`
}

type queryResponse struct {
	ResultItems []struct {
		Type            string `json:"type"`
		DocumentExcerpt struct {
			Text string `json:"text"`
		} `json:"document_excerpt"`
		DocumentTitle *struct {
			Text string `json:"text"`
		} `json:"document_title,omitempty"`
		DocumentURI string `json:"document_uri"`
	} `json:"result_items"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func NewHTTPClient(baseURL, indexID, apiKey string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPClient{
		baseURL: baseURL,
		indexID: indexID,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

// Search posts the query to the index and maps the ranked items into
// store.Result in backend order.
func (c *HTTPClient) Search(ctx context.Context, query string) ([]store.Result, error) {
	reqBody := queryRequest{QueryText: query, IndexID: c.indexID}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/query", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.apiKey))

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search backend returned status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var parsed queryResponse
	if err := json.Unmarshal(bodyBytes, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("search backend error: %s", parsed.Error.Message)
	}

	results := make([]store.Result, 0, len(parsed.ResultItems))
	for _, item := range parsed.ResultItems {
		res := store.Result{
			Kind:        item.Type,
			ExcerptText: item.DocumentExcerpt.Text,
			SourceURI:   item.DocumentURI,
		}
		if item.DocumentTitle != nil {
			res.Title = item.DocumentTitle.Text
		}
		results = append(results, res)
	}
	return results, nil
}
