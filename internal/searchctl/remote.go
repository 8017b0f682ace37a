package searchctl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"folio/internal/engine"
)

// RemoteClient calls the external tag-search service. Requests honor context
// cancellation, so a superseded search aborts for real instead of just being
// dropped on completion.
type RemoteClient struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewRemoteClient creates a client for the tag-search service at baseURL.
// An empty baseURL disables remote search entirely.
func NewRemoteClient(baseURL, token string) *RemoteClient {
	return &RemoteClient{
		baseURL: baseURL,
		token:   token,
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// Enabled reports whether a remote endpoint is configured.
func (r *RemoteClient) Enabled() bool { return r != nil && r.baseURL != "" }

type tagSearchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

type tagSearchResponse struct {
	Hits []struct {
		ID           string   `json:"id"`
		Tag          string   `json:"tag"`
		Citation     string   `json:"citation"`
		RichHTML     string   `json:"richHtml"`
		PlainText    string   `json:"plainText"`
		CopyText     string   `json:"copyText"`
		ParagraphXML []string `json:"paragraphXml"`
		SourcePath   string   `json:"sourcePath"`
	} `json:"hits"`
}

// SearchTags queries the remote service for tagged citation blocks.
func (r *RemoteClient) SearchTags(ctx context.Context, query string, limit int) ([]engine.RemoteTagHit, error) {
	body, err := json.Marshal(tagSearchRequest{Query: query, Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("marshal tag search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/api/tags/search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build tag search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tag search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("tag search returned %d: %s", resp.StatusCode, string(respBody))
	}

	var result tagSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode tag search response: %w", err)
	}

	hits := make([]engine.RemoteTagHit, 0, len(result.Hits))
	for _, h := range result.Hits {
		hits = append(hits, engine.RemoteTagHit{
			ID:           h.ID,
			Tag:          h.Tag,
			Citation:     h.Citation,
			RichHTML:     h.RichHTML,
			PlainText:    h.PlainText,
			CopyText:     h.CopyText,
			ParagraphXML: h.ParagraphXML,
			SourcePath:   h.SourcePath,
		})
	}
	return hits, nil
}
