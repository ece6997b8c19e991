package agent

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultSearchBaseURL = "https://api.duckduckgo.com"
	searchTopicLimit     = 5
)

// SearchWeb queries the DuckDuckGo instant-answer API. Read-only, so it is
// available in both modes.
type SearchWeb struct {
	BaseURL string
	Client  *http.Client
}

// NewSearchWeb returns the tool with its production endpoint.
func NewSearchWeb() *SearchWeb {
	return &SearchWeb{
		BaseURL: defaultSearchBaseURL,
		Client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (*SearchWeb) Name() string { return "search_web" }

func (*SearchWeb) Description() string {
	return "Searches the web for a query and returns summarized results."
}

func (*SearchWeb) InputSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{
				"type":        "string",
				"description": "The search query",
			},
		},
		"required": []string{"query"},
	}
}

func (s *SearchWeb) Execute(_ ToolContext, args map[string]any) (string, error) {
	query, _ := args["query"].(string)

	endpoint := fmt.Sprintf("%s/?q=%s&format=json&no_html=1", strings.TrimRight(s.BaseURL, "/"), url.QueryEscape(query))
	resp, err := s.Client.Get(endpoint)
	if err != nil {
		return "", fmt.Errorf("searching web: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("searching web: unexpected status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("searching web: %w", err)
	}

	var result struct {
		Heading       string `json:"Heading"`
		AbstractText  string `json:"AbstractText"`
		AbstractURL   string `json:"AbstractURL"`
		RelatedTopics []struct {
			Text     string `json:"Text"`
			FirstURL string `json:"FirstURL"`
		} `json:"RelatedTopics"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("searching web: decode: %w", err)
	}

	var sb strings.Builder
	if result.AbstractText != "" {
		if result.Heading != "" {
			fmt.Fprintf(&sb, "%s: ", result.Heading)
		}
		sb.WriteString(result.AbstractText)
		if result.AbstractURL != "" {
			fmt.Fprintf(&sb, " (%s)", result.AbstractURL)
		}
		sb.WriteString("\n")
	}
	count := 0
	for _, topic := range result.RelatedTopics {
		if topic.Text == "" {
			continue
		}
		fmt.Fprintf(&sb, "- %s", topic.Text)
		if topic.FirstURL != "" {
			fmt.Fprintf(&sb, " (%s)", topic.FirstURL)
		}
		sb.WriteString("\n")
		count++
		if count >= searchTopicLimit {
			break
		}
	}
	if sb.Len() == 0 {
		return fmt.Sprintf("No results found for '%s'", query), nil
	}
	return sb.String(), nil
}
