// Package fetch reads the live board from the GitHub Projects v2 GraphQL API
// and normalizes it into a snapshot keyed by content id.
package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"boardwatch/internal/snapshot"
)

const defaultEndpoint = "https://api.github.com/graphql"

const itemsQuery = `query($org: String!, $number: Int!, $cursor: String) {
  organization(login: $org) {
    projectV2(number: $number) {
      items(first: 100, after: $cursor) {
        pageInfo { hasNextPage endCursor }
        nodes {
          type
          fieldValueByName(name: "Status") {
            ... on ProjectV2ItemFieldSingleSelectValue { name }
          }
          content {
            ... on Issue {
              id title url closed
              labels(first: 50) { nodes { name } }
              assignees(first: 20) { nodes { login } }
            }
            ... on PullRequest {
              id title url closed merged
              labels(first: 50) { nodes { name } }
              assignees(first: 20) { nodes { login } }
            }
          }
        }
      }
    }
  }
}`

// Client fetches project board items for one organization project.
type Client struct {
	httpClient    *http.Client
	endpoint      string
	token         string
	org           string
	projectNumber int
}

// NewClient builds a client for the given org project. endpoint overrides the
// GraphQL URL for tests; empty means the public API.
func NewClient(token, org string, projectNumber int, endpoint string) *Client {
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	return &Client{
		httpClient:    &http.Client{Timeout: 30 * time.Second},
		endpoint:      endpoint,
		token:         token,
		org:           org,
		projectNumber: projectNumber,
	}
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type itemsResponse struct {
	Data struct {
		Organization struct {
			ProjectV2 struct {
				Items struct {
					PageInfo struct {
						HasNextPage bool   `json:"hasNextPage"`
						EndCursor   string `json:"endCursor"`
					} `json:"pageInfo"`
					Nodes []itemNode `json:"nodes"`
				} `json:"items"`
			} `json:"projectV2"`
		} `json:"organization"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

type itemNode struct {
	Type            string `json:"type"`
	FieldValueByName *struct {
		Name string `json:"name"`
	} `json:"fieldValueByName"`
	Content struct {
		ID     string `json:"id"`
		Title  string `json:"title"`
		URL    string `json:"url"`
		Closed bool   `json:"closed"`
		Merged bool   `json:"merged"`
		Labels struct {
			Nodes []struct {
				Name string `json:"name"`
			} `json:"nodes"`
		} `json:"labels"`
		Assignees struct {
			Nodes []struct {
				Login string `json:"login"`
			} `json:"nodes"`
		} `json:"assignees"`
	} `json:"content"`
}

// List pages through the project and returns the normalized snapshot. Items
// without a content id (draft issues) are skipped.
func (c *Client) List(ctx context.Context) (*snapshot.Snapshot, error) {
	items := snapshot.New()
	cursor := ""
	for {
		page, err := c.fetchPage(ctx, cursor)
		if err != nil {
			return nil, err
		}
		for _, node := range page.Data.Organization.ProjectV2.Items.Nodes {
			if node.Content.ID == "" {
				continue
			}
			items.Set(node.Content.ID, normalize(node))
		}
		info := page.Data.Organization.ProjectV2.Items.PageInfo
		if !info.HasNextPage {
			return items, nil
		}
		cursor = info.EndCursor
	}
}

func (c *Client) fetchPage(ctx context.Context, cursor string) (*itemsResponse, error) {
	variables := map[string]any{
		"org":    c.org,
		"number": c.projectNumber,
	}
	if cursor == "" {
		variables["cursor"] = nil
	} else {
		variables["cursor"] = cursor
	}

	body, err := json.Marshal(graphQLRequest{Query: itemsQuery, Variables: variables})
	if err != nil {
		return nil, fmt.Errorf("encode query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("query project items: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("query project items: unexpected status %d", resp.StatusCode)
	}

	var page itemsResponse
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("decode project items: %w", err)
	}
	if len(page.Errors) > 0 {
		return nil, fmt.Errorf("query project items: %s", page.Errors[0].Message)
	}
	return &page, nil
}

func normalize(node itemNode) snapshot.Item {
	item := snapshot.Item{
		Type:   node.Type,
		Title:  node.Content.Title,
		URL:    node.Content.URL,
		Closed: node.Content.Closed,
		Merged: node.Content.Merged,
	}
	if node.FieldValueByName != nil {
		item.Status = node.FieldValueByName.Name
	}
	for _, label := range node.Content.Labels.Nodes {
		item.Labels = append(item.Labels, label.Name)
	}
	for _, assignee := range node.Content.Assignees.Nodes {
		item.Assignees = append(item.Assignees, assignee.Login)
	}
	return item
}
