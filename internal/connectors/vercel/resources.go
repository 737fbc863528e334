package vercel

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

type Project struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Framework string `json:"framework,omitempty"`
	Git       *struct {
		Repository string `json:"repository"`
		Branch     string `json:"branch"`
	} `json:"git,omitempty"`
	Link *struct {
		Type string `json:"type"`
		Org  string `json:"org"`
		Repo string `json:"repo"`
	} `json:"link,omitempty"`
}

// Repository returns the linked git repository as owner/name when known.
func (p Project) Repository() string {
	if p.Git != nil && strings.TrimSpace(p.Git.Repository) != "" {
		return strings.TrimSpace(p.Git.Repository)
	}
	if p.Link != nil && p.Link.Org != "" && p.Link.Repo != "" {
		return p.Link.Org + "/" + p.Link.Repo
	}
	return ""
}

type Domain struct {
	Name     string `json:"name"`
	Verified bool   `json:"verified"`
	Primary  bool   `json:"primary"`
}

// EnvVar carries the key and targets of an environment variable. Values are
// never requested.
type EnvVar struct {
	Key    string   `json:"key"`
	Target []string `json:"target"`
}

type Deployment struct {
	ID        string `json:"id"`
	URL       string `json:"url"`
	State     string `json:"state"`
	Target    string `json:"target,omitempty"`
	CreatedAt int64  `json:"createdAt"`
}

type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

func (c *Client) CurrentUser(ctx context.Context) (User, error) {
	var payload struct {
		User User `json:"user"`
	}
	if err := c.getJSON(ctx, "/v2/user", nil, &payload); err != nil {
		return User{}, err
	}
	return payload.User, nil
}

func (c *Client) GetProject(ctx context.Context, nameOrID string) (Project, error) {
	nameOrID = strings.TrimSpace(nameOrID)
	if nameOrID == "" {
		return Project{}, fmt.Errorf("vercel project name is required")
	}
	var project Project
	if err := c.getJSON(ctx, "/v9/projects/"+url.PathEscape(nameOrID), nil, &project); err != nil {
		return Project{}, err
	}
	return project, nil
}

func (c *Client) ListDomains(ctx context.Context, projectID string) ([]Domain, error) {
	var payload struct {
		Domains []Domain `json:"domains"`
	}
	if err := c.getJSON(ctx, "/v9/projects/"+url.PathEscape(projectID)+"/domains", nil, &payload); err != nil {
		return nil, err
	}
	if payload.Domains == nil {
		return []Domain{}, nil
	}
	return payload.Domains, nil
}

func (c *Client) ListEnvVars(ctx context.Context, projectID string) ([]EnvVar, error) {
	var payload struct {
		Envs []EnvVar `json:"envs"`
	}
	if err := c.getJSON(ctx, "/v10/projects/"+url.PathEscape(projectID)+"/env", nil, &payload); err != nil {
		return nil, err
	}
	out := make([]EnvVar, 0, len(payload.Envs))
	for _, env := range payload.Envs {
		out = append(out, EnvVar{Key: env.Key, Target: env.Target})
	}
	return out, nil
}

func (c *Client) ListDeployments(ctx context.Context, projectID string, limit int) ([]Deployment, error) {
	if limit <= 0 {
		limit = defaultDeploymentLimit
	}
	var payload struct {
		Deployments []struct {
			UID        string `json:"uid"`
			ID         string `json:"id"`
			URL        string `json:"url"`
			State      string `json:"state"`
			ReadyState string `json:"readyState"`
			Target     string `json:"target"`
			CreatedAt  int64  `json:"createdAt"`
		} `json:"deployments"`
	}
	query := url.Values{}
	query.Set("projectId", projectID)
	query.Set("limit", strconv.Itoa(limit))
	if err := c.getJSON(ctx, "/v6/deployments", query, &payload); err != nil {
		return nil, err
	}
	out := make([]Deployment, 0, len(payload.Deployments))
	for _, d := range payload.Deployments {
		id := d.UID
		if id == "" {
			id = d.ID
		}
		state := d.State
		if state == "" {
			state = d.ReadyState
		}
		out = append(out, Deployment{ID: id, URL: d.URL, State: state, Target: d.Target, CreatedAt: d.CreatedAt})
	}
	return out, nil
}
