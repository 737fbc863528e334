package vercel

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/threadspace/threadspace/internal/connectors/configstore"
	"github.com/threadspace/threadspace/internal/connectors/registry"
	"github.com/threadspace/threadspace/internal/metrics"
	"golang.org/x/sync/errgroup"
)

// ProjectSummary is the read model of the connected Vercel project.
type ProjectSummary struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Framework   string       `json:"framework,omitempty"`
	Repository  string       `json:"repo,omitempty"`
	Domains     []Domain     `json:"domains"`
	Envs        []EnvVar     `json:"envs"`
	Deployments []Deployment `json:"deployments"`
}

// Summary reads the project behind the project's connected Vercel
// integration. Errors keep the registry kind of the failing call.
func (c *Connector) Summary(ctx context.Context, projectID uuid.UUID) (ProjectSummary, error) {
	_, payload, err := c.runner.Connected(ctx, projectID, registry.ProviderVercel)
	if err != nil {
		return ProjectSummary{}, err
	}
	creds, err := configstore.DecodeVercelCredentials(payload)
	if err != nil {
		return ProjectSummary{}, fmt.Errorf("%w: decode stored vercel credentials: %w", registry.ErrPersistence, err)
	}
	client, err := c.client(creds)
	if err != nil {
		return ProjectSummary{}, err
	}

	summary, err := c.summarize(ctx, client, creds.ProjectName)
	metrics.ProviderRequestsTotal.WithLabelValues(string(registry.ProviderVercel), "summary", outcome(err)).Inc()
	return summary, err
}

func (c *Connector) summarize(ctx context.Context, client *Client, projectName string) (ProjectSummary, error) {
	project, err := client.GetProject(ctx, projectName)
	if err != nil {
		return ProjectSummary{}, err
	}
	summary := ProjectSummary{
		ID:         project.ID,
		Name:       project.Name,
		Framework:  project.Framework,
		Repository: project.Repository(),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		domains, err := client.ListDomains(gctx, project.ID)
		summary.Domains = domains
		return err
	})
	g.Go(func() error {
		envs, err := client.ListEnvVars(gctx, project.ID)
		summary.Envs = envs
		return err
	})
	g.Go(func() error {
		deployments, err := client.ListDeployments(gctx, project.ID, c.opts.DeploymentLimit)
		summary.Deployments = deployments
		return err
	})
	if err := g.Wait(); err != nil {
		return ProjectSummary{}, err
	}
	return summary, nil
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	return registry.ErrorKind(err)
}
