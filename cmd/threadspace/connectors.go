package main

import (
	"github.com/threadspace/threadspace/internal/config"
	"github.com/threadspace/threadspace/internal/connectors/aws"
	"github.com/threadspace/threadspace/internal/connectors/lifecycle"
	"github.com/threadspace/threadspace/internal/connectors/registry"
	"github.com/threadspace/threadspace/internal/connectors/vercel"
)

type connectorSet struct {
	registry *registry.Registry
	aws      *aws.Connector
	vercel   *vercel.Connector
}

func buildConnectors(cfg config.Config, runner *lifecycle.Runner) (connectorSet, error) {
	awsConnector, err := aws.NewConnector(runner, nil, cfg.AWSVerifyHTTPTimeout)
	if err != nil {
		return connectorSet{}, err
	}
	vercelConnector, err := vercel.NewConnector(runner, vercel.Options{
		BaseURL:         cfg.VercelAPIBase,
		VerifyOnConnect: cfg.VercelVerifyOnConnect,
		DeploymentLimit: cfg.VercelDeploymentLimit,
	})
	if err != nil {
		return connectorSet{}, err
	}

	reg, err := registry.NewRegistry(awsConnector, vercelConnector)
	if err != nil {
		return connectorSet{}, err
	}
	return connectorSet{registry: reg, aws: awsConnector, vercel: vercelConnector}, nil
}
