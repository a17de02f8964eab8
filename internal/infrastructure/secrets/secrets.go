// Package secrets loads upstream API credentials from AWS SSM
// Parameter Store.
package secrets

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"go.uber.org/zap"

	"github.com/finops/coa-adapter/internal/domain/shared"
)

// parameter names expected below the configured path
const (
	paramUser = "user"
	paramPass = "pass"
)

// ssmAPI is the slice of the SSM client used here.
type ssmAPI interface {
	GetParametersByPath(ctx context.Context, params *ssm.GetParametersByPathInput, optFns ...func(*ssm.Options)) (*ssm.GetParametersByPathOutput, error)
}

// Provider fetches decrypted parameters below a path prefix.
type Provider struct {
	client ssmAPI
	path   string
	logger *zap.Logger
}

// NewProvider builds a Provider backed by the default AWS config
// chain. The path is the SSM prefix holding the upstream credentials,
// e.g. /prod/mip/. An empty region falls back to the environment.
func NewProvider(ctx context.Context, path, region string, logger *zap.Logger) (*Provider, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}
	return NewProviderWithClient(ssm.NewFromConfig(awsCfg), path, logger), nil
}

// NewProviderWithClient builds a Provider around an existing client.
func NewProviderWithClient(client ssmAPI, path string, logger *zap.Logger) *Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !strings.HasSuffix(path, "/") {
		path += "/"
	}
	return &Provider{client: client, path: path, logger: logger}
}

// UpstreamCredentials returns the username and password stored below
// the provider's path. Both parameters must be present.
func (p *Provider) UpstreamCredentials(ctx context.Context) (user, pass string, err error) {
	p.logger.Info("Loading upstream credentials", zap.String("path", p.path))

	params, err := p.fetchAll(ctx)
	if err != nil {
		return "", "", fmt.Errorf("%w: loading parameters under %s: %v", shared.ErrConfig, p.path, err)
	}

	user, pass = params[paramUser], params[paramPass]
	if user == "" || pass == "" {
		return "", "", fmt.Errorf("%w: parameters %s%s and %s%s are required",
			shared.ErrConfig, p.path, paramUser, p.path, paramPass)
	}
	return user, pass, nil
}

// fetchAll pages through every parameter below the path, keyed by the
// name with the path prefix stripped.
func (p *Provider) fetchAll(ctx context.Context) (map[string]string, error) {
	params := make(map[string]string)
	var nextToken *string
	for {
		out, err := p.client.GetParametersByPath(ctx, &ssm.GetParametersByPathInput{
			Path:           aws.String(p.path),
			Recursive:      aws.Bool(true),
			WithDecryption: aws.Bool(true),
			NextToken:      nextToken,
		})
		if err != nil {
			return nil, err
		}
		for _, param := range out.Parameters {
			if param.Name == nil || param.Value == nil {
				continue
			}
			name := strings.TrimPrefix(*param.Name, p.path)
			params[name] = *param.Value
		}
		if out.NextToken == nil {
			break
		}
		nextToken = out.NextToken
	}
	return params, nil
}
