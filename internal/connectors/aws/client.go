package aws

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/credentials/stscreds"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	smithy "github.com/aws/smithy-go"
	"github.com/threadspace/threadspace/internal/connectors/registry"
)

const (
	defaultHTTPTimeout = 10 * time.Second
	roleSessionName    = "threadspace-verify"
)

// Identity is the caller identity resolved from a credential set.
type Identity struct {
	Account string `json:"account"`
	ARN     string `json:"arn"`
	UserID  string `json:"userId"`
	Region  string `json:"region"`
}

// Options configure a Client for one stored credential set.
type Options struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	RoleARN         string
	HTTPTimeout     time.Duration
}

type stsAPI interface {
	GetCallerIdentity(context.Context, *sts.GetCallerIdentityInput, ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

// Client resolves the caller identity of a credential set through STS.
type Client struct {
	region string
	sts    stsAPI
}

func New(ctx context.Context, opts Options) (*Client, error) {
	region := strings.TrimSpace(opts.Region)
	if region == "" {
		return nil, errors.New("aws region is required")
	}
	accessKeyID := strings.TrimSpace(opts.AccessKeyID)
	secretAccessKey := strings.TrimSpace(opts.SecretAccessKey)
	if accessKeyID == "" || secretAccessKey == "" {
		return nil, errors.New("aws access key id and secret access key are required")
	}
	timeout := opts.HTTPTimeout
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}

	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(region),
		config.WithHTTPClient(&http.Client{Timeout: timeout}),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKeyID, secretAccessKey, "")),
		config.WithRetryMaxAttempts(1),
	)
	if err != nil {
		return nil, err
	}

	if roleARN := strings.TrimSpace(opts.RoleARN); roleARN != "" {
		provider := stscreds.NewAssumeRoleProvider(sts.NewFromConfig(cfg), roleARN, func(o *stscreds.AssumeRoleOptions) {
			o.RoleSessionName = roleSessionName
		})
		cfg.Credentials = aws.NewCredentialsCache(provider)
	}
	return NewWithClient(region, sts.NewFromConfig(cfg))
}

func NewWithClient(region string, api stsAPI) (*Client, error) {
	region = strings.TrimSpace(region)
	if region == "" {
		return nil, errors.New("aws region is required")
	}
	if api == nil {
		return nil, errors.New("aws sts client is nil")
	}
	return &Client{region: region, sts: api}, nil
}

// CallerIdentity calls sts:GetCallerIdentity. Errors wrap
// registry.ErrProviderCredentialsInvalid when AWS rejected the credentials and
// registry.ErrExternalServiceUnavailable otherwise.
func (c *Client) CallerIdentity(ctx context.Context) (Identity, error) {
	out, err := c.sts.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return Identity{}, classifyError(err)
	}
	return Identity{
		Account: aws.ToString(out.Account),
		ARN:     aws.ToString(out.Arn),
		UserID:  aws.ToString(out.UserId),
		Region:  c.region,
	}, nil
}

var rejectedCredentialCodes = map[string]struct{}{
	"InvalidClientTokenId":        {},
	"SignatureDoesNotMatch":       {},
	"AccessDenied":                {},
	"AccessDeniedException":       {},
	"ExpiredToken":                {},
	"ExpiredTokenException":       {},
	"UnrecognizedClientException": {},
	"AuthFailure":                 {},
	"InvalidAccessKeyId":          {},
	"IncompleteSignature":         {},
}

type httpStatusError interface {
	HTTPStatusCode() int
}

func classifyError(err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		if _, ok := rejectedCredentialCodes[apiErr.ErrorCode()]; ok {
			return fmt.Errorf("%w: aws %s: %s", registry.ErrProviderCredentialsInvalid, apiErr.ErrorCode(), apiErr.ErrorMessage())
		}
	}
	var statusErr httpStatusError
	if errors.As(err, &statusErr) {
		switch statusErr.HTTPStatusCode() {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w: aws returned status %d: %w", registry.ErrProviderCredentialsInvalid, statusErr.HTTPStatusCode(), err)
		}
	}
	return fmt.Errorf("%w: aws sts: %w", registry.ErrExternalServiceUnavailable, err)
}
