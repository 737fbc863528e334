// Package configstore defines the credential payload stored for each provider
// and the rules for normalizing, validating, merging and masking it.
package configstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Redaction replaces a sensitive value, or prefixes its last four characters.
const Redaction = "****"

const (
	FieldAccessKeyID     = "accessKeyId"
	FieldSecretAccessKey = "secretAccessKey"
	FieldRegion          = "region"
	FieldRoleARN         = "roleArn"

	FieldAPIToken    = "apiToken"
	FieldProjectName = "projectName"
	FieldTeamID      = "teamId"
)

var (
	// ErrMissingField marks a required credential field that is absent or blank.
	ErrMissingField = errors.New("required credential field is missing")

	// ErrEmptyCredentials is returned when no credential map was supplied at all.
	ErrEmptyCredentials = errors.New("credentials must not be empty")
)

type AWSCredentials struct {
	AccessKeyID     string `json:"accessKeyId"`
	SecretAccessKey string `json:"secretAccessKey"`
	Region          string `json:"region"`
	RoleARN         string `json:"roleArn,omitempty"`
}

// AWSCredentialsFromMap reads the raw request fields without validating them.
func AWSCredentialsFromMap(raw map[string]string) AWSCredentials {
	return AWSCredentials{
		AccessKeyID:     raw[FieldAccessKeyID],
		SecretAccessKey: raw[FieldSecretAccessKey],
		Region:          raw[FieldRegion],
		RoleARN:         raw[FieldRoleARN],
	}.Normalized()
}

func (c AWSCredentials) Normalized() AWSCredentials {
	out := c
	out.AccessKeyID = strings.TrimSpace(out.AccessKeyID)
	out.SecretAccessKey = strings.TrimSpace(out.SecretAccessKey)
	out.Region = strings.TrimSpace(out.Region)
	out.RoleARN = strings.TrimSpace(out.RoleARN)
	return out
}

func (c AWSCredentials) Validate() error {
	c = c.Normalized()
	if c.AccessKeyID == "" {
		return missing("AWS", FieldAccessKeyID)
	}
	if c.SecretAccessKey == "" {
		return missing("AWS", FieldSecretAccessKey)
	}
	if c.Region == "" {
		return missing("AWS", FieldRegion)
	}
	if c.RoleARN != "" && !strings.HasPrefix(c.RoleARN, "arn:") {
		return fmt.Errorf("AWS %s must be an ARN", FieldRoleARN)
	}
	return nil
}

// Display returns the payload with the access key pair masked.
func (c AWSCredentials) Display() map[string]string {
	out := map[string]string{
		FieldAccessKeyID:     MaskSecret(c.AccessKeyID),
		FieldSecretAccessKey: MaskSecret(c.SecretAccessKey),
		FieldRegion:          c.Region,
	}
	if c.RoleARN != "" {
		out[FieldRoleARN] = c.RoleARN
	}
	return out
}

// AWSSensitiveFields are masked by AWSCredentials.Display.
func AWSSensitiveFields() []string {
	return []string{FieldAccessKeyID, FieldSecretAccessKey}
}

type VercelCredentials struct {
	APIToken    string `json:"apiToken"`
	ProjectName string `json:"projectName"`
	TeamID      string `json:"teamId,omitempty"`
}

func VercelCredentialsFromMap(raw map[string]string) VercelCredentials {
	return VercelCredentials{
		APIToken:    raw[FieldAPIToken],
		ProjectName: raw[FieldProjectName],
		TeamID:      raw[FieldTeamID],
	}.Normalized()
}

func (c VercelCredentials) Normalized() VercelCredentials {
	out := c
	out.APIToken = strings.TrimSpace(out.APIToken)
	out.ProjectName = strings.TrimSpace(out.ProjectName)
	out.TeamID = strings.TrimSpace(out.TeamID)
	return out
}

func (c VercelCredentials) Validate() error {
	c = c.Normalized()
	if c.APIToken == "" {
		return missing("Vercel", FieldAPIToken)
	}
	if c.ProjectName == "" {
		return missing("Vercel", FieldProjectName)
	}
	return nil
}

// Display masks the API token. teamId is only present when one is stored.
func (c VercelCredentials) Display() map[string]string {
	out := map[string]string{
		FieldAPIToken:    MaskSecret(c.APIToken),
		FieldProjectName: c.ProjectName,
	}
	if c.TeamID != "" {
		out[FieldTeamID] = c.TeamID
	}
	return out
}

func VercelSensitiveFields() []string {
	return []string{FieldAPIToken}
}

func DecodeAWSCredentials(raw []byte) (AWSCredentials, error) {
	var cfg AWSCredentials
	if err := decodeJSON(raw, &cfg); err != nil {
		return AWSCredentials{}, err
	}
	return cfg.Normalized(), nil
}

func DecodeVercelCredentials(raw []byte) (VercelCredentials, error) {
	var cfg VercelCredentials
	if err := decodeJSON(raw, &cfg); err != nil {
		return VercelCredentials{}, err
	}
	return cfg.Normalized(), nil
}

func EncodeCredentials(v any) ([]byte, error) {
	return json.Marshal(v)
}

// MergeAWSCredentials overlays every non-blank field of update onto existing.
func MergeAWSCredentials(existing AWSCredentials, update AWSCredentials) AWSCredentials {
	merged := existing.Normalized()
	update = update.Normalized()
	if update.AccessKeyID != "" {
		merged.AccessKeyID = update.AccessKeyID
	}
	if update.SecretAccessKey != "" {
		merged.SecretAccessKey = update.SecretAccessKey
	}
	if update.Region != "" {
		merged.Region = update.Region
	}
	if update.RoleARN != "" {
		merged.RoleARN = update.RoleARN
	}
	return merged
}

func MergeVercelCredentials(existing VercelCredentials, update VercelCredentials) VercelCredentials {
	merged := existing.Normalized()
	update = update.Normalized()
	if update.APIToken != "" {
		merged.APIToken = update.APIToken
	}
	if update.ProjectName != "" {
		merged.ProjectName = update.ProjectName
	}
	if update.TeamID != "" {
		merged.TeamID = update.TeamID
	}
	return merged
}

// MaskSecret hides all but the last four characters of secret. Values shorter
// than four characters are replaced entirely.
func MaskSecret(secret string) string {
	runes := []rune(secret)
	if len(runes) < 4 {
		return Redaction
	}
	return Redaction + string(runes[len(runes)-4:])
}

func missing(provider, field string) error {
	return fmt.Errorf("%s %s is required: %w", provider, field, ErrMissingField)
}

func decodeJSON(raw []byte, dst any) error {
	if len(raw) == 0 {
		return nil
	}
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil
	}
	return json.Unmarshal(raw, dst)
}
