package api

import (
	"context"
	"fmt"
)

// TempCredentialsRequest carries build metadata to the credential
// mint. Version, Entrypoint, and Message are omitted when empty.
type TempCredentialsRequest struct {
	Engine        string `json:"engine"`
	EngineVersion string `json:"engineVersion"`
	Version       string `json:"version,omitempty"`
	Entrypoint    string `json:"entrypoint,omitempty"`
	Message       string `json:"message,omitempty"`
}

// StorageCredentials are the scoped, time-limited object storage keys.
type StorageCredentials struct {
	AccessKeyID     string `json:"accessKeyId"`
	SecretAccessKey string `json:"secretAccessKey"`
	SessionToken    string `json:"sessionToken"`
}

// TempCredentials is the server's response to a credential mint: the
// build record identifiers plus where and how to upload. ExpiresIn is
// informational; a push is expected to finish within the window.
type TempCredentials struct {
	GameBuildID string             `json:"gameBuildId"`
	UUID        string             `json:"uuid"`
	R2KeyPrefix string             `json:"r2KeyPrefix"`
	BucketName  string             `json:"bucketName"`
	Credentials StorageCredentials `json:"credentials"`
	Endpoint    string             `json:"endpoint"`
	ExpiresIn   int64              `json:"expiresIn"`
}

// CreateTempCredentials asks the control plane to create a build
// record and mint scoped storage credentials for its upload.
func (c *Client) CreateTempCredentials(ctx context.Context, org, game, environment string, req TempCredentialsRequest) (*TempCredentials, error) {
	path := fmt.Sprintf(
		"/organizations/%s/games/%s/environments/%s/builds/create-temp-r2-creds",
		org, game, environment,
	)
	var creds TempCredentials
	if err := c.post(ctx, path, req, &creds); err != nil {
		return nil, err
	}
	return &creds, nil
}

// UploadCompleted marks the remote build record as fully uploaded.
func (c *Client) UploadCompleted(ctx context.Context, org, game, environment, buildID string) error {
	path := fmt.Sprintf(
		"/organizations/%s/games/%s/environments/%s/builds/%s/upload-completed",
		org, game, environment, buildID,
	)
	return c.post(ctx, path, nil, nil)
}

// LatestCLIVersion reports the newest released CLI version, used by
// the background update check.
func (c *Client) LatestCLIVersion(ctx context.Context) (string, error) {
	var resp struct {
		Version string `json:"version"`
	}
	if err := c.get(ctx, "/cli/latest-version", &resp); err != nil {
		return "", err
	}
	return resp.Version, nil
}
