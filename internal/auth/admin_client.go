package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"stratus/internal/domain/services"
)

// AdminClient talks to the identity provider's Admin API. Its one job in
// the request path is maintaining the user-metadata cache of the root
// folder id; services depend on the narrow IdentityClient interface.
type AdminClient struct {
	supabaseURL string
	serviceKey  string
	httpClient  *http.Client
}

var _ services.IdentityClient = (*AdminClient)(nil)

// NewAdminClient creates a new Admin API client. Requires the service role
// key for elevated permissions.
func NewAdminClient(supabaseURL, serviceKey string) *AdminClient {
	return &AdminClient{
		supabaseURL: supabaseURL,
		serviceKey:  serviceKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// CacheRootFolderID writes the root folder id into the user's metadata bag
// so subsequent tokens carry it and root lookups skip the database.
func (c *AdminClient) CacheRootFolderID(ctx context.Context, userID, folderID string) error {
	payload := map[string]interface{}{
		"user_metadata": map[string]string{
			"root_folder_id": folderID,
		},
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata update: %w", err)
	}

	url := fmt.Sprintf("%s/auth/v1/admin/users/%s", c.supabaseURL, userID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create metadata request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.serviceKey)
	req.Header.Set("apikey", c.serviceKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to update user metadata: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("metadata update failed with status %d: %s", resp.StatusCode, string(body))
	}

	return nil
}
