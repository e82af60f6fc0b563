package apiclient

import (
	"context"
	"errors"
	"net/http"
)

// ListTenants returns every tenant visible to the token.
func (c *Client) ListTenants(ctx context.Context) ([]Tenant, error) {
	var out listResponse[Tenant]
	if err := c.doJSON(ctx, http.MethodGet, c.endpoint("tenants"), nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// CreateTenant creates a tenant.
func (c *Client) CreateTenant(ctx context.Context, req CreateTenantRequest) (*Tenant, error) {
	if req.Name == "" {
		return nil, errors.New("tenant name is required")
	}

	var out Tenant
	if err := c.doJSON(ctx, http.MethodPost, c.endpoint("tenants"), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteTenant deletes a tenant and everything it owns.
func (c *Client) DeleteTenant(ctx context.Context, id string) error {
	if id == "" {
		return errors.New("tenant id is required")
	}
	return c.doJSON(ctx, http.MethodDelete, c.endpoint("tenants", id), nil, nil)
}

// ListUsers returns the users of tenantID.
func (c *Client) ListUsers(ctx context.Context, tenantID string) ([]User, error) {
	if tenantID == "" {
		return nil, errors.New("tenant id is required")
	}

	var out listResponse[User]
	if err := c.doJSON(ctx, http.MethodGet, c.endpoint("tenants", tenantID, "users"), nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// CreateUser adds a user to tenantID.
func (c *Client) CreateUser(ctx context.Context, tenantID string, req CreateUserRequest) (*User, error) {
	if tenantID == "" {
		return nil, errors.New("tenant id is required")
	}
	if req.Email == "" {
		return nil, errors.New("user email is required")
	}

	var out User
	if err := c.doJSON(ctx, http.MethodPost, c.endpoint("tenants", tenantID, "users"), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteUser removes a user from tenantID.
func (c *Client) DeleteUser(ctx context.Context, tenantID, userID string) error {
	if tenantID == "" || userID == "" {
		return errors.New("tenant id and user id are required")
	}
	return c.doJSON(ctx, http.MethodDelete, c.endpoint("tenants", tenantID, "users", userID), nil, nil)
}
