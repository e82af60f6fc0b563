package api

import (
	"cmp"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/ragdesk/pkg/apiclient"
)

var (
	errTenantNotFound = errors.New("tenant not found")
	errUserNotFound   = errors.New("user not found")
)

// directory keeps tenants and their users in memory.
type directory struct {
	mu      sync.RWMutex
	tenants map[string]apiclient.Tenant
	users   map[string]map[string]apiclient.User
}

func newDirectory() *directory {
	return &directory{
		tenants: make(map[string]apiclient.Tenant),
		users:   make(map[string]map[string]apiclient.User),
	}
}

func (d *directory) listTenants() []apiclient.Tenant {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]apiclient.Tenant, 0, len(d.tenants))
	for _, t := range d.tenants {
		out = append(out, t)
	}
	slices.SortFunc(out, func(a, b apiclient.Tenant) int {
		return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), cmp.Compare(a.ID, b.ID))
	})
	return out
}

func (d *directory) createTenant(name string) apiclient.Tenant {
	t := apiclient.Tenant{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.tenants[t.ID] = t
	d.users[t.ID] = make(map[string]apiclient.User)
	return t
}

func (d *directory) deleteTenant(id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.tenants[id]; !ok {
		return errTenantNotFound
	}
	delete(d.tenants, id)
	delete(d.users, id)
	return nil
}

func (d *directory) listUsers(tenantID string) ([]apiclient.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	users, ok := d.users[tenantID]
	if !ok {
		return nil, errTenantNotFound
	}

	out := make([]apiclient.User, 0, len(users))
	for _, u := range users {
		out = append(out, u)
	}
	slices.SortFunc(out, func(a, b apiclient.User) int {
		return cmp.Compare(a.Email, b.Email)
	})
	return out, nil
}

func (d *directory) createUser(tenantID string, req apiclient.CreateUserRequest) (apiclient.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	users, ok := d.users[tenantID]
	if !ok {
		return apiclient.User{}, errTenantNotFound
	}

	role := req.Role
	if role == "" {
		role = "member"
	}

	u := apiclient.User{
		ID:        uuid.NewString(),
		TenantID:  tenantID,
		Email:     req.Email,
		Name:      req.Name,
		Role:      role,
		CreatedAt: time.Now().UTC(),
	}
	users[u.ID] = u
	return u, nil
}

func (d *directory) deleteUser(tenantID, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	users, ok := d.users[tenantID]
	if !ok {
		return errTenantNotFound
	}
	if _, ok := users[id]; !ok {
		return errUserNotFound
	}
	delete(users, id)
	return nil
}
