package apiclient

import "time"

// Tenant is an isolated customer space on the document service.
type Tenant struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateTenantRequest is the body of a tenant create call.
type CreateTenantRequest struct {
	Name string `json:"name"`
}

// User is an account that belongs to a tenant.
type User struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenant_id"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateUserRequest is the body of a user create call.
type CreateUserRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name,omitempty"`
	Role     string `json:"role,omitempty"`
	Password string `json:"password,omitempty"`
}

// Document is an uploaded file and its processing status.
type Document struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Status     string    `json:"status"`
	Pages      int       `json:"pages,omitempty"`
	SizeBytes  int64     `json:"size_bytes,omitempty"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// FileInfo locates the original file of a document.
type FileInfo struct {
	URL string `json:"url"`
}

// QueryRequest asks a question about one document.
type QueryRequest struct {
	DocumentID string `json:"-"`
	Query      string `json:"query"`
}

// listResponse is the envelope the service uses for collections.
type listResponse[T any] struct {
	Items []T `json:"items"`
}
