package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/ragdesk/pkg/apiclient"
)

type listResponse[T any] struct {
	Items []T `json:"items"`
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

func (s *Server) handleListTenants(c *fiber.Ctx) error {
	return c.JSON(listResponse[apiclient.Tenant]{Items: s.directory.listTenants()})
}

func (s *Server) handleCreateTenant(c *fiber.Ctx) error {
	var req apiclient.CreateTenantRequest
	if err := c.BodyParser(&req); err != nil || req.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "tenant name required"})
	}

	tenant := s.directory.createTenant(req.Name)
	s.logger.Info("tenant created", "tenant_id", tenant.ID, "name", tenant.Name)
	return c.Status(fiber.StatusCreated).JSON(tenant)
}

func (s *Server) handleDeleteTenant(c *fiber.Ctx) error {
	if err := s.directory.deleteTenant(c.Params("id")); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: err.Error()})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) handleListUsers(c *fiber.Ctx) error {
	users, err := s.directory.listUsers(c.Params("tenant"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: err.Error()})
	}
	return c.JSON(listResponse[apiclient.User]{Items: users})
}

func (s *Server) handleCreateUser(c *fiber.Ctx) error {
	var req apiclient.CreateUserRequest
	if err := c.BodyParser(&req); err != nil || req.Email == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "user email required"})
	}

	user, err := s.directory.createUser(c.Params("tenant"), req)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: err.Error()})
	}
	return c.Status(fiber.StatusCreated).JSON(user)
}

func (s *Server) handleDeleteUser(c *fiber.Ctx) error {
	if err := s.directory.deleteUser(c.Params("tenant"), c.Params("id")); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: err.Error()})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) handleListDocuments(c *fiber.Ctx) error {
	return c.JSON(listResponse[apiclient.Document]{Items: s.store.list()})
}

func (s *Server) handleUploadDocument(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "multipart field \"file\" required"})
	}

	f, err := fh.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "unreadable upload"})
	}
	defer f.Close()

	doc, err := s.store.upload(fh.Filename, f)
	switch {
	case err == nil:
	case errors.Is(err, errDocumentExists):
		return c.Status(fiber.StatusConflict).JSON(ErrorResponse{Error: err.Error()})
	case errors.Is(err, errNotPDF):
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
	default:
		s.logger.Warn("upload failed", "name", fh.Filename, "error", err)
		return c.Status(fiber.StatusUnprocessableEntity).JSON(ErrorResponse{Error: "document could not be processed"})
	}

	s.logger.Info("document uploaded",
		"document_id", doc.ID,
		"name", doc.Name,
		"pages", doc.Pages,
	)
	return c.Status(fiber.StatusCreated).JSON(doc)
}

// handleFileInfo points at the /files route of this server.
func (s *Server) handleFileInfo(c *fiber.Ctx) error {
	doc, err := s.store.get(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: err.Error()})
	}
	return c.JSON(apiclient.FileInfo{URL: c.BaseURL() + "/files/" + doc.meta.ID})
}

func (s *Server) handleFile(c *fiber.Ctx) error {
	doc, err := s.store.get(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: err.Error()})
	}

	c.Set(fiber.HeaderContentType, "application/pdf")
	return c.SendFile(doc.path)
}
