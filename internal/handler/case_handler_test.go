package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sima-go-api/internal/authz"
	"github.com/noah-isme/sima-go-api/internal/dto"
	"github.com/noah-isme/sima-go-api/internal/service"
	"github.com/noah-isme/sima-go-api/internal/utils"
)

type caseServiceStub struct {
	createErr error
	deleteErr error
	created   dto.CaseResponse
	lastActor authz.Actor
}

func (s *caseServiceStub) Create(ctx context.Context, actor authz.Actor, req dto.CaseCreateRequest, net service.NetworkMeta) (dto.CaseResponse, error) {
	s.lastActor = actor
	if s.createErr != nil {
		return dto.CaseResponse{}, s.createErr
	}
	return s.created, nil
}

func (s *caseServiceStub) Get(ctx context.Context, actor authz.Actor, id uint) (dto.CaseResponse, error) {
	return dto.CaseResponse{}, service.ErrNotFound
}

func (s *caseServiceStub) List(ctx context.Context, actor authz.Actor, req dto.CaseListRequest) (dto.CaseListResponse, error) {
	return dto.CaseListResponse{Items: []dto.CaseResponse{}}, nil
}

func (s *caseServiceStub) Update(ctx context.Context, actor authz.Actor, id uint, req dto.CaseUpdateRequest, net service.NetworkMeta) (dto.CaseResponse, error) {
	return dto.CaseResponse{}, service.ErrNotFound
}

func (s *caseServiceStub) Delete(ctx context.Context, actor authz.Actor, id uint, net service.NetworkMeta) error {
	return s.deleteErr
}

func newCaseTestApp(stub *caseServiceStub, role string, schoolID uint) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user_id", uint(7))
		c.Locals("user_role", role)
		if schoolID > 0 {
			c.Locals("school_id", schoolID)
		}
		return c.Next()
	})
	NewCaseHandler(stub, zerolog.Nop()).Register(app.Group("/cases"))
	return app
}

func TestCaseHandlerCreateReturnsCreated(t *testing.T) {
	stub := &caseServiceStub{created: dto.CaseResponse{ID: 1, Title: "Incident"}}
	app := newCaseTestApp(stub, "PROFESOR", 3)

	body := strings.NewReader(`{"title":"Incident","category":"conduct"}`)
	req := httptest.NewRequest(http.MethodPost, "/cases/", body)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	require.Equal(t, uint(7), stub.lastActor.ID)
	require.Equal(t, authz.RoleProfesor, stub.lastActor.Role)
	require.NotNil(t, stub.lastActor.SchoolID)
	require.Equal(t, uint(3), *stub.lastActor.SchoolID)
}

func TestCaseHandlerPermissionDenialMapsToForbidden(t *testing.T) {
	stub := &caseServiceStub{createErr: &service.PermissionError{Reason: "outside school scope"}}
	app := newCaseTestApp(stub, "PROFESOR", 3)

	body := strings.NewReader(`{"title":"Incident","category":"conduct"}`)
	req := httptest.NewRequest(http.MethodPost, "/cases/", body)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	var payload utils.APIResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	require.False(t, payload.Success)
	require.Equal(t, "outside school scope", payload.Message)
}

func TestCaseHandlerPreconditionMapsToConflict(t *testing.T) {
	stub := &caseServiceStub{deleteErr: &service.PreconditionError{Reason: "case already deleted"}}
	app := newCaseTestApp(stub, "ADMIN", 0)

	req := httptest.NewRequest(http.MethodDelete, "/cases/9", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestCaseHandlerInvalidIDRejected(t *testing.T) {
	app := newCaseTestApp(&caseServiceStub{}, "ADMIN", 0)

	req := httptest.NewRequest(http.MethodGet, "/cases/abc", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
