package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"aidlink/internal/server"
	"aidlink/internal/service"
	"aidlink/internal/store/memory"
	"aidlink/pkg/types"

	"github.com/sirupsen/logrus"
)

type recordingIssuer struct {
	calls int
	err   error
}

func (ri *recordingIssuer) IssueCertificate(ctx context.Context, email, name, programName string) error {
	ri.calls++
	return ri.err
}

type testEnv struct {
	svc    *server.Service
	store  *memory.Store
	issuer *recordingIssuer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	mem := memory.NewStore()
	issuer := &recordingIssuer{}

	svc, err := server.New(
		&types.Config{ServerPort: 0, ReadTimeoutSec: 5, WriteTimeoutSec: 10},
		logger,
		service.NewProgramService(mem, logger),
		service.NewMaterialService(mem, logger),
		service.NewRegistrationService(mem, logger),
		service.NewSubmissionService(mem, mem, mem, mem, issuer, logger),
		service.NewUserService(mem, logger),
		issuer,
		nil,
		nil,
		"",
	)
	if err != nil {
		t.Fatalf("server.New failed: %v", err)
	}

	return &testEnv{svc: svc, store: mem, issuer: issuer}
}

func (env *testEnv) do(t *testing.T, identity *server.Identity, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if identity != nil {
		req = server.WithTestUser(req, identity)
	}

	rec := httptest.NewRecorder()
	env.svc.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode response body %q: %v", rec.Body.String(), err)
	}
	return out
}

func coordinator() *server.Identity {
	return &server.Identity{UserID: "coordinator-1", Email: "coord@example.com", Role: types.RoleCoordinator}
}

func admin() *server.Identity {
	return &server.Identity{UserID: "admin-1", Email: "admin@example.com", Role: types.RoleAdmin}
}

func (env *testEnv) volunteer(t *testing.T) *server.Identity {
	t.Helper()
	user := &types.User{Name: "Aisha Rahman", Email: "aisha@example.com", Role: types.RoleVolunteer}
	if err := env.store.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	return &server.Identity{UserID: user.ID, Email: user.Email, Role: types.RoleVolunteer}
}

func (env *testEnv) seedMaterial(t *testing.T, name string, quantity int) *types.AidMaterial {
	t.Helper()
	material := &types.AidMaterial{Name: name, Quantity: quantity}
	if err := env.store.CreateMaterial(context.Background(), material); err != nil {
		t.Fatalf("CreateMaterial failed: %v", err)
	}
	return material
}

func programBody(materials []types.MaterialRequest, capacity int) map[string]any {
	return map[string]any{
		"name":          "Medical Outreach",
		"startDate":     time.Date(2025, 9, 20, 0, 0, 0, 0, time.UTC),
		"startTime":     "09:00",
		"endTime":       "16:00",
		"location":      "Sabah",
		"maxVolunteer":  capacity,
		"coordinatorId": "coordinator-1",
		"materials":     materials,
	}
}

func (env *testEnv) seedProgram(t *testing.T, materials []types.MaterialRequest, capacity int) string {
	t.Helper()
	rec := env.do(t, coordinator(), http.MethodPost, "/api/programs", programBody(materials, capacity))
	if rec.Code != http.StatusCreated {
		t.Fatalf("seed program: status = %d, body = %s", rec.Code, rec.Body.String())
	}
	return decodeBody[types.Program](t, rec).ID
}

func TestHealthzIsOpen(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, nil, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestUnauthenticatedRequestsRejected(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/api/programs", "/api/materials"} {
		rec := env.do(t, nil, http.MethodGet, path, nil)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("GET %s status = %d, want 401", path, rec.Code)
		}
	}
}

func TestRoleGates(t *testing.T) {
	env := newTestEnv(t)
	vol := env.volunteer(t)

	cases := []struct {
		name     string
		identity *server.Identity
		method   string
		path     string
		body     any
		want     int
	}{
		{"volunteer cannot create program", vol, http.MethodPost, "/api/programs", programBody(nil, 5), http.StatusForbidden},
		{"volunteer cannot list users", vol, http.MethodGet, "/api/users", nil, http.StatusForbidden},
		{"coordinator cannot list users", coordinator(), http.MethodGet, "/api/users", nil, http.StatusForbidden},
		{"coordinator cannot register as volunteer", coordinator(), http.MethodPost, "/api/programs/x/volunteers", nil, http.StatusForbidden},
		{"admin passes coordinator gate", admin(), http.MethodPost, "/api/programs", programBody(nil, 5), http.StatusCreated},
		{"admin lists users", admin(), http.MethodGet, "/api/users", nil, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := env.do(t, tc.identity, tc.method, tc.path, tc.body)
			if rec.Code != tc.want {
				t.Fatalf("status = %d, want %d, body = %s", rec.Code, tc.want, rec.Body.String())
			}
		})
	}
}

func TestCreateProgramReservesMaterials(t *testing.T) {
	env := newTestEnv(t)
	material := env.seedMaterial(t, "Tents", 10)

	programID := env.seedProgram(t, []types.MaterialRequest{{AidMaterialID: material.ID, Quantity: 6}}, 5)

	rec := env.do(t, coordinator(), http.MethodGet, "/api/programs/"+programID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var detail struct {
		Materials []types.ProgramAidMaterial `json:"materials"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&detail); err != nil {
		t.Fatalf("decode program detail: %v", err)
	}
	if len(detail.Materials) != 1 || detail.Materials[0].QuantityUsed != 6 {
		t.Fatalf("materials = %+v, want one reservation of 6", detail.Materials)
	}

	rec = env.do(t, coordinator(), http.MethodGet, "/api/materials/"+material.ID, nil)
	if got := decodeBody[types.AidMaterial](t, rec); got.Quantity != 4 {
		t.Fatalf("stock = %d after reservation, want 4", got.Quantity)
	}
}

func TestCreateProgramInsufficientStockConflict(t *testing.T) {
	env := newTestEnv(t)
	material := env.seedMaterial(t, "Blankets", 3)

	rec := env.do(t, coordinator(), http.MethodPost, "/api/programs",
		programBody([]types.MaterialRequest{{AidMaterialID: material.ID, Quantity: 5}}, 5))
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409, body = %s", rec.Code, rec.Body.String())
	}
}

func TestCreateProgramInvalidPayload(t *testing.T) {
	env := newTestEnv(t)

	body := programBody(nil, 5)
	delete(body, "name")
	rec := env.do(t, coordinator(), http.MethodPost, "/api/programs", body)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400, body = %s", rec.Code, rec.Body.String())
	}
}

func TestGetProgramNotFound(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, coordinator(), http.MethodGet, "/api/programs/missing", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestDeleteProgramRestoresStock(t *testing.T) {
	env := newTestEnv(t)
	material := env.seedMaterial(t, "Water Filters", 8)
	programID := env.seedProgram(t, []types.MaterialRequest{{AidMaterialID: material.ID, Quantity: 8}}, 5)

	rec := env.do(t, coordinator(), http.MethodDelete, "/api/programs/"+programID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, coordinator(), http.MethodGet, "/api/materials/"+material.ID, nil)
	if got := decodeBody[types.AidMaterial](t, rec); got.Quantity != 8 {
		t.Fatalf("stock = %d after delete, want 8", got.Quantity)
	}
}

func TestRegistrationFlow(t *testing.T) {
	env := newTestEnv(t)
	programID := env.seedProgram(t, nil, 1)
	first := env.volunteer(t)
	second := env.volunteer(t)

	rec := env.do(t, first, http.MethodPost, "/api/programs/"+programID+"/volunteers", nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register status = %d, body = %s", rec.Code, rec.Body.String())
	}

	// Same volunteer twice.
	rec = env.do(t, first, http.MethodPost, "/api/programs/"+programID+"/volunteers", nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate register status = %d, want 409", rec.Code)
	}

	// Capacity of one is exhausted.
	rec = env.do(t, second, http.MethodPost, "/api/programs/"+programID+"/volunteers", nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("over-capacity register status = %d, want 409", rec.Code)
	}

	rec = env.do(t, first, http.MethodGet, "/api/programs/"+programID+"/volunteers", nil)
	if got := decodeBody[map[string]int](t, rec); got["count"] != 1 {
		t.Fatalf("count = %d, want 1", got["count"])
	}
}

func TestVolunteerCannotUnregisterOthers(t *testing.T) {
	env := newTestEnv(t)
	programID := env.seedProgram(t, nil, 5)
	first := env.volunteer(t)
	second := env.volunteer(t)

	if rec := env.do(t, first, http.MethodPost, "/api/programs/"+programID+"/volunteers", nil); rec.Code != http.StatusCreated {
		t.Fatalf("register status = %d", rec.Code)
	}

	path := fmt.Sprintf("/api/programs/%s/volunteers/%s", programID, first.UserID)
	if rec := env.do(t, second, http.MethodDelete, path, nil); rec.Code != http.StatusForbidden {
		t.Fatalf("foreign unregister status = %d, want 403", rec.Code)
	}
	if rec := env.do(t, first, http.MethodDelete, path, nil); rec.Code != http.StatusOK {
		t.Fatalf("own unregister status = %d, want 200", rec.Code)
	}
}

func TestFormLifecycleOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	programID := env.seedProgram(t, nil, 5)
	vol := env.volunteer(t)

	formBody := map[string]any{
		"programId":     programID,
		"dateCompleted": time.Date(2025, 9, 21, 0, 0, 0, 0, time.UTC),
		"feedback":      "great turnout",
	}

	// Submitting before registering conflicts.
	rec := env.do(t, vol, http.MethodPost, "/api/forms", formBody)
	if rec.Code != http.StatusConflict {
		t.Fatalf("unregistered submit status = %d, want 409", rec.Code)
	}

	if rec := env.do(t, vol, http.MethodPost, "/api/programs/"+programID+"/volunteers", nil); rec.Code != http.StatusCreated {
		t.Fatalf("register status = %d", rec.Code)
	}

	rec = env.do(t, vol, http.MethodPost, "/api/forms", formBody)
	if rec.Code != http.StatusCreated {
		t.Fatalf("submit status = %d, body = %s", rec.Code, rec.Body.String())
	}
	form := decodeBody[types.Form](t, rec)
	if form.Status != types.FormStatusSubmitted {
		t.Fatalf("status = %s, want SUBMITTED", form.Status)
	}

	statusPath := fmt.Sprintf("/api/volunteers/%s/programs/%s/form-status", vol.UserID, programID)
	rec = env.do(t, vol, http.MethodGet, statusPath, nil)
	if got := decodeBody[map[string]any](t, rec); got["status"] != "SUBMITTED" {
		t.Fatalf("form-status = %v, want SUBMITTED", got["status"])
	}

	// Coordinator approves; a certificate goes out.
	rec = env.do(t, coordinator(), http.MethodPatch, "/api/forms/"+form.ID+"/status",
		map[string]string{"status": "APPROVED"})
	if rec.Code != http.StatusOK {
		t.Fatalf("decide status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if env.issuer.calls != 1 {
		t.Fatalf("certificate calls = %d, want 1", env.issuer.calls)
	}
}

func TestFormStatusRejectsUnknownValue(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, coordinator(), http.MethodPatch, "/api/forms/x/status",
		map[string]string{"status": "MAYBE"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400, body = %s", rec.Code, rec.Body.String())
	}
}

func TestDecisionSurvivesDeliveryFailure(t *testing.T) {
	env := newTestEnv(t)
	programID := env.seedProgram(t, nil, 5)
	vol := env.volunteer(t)

	if rec := env.do(t, vol, http.MethodPost, "/api/programs/"+programID+"/volunteers", nil); rec.Code != http.StatusCreated {
		t.Fatalf("register status = %d", rec.Code)
	}
	rec := env.do(t, vol, http.MethodPost, "/api/forms", map[string]any{
		"programId":     programID,
		"dateCompleted": time.Date(2025, 9, 21, 0, 0, 0, 0, time.UTC),
		"feedback":      "ok",
	})
	form := decodeBody[types.Form](t, rec)

	env.issuer.err = fmt.Errorf("relay refused")
	rec = env.do(t, coordinator(), http.MethodPatch, "/api/forms/"+form.ID+"/status",
		map[string]string{"status": "APPROVED"})
	if rec.Code != http.StatusOK {
		t.Fatalf("decide status = %d, want 200 despite delivery failure", rec.Code)
	}

	var decision struct {
		Status           types.FormStatus `json:"status"`
		CertificateError string           `json:"certificateError"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&decision); err != nil {
		t.Fatalf("decode decision: %v", err)
	}
	if decision.Status != types.FormStatusApproved {
		t.Errorf("status = %s, want APPROVED", decision.Status)
	}
	if decision.CertificateError == "" {
		t.Error("expected a certificateError in the decision response")
	}
}

func TestMaterialCRUD(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, coordinator(), http.MethodPost, "/api/materials",
		map[string]any{"name": "Rice", "quantity": 50})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", rec.Code, rec.Body.String())
	}
	material := decodeBody[types.AidMaterial](t, rec)

	rec = env.do(t, coordinator(), http.MethodPut, "/api/materials/"+material.ID,
		map[string]any{"name": "Rice", "quantity": 75})
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, coordinator(), http.MethodGet, "/api/materials/"+material.ID, nil)
	if got := decodeBody[types.AidMaterial](t, rec); got.Quantity != 75 {
		t.Fatalf("quantity = %d, want 75", got.Quantity)
	}

	if rec := env.do(t, coordinator(), http.MethodDelete, "/api/materials/"+material.ID, nil); rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rec.Code)
	}
	if rec := env.do(t, coordinator(), http.MethodGet, "/api/materials/"+material.ID, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("get after delete status = %d, want 404", rec.Code)
	}
}

func TestPresignWithoutStorageConfigured(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, coordinator(), http.MethodGet, "/api/uploads/presign?key=img.png&contentType=image/png", nil)
	if rec.Code != http.StatusNotImplemented {
		t.Fatalf("status = %d, want 501", rec.Code)
	}
}

func TestDirectCertificateEndpoint(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, coordinator(), http.MethodPost, "/api/certificates", map[string]string{
		"email":       "vol@example.com",
		"name":        "Vol Unteer",
		"programName": "Cleanup",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if env.issuer.calls != 1 {
		t.Fatalf("certificate calls = %d, want 1", env.issuer.calls)
	}

	env.issuer.err = fmt.Errorf("relay refused")
	rec = env.do(t, coordinator(), http.MethodPost, "/api/certificates", map[string]string{
		"email":       "vol@example.com",
		"name":        "Vol Unteer",
		"programName": "Cleanup",
	})
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
}

func TestUserAdminEndpoints(t *testing.T) {
	env := newTestEnv(t)
	vol := env.volunteer(t)

	rec := env.do(t, admin(), http.MethodPut, "/api/users/"+vol.UserID, map[string]any{
		"name":          "Aisha R.",
		"email":         "aisha@example.com",
		"role":          "coordinator",
		"contactNumber": "+60123456789",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, admin(), http.MethodGet, "/api/users/"+vol.UserID, nil)
	got := decodeBody[types.User](t, rec)
	if got.Role != types.RoleCoordinator || got.Name != "Aisha R." {
		t.Fatalf("user = %+v, want promoted coordinator named Aisha R.", got)
	}
}
