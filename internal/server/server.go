package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"aidlink/internal/service"
	"aidlink/internal/storage"
	"aidlink/pkg/types"

	"github.com/alexedwards/flow"
	"github.com/go-playground/form/v4"
	"github.com/go-playground/validator/v10"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/sirupsen/logrus"
)

var decoder = form.NewDecoder()

type Service struct {
	logger *logrus.Logger
	config *types.Config

	programs      *service.ProgramService
	materials     *service.MaterialService
	registrations *service.RegistrationService
	submissions   *service.SubmissionService
	users         *service.UserService
	certificates  service.CertificateIssuer
	uploads       *storage.S3Storage

	jwksCache *jwk.Cache
	jwksURL   string

	validate *validator.Validate
	server   *http.Server
}

func New(
	config *types.Config,
	logger *logrus.Logger,
	programs *service.ProgramService,
	materials *service.MaterialService,
	registrations *service.RegistrationService,
	submissions *service.SubmissionService,
	users *service.UserService,
	certificates service.CertificateIssuer,
	uploads *storage.S3Storage,
	jwksCache *jwk.Cache,
	jwksURL string,
) (*Service, error) {
	mux := flow.New()

	s := &Service{
		logger: logger,
		config: config,

		programs:      programs,
		materials:     materials,
		registrations: registrations,
		submissions:   submissions,
		users:         users,
		certificates:  certificates,
		uploads:       uploads,

		jwksCache: jwksCache,
		jwksURL:   jwksURL,

		validate: validator.New(validator.WithRequiredStructEnabled()),
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", config.ServerPort),
			Handler:           mux,
			ReadTimeout:       time.Duration(config.ReadTimeoutSec) * time.Second,
			ReadHeaderTimeout: time.Duration(config.ReadTimeoutSec) * time.Second,
			WriteTimeout:      time.Duration(config.WriteTimeoutSec) * time.Second,
			MaxHeaderBytes:    1 << 20,
		},
	}

	s.buildRouter(mux)

	return s, nil
}

func (s *Service) Start() error {
	return s.server.ListenAndServe()
}

func (s *Service) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Handler exposes the router for httptest servers.
func (s *Service) Handler() http.Handler {
	return s.server.Handler
}

func (s *Service) buildRouter(r *flow.Mux) {
	r.Use(s.LoggingMiddleware)

	r.HandleFunc("/healthz", s.handleHealth, http.MethodGet)

	r.Group(func(r *flow.Mux) {
		r.Use(s.RequireAuth)

		r.HandleFunc("/api/programs", s.handleGetPrograms, http.MethodGet)
		r.HandleFunc("/api/programs/:id", s.handleGetProgram, http.MethodGet)
		r.HandleFunc("/api/programs/:id/volunteers", s.handleCountVolunteers, http.MethodGet)
		r.HandleFunc("/api/volunteers/:id/programs", s.handleVolunteerPrograms, http.MethodGet)
		r.HandleFunc("/api/volunteers/:id/programs/:programID/form-status", s.handleFormStatus, http.MethodGet)
		r.HandleFunc("/api/materials", s.handleGetMaterials, http.MethodGet)
		r.HandleFunc("/api/materials/:id", s.handleGetMaterial, http.MethodGet)
		r.HandleFunc("/api/users/:id", s.handleGetUser, http.MethodGet)

		r.Group(func(r *flow.Mux) {
			r.Use(s.RequireRole(types.RoleVolunteer))

			r.HandleFunc("/api/programs/:id/volunteers", s.handleRegisterVolunteer, http.MethodPost)
			r.HandleFunc("/api/programs/:id/volunteers/:userID", s.handleUnregisterVolunteer, http.MethodDelete)
			r.HandleFunc("/api/forms", s.handleCreateForm, http.MethodPost)
		})

		r.Group(func(r *flow.Mux) {
			r.Use(s.RequireRole(types.RoleCoordinator))

			r.HandleFunc("/api/programs", s.handleCreateProgram, http.MethodPost)
			r.HandleFunc("/api/programs/:id", s.handleUpdateProgram, http.MethodPut)
			r.HandleFunc("/api/programs/:id", s.handleDeleteProgram, http.MethodDelete)
			r.HandleFunc("/api/programs/:id/forms", s.handleFormsByProgram, http.MethodGet)
			r.HandleFunc("/api/forms/:id/status", s.handleUpdateFormStatus, http.MethodPatch)
			r.HandleFunc("/api/materials", s.handleCreateMaterial, http.MethodPost)
			r.HandleFunc("/api/materials/:id", s.handleUpdateMaterial, http.MethodPut)
			r.HandleFunc("/api/materials/:id", s.handleDeleteMaterial, http.MethodDelete)
			r.HandleFunc("/api/uploads/presign", s.handlePresignUpload, http.MethodGet)
			r.HandleFunc("/api/certificates", s.handleIssueCertificate, http.MethodPost)
		})

		r.Group(func(r *flow.Mux) {
			r.Use(s.RequireRole(types.RoleAdmin))

			r.HandleFunc("/api/users", s.handleGetUsers, http.MethodGet)
			r.HandleFunc("/api/users/:id", s.handleUpdateUser, http.MethodPut)
		})
	})
}

func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
