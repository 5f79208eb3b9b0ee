package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"aidlink/internal/db"
	"aidlink/internal/mailer"
	"aidlink/internal/server"
	"aidlink/internal/service"
	"aidlink/internal/storage"
	"aidlink/internal/store"
	"aidlink/internal/store/memory"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/lestrrat-go/httprc/v3"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var serveCommand = &cli.Command{
	Name:  "serve",
	Usage: "Start the HTTP server",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "in-memory",
			Usage: "Run against the in-memory store instead of Postgres",
		},
	},
	Action: serve,
}

type stores struct {
	programs      service.ProgramStore
	materials     service.MaterialStore
	registrations service.RegistrationStore
	forms         service.FormStore
	users         service.UserStore
}

func serve(cCtx *cli.Context) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	config, err := loadConfig()
	if err != nil {
		return err
	}

	if config.AuthIssuerURL == "" {
		return fmt.Errorf("set AUTH_ISSUER_URL")
	}

	var st stores
	if cCtx.Bool("in-memory") {
		logger.Warn("running with the in-memory store, state is ephemeral")
		mem := memory.NewStore()
		st = stores{programs: mem, materials: mem, registrations: mem, forms: mem, users: mem}
	} else {
		if config.DatabaseURL == "" {
			return fmt.Errorf("set DATABASE_URL")
		}

		pool, err := db.Connect(ctx, config)
		if err != nil {
			return err
		}
		defer pool.Close()

		st = stores{
			programs:      store.NewProgramRepository(pool),
			materials:     store.NewMaterialRepository(pool),
			registrations: store.NewRegistrationRepository(pool),
			forms:         store.NewFormRepository(pool),
			users:         store.NewUserRepository(pool),
		}
	}

	var certificates service.CertificateIssuer
	if config.EmailServerHost != "" {
		certificates, err = mailer.New(config, logger)
		if err != nil {
			return err
		}
	} else {
		logger.Warn("no SMTP server configured, certificates are logged only")
		certificates = &logIssuer{logger: logger}
	}

	var uploads *storage.S3Storage
	if config.StorageBucketName != "" {
		awsConfig, err := loadAWSConfig(ctx)
		if err != nil {
			return err
		}
		uploads = storage.NewS3Storage(
			s3.NewFromConfig(awsConfig),
			config.StorageBucketName,
			time.Duration(config.UploadURLExpirySeconds)*time.Second,
		)
	}

	jwkCache, err := jwk.NewCache(context.Background(), httprc.NewClient())
	if err != nil {
		return fmt.Errorf("failed to initialize jwk cache: %w", err)
	}

	jwksURL := fmt.Sprintf("%s/.well-known/jwks.json", config.AuthIssuerURL)

	if err := jwkCache.Register(context.Background(), jwksURL); err != nil {
		return fmt.Errorf("failed to register jwks url with cache: %w", err)
	}

	programService := service.NewProgramService(st.programs, logger)
	materialService := service.NewMaterialService(st.materials, logger)
	registrationService := service.NewRegistrationService(st.registrations, logger)
	submissionService := service.NewSubmissionService(st.forms, st.registrations, st.programs, st.users, certificates, logger)
	userService := service.NewUserService(st.users, logger)

	srv, err := server.New(
		config,
		logger,
		programService,
		materialService,
		registrationService,
		submissionService,
		userService,
		certificates,
		uploads,
		jwkCache,
		jwksURL,
	)
	if err != nil {
		return err
	}

	go func() {
		logger.WithField("port", config.ServerPort).Infof("server starting http://localhost:%d", config.ServerPort)
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Stop(shutdownCtx)
}

// logIssuer stands in for the SMTP mailer when none is configured.
type logIssuer struct {
	logger *logrus.Logger
}

func (l *logIssuer) IssueCertificate(ctx context.Context, email, name, programName string) error {
	l.logger.WithFields(logrus.Fields{
		"email":   email,
		"name":    name,
		"program": programName,
	}).Info("certificate issued (log only)")
	return nil
}
