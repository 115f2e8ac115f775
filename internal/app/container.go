package app

import (
	"context"
	"net/http"
	"time"

	"github.com/autofixops/fixops-go/internal/application/analyze"
	"github.com/autofixops/fixops-go/internal/application/diagnose"
	"github.com/autofixops/fixops-go/internal/application/doctor"
	"github.com/autofixops/fixops-go/internal/domain"
	"github.com/autofixops/fixops-go/internal/infrastructure/ai"
	"github.com/autofixops/fixops-go/internal/infrastructure/config"
	"github.com/autofixops/fixops-go/internal/infrastructure/executor"
	"github.com/autofixops/fixops-go/internal/infrastructure/hostinfo"
	"github.com/autofixops/fixops-go/internal/infrastructure/httpapi"
	"github.com/autofixops/fixops-go/internal/infrastructure/security"
	"github.com/autofixops/fixops-go/internal/metrics"
	"github.com/autofixops/fixops-go/internal/pkg/logger"
	"github.com/autofixops/fixops-go/internal/ports"
)

// Container wires up application services with infrastructure adapters.
type Container struct {
	Config          domain.Config
	ConfigProvider  ports.ConfigProvider
	Policy          *security.Policy
	Metrics         *metrics.Store
	Analyst         *ai.Analyst
	AnalyzeService  *analyze.Service
	DiagnoseService *diagnose.Service
	DoctorService   *doctor.Service
	HTTPServer      *httpapi.Server
	Logger          *logger.ZapLogger
}

// BuildContainer constructs the dependency graph.
func BuildContainer(ctx context.Context, verbose bool) (*Container, error) {
	log := logger.NewZap(verbose)

	cfgLoader := config.NewFileLoader("")
	cfg, err := cfgLoader.Load(ctx)
	if err != nil {
		return nil, err
	}

	policy, err := security.NewPolicy(cfg.Security.PolicyFile)
	if err != nil {
		return nil, err
	}

	store := metrics.NewStore()
	host := hostinfo.NewCollector()

	caller := ai.NewCaller(
		&http.Client{Timeout: time.Duration(cfg.Analysis.TimeoutSeconds) * time.Second},
		ai.RetryPolicy{
			MaxAttempts: cfg.Analysis.MaxRetries,
			BaseSeconds: cfg.Analysis.BaseBackoffSeconds,
			MaxJitter:   time.Duration(cfg.Analysis.MaxJitterMS) * time.Millisecond,
		},
		log,
	)
	analyst := ai.NewAnalyst(cfg.Model, cfg.Analysis, caller, host, log)

	analyzeService := &analyze.Service{Analyst: analyst, Metrics: store, Logger: log}
	diagnoseService := &diagnose.Service{
		Executor: executor.NewSafeExecutor(policy, cfg.Execution, log),
		Metrics:  store,
		Logger:   log,
	}
	doctorService := &doctor.Service{
		ConfigProvider: cfgLoader,
		Policy:         policy,
		HostInspector:  host,
	}

	httpServer := httpapi.NewServer(analyzeService, diagnoseService, store, analyst, log)

	return &Container{
		Config:          cfg,
		ConfigProvider:  cfgLoader,
		Policy:          policy,
		Metrics:         store,
		Analyst:         analyst,
		AnalyzeService:  analyzeService,
		DiagnoseService: diagnoseService,
		DoctorService:   doctorService,
		HTTPServer:      httpServer,
		Logger:          log,
	}, nil
}
