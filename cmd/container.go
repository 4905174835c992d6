// container.go
package main

import (
	"context"

	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/Abraxas-365/hireflow/pkg/ats/candidate/candidateapi"
	"github.com/Abraxas-365/hireflow/pkg/ats/candidate/candidateinfra"
	"github.com/Abraxas-365/hireflow/pkg/ats/candidate/candidatesrv"
	"github.com/Abraxas-365/hireflow/pkg/ats/job/jobapi"
	"github.com/Abraxas-365/hireflow/pkg/ats/job/jobinfra"
	"github.com/Abraxas-365/hireflow/pkg/ats/job/jobsrv"
	"github.com/Abraxas-365/hireflow/pkg/ats/report"
	"github.com/Abraxas-365/hireflow/pkg/ats/report/reportapi"
	"github.com/Abraxas-365/hireflow/pkg/ats/report/reportinfra"
	"github.com/Abraxas-365/hireflow/pkg/ats/report/reportsrv"
	"github.com/Abraxas-365/hireflow/pkg/config"
	"github.com/Abraxas-365/hireflow/pkg/fsx"
	"github.com/Abraxas-365/hireflow/pkg/fsx/fsxlocal"
	"github.com/Abraxas-365/hireflow/pkg/fsx/fsxs3"
	"github.com/Abraxas-365/hireflow/pkg/iam/auth"
	"github.com/Abraxas-365/hireflow/pkg/iam/auth/authinfra"
	"github.com/Abraxas-365/hireflow/pkg/iam/user/userapi"
	"github.com/Abraxas-365/hireflow/pkg/iam/user/userinfra"
	"github.com/Abraxas-365/hireflow/pkg/iam/user/usersrv"
	"github.com/Abraxas-365/hireflow/pkg/kernel"
	"github.com/Abraxas-365/hireflow/pkg/logx"
	"github.com/Abraxas-365/hireflow/pkg/migrations"
)

// Container holds all application dependencies
type Container struct {
	// Config
	Config *config.Config

	// Infrastructure
	DB         *sqlx.DB
	Redis      *redis.Client
	FileSystem fsx.FileSystem
	S3Client   *s3.Client

	// Services
	TokenService     auth.TokenService
	UserService      *usersrv.UserService
	JobService       *jobsrv.JobService
	CandidateService *candidatesrv.CandidateService
	ReportService    *reportsrv.ReportService

	// API Handlers
	AuthHandlers      *auth.AuthHandlers
	UserHandlers      *userapi.UserHandlers
	JobHandlers       *jobapi.JobHandlers
	CandidateHandlers *candidateapi.CandidateHandlers
	ReportHandlers    *reportapi.ReportHandlers

	// Middleware
	AuthMiddleware *auth.AuthMiddleware

	// Background Services
	ArchiveJanitor *reportinfra.ArchiveJanitor
}

// NewContainer initializes the dependency injection container
func NewContainer(cfg *config.Config) *Container {
	logx.Info("🔧 Initializing dependency container...")

	c := &Container{
		Config: cfg,
	}

	c.initInfrastructure()
	c.initRepositories()
	c.bootstrap()

	logx.Info("✅ Container initialized successfully")
	return c
}

func (c *Container) initInfrastructure() {
	logx.Info("🏗️ Initializing infrastructure...")

	// 1. Database Connection
	db, err := sqlx.Connect("postgres", c.Config.Database.DSN())
	if err != nil {
		logx.Fatalf("Failed to connect to database: %v", err)
	}
	db.SetMaxOpenConns(c.Config.Database.MaxOpenConns)
	db.SetMaxIdleConns(c.Config.Database.MaxIdleConns)
	db.SetConnMaxLifetime(c.Config.Database.ConnMaxLifetime)
	c.DB = db
	logx.Info("✅ Database connected")

	if c.Config.Database.AutoMigrate {
		if err := migrations.Up(context.Background(), db.DB); err != nil {
			logx.Fatalf("Failed to run migrations: %v", err)
		}
		logx.Info("✅ Migrations applied")
	}

	// 2. Redis Connection (snapshot cache only, optional)
	if c.Config.Redis.Enabled {
		client := redis.NewClient(&redis.Options{
			Addr:     c.Config.Redis.Address(),
			Password: c.Config.Redis.Password,
			DB:       c.Config.Redis.DB,
		})
		if _, err := client.Ping(context.Background()).Result(); err != nil {
			logx.Warnf("⚠️  Redis unavailable, report cache disabled: %v", err)
			_ = client.Close()
		} else {
			c.Redis = client
			logx.Info("✅ Redis connected")
		}
	}

	// 3. File Storage Configuration (Local or S3)
	c.initFileStorage()

	logx.Info("✅ Infrastructure initialized")
}

func (c *Container) initFileStorage() {
	storage := c.Config.Storage

	switch storage.Mode {
	case "s3":
		cfg, err := awsConfig.LoadDefaultConfig(context.TODO(), awsConfig.WithRegion(storage.AWSRegion))
		if err != nil {
			logx.Fatalf("Unable to load AWS SDK config: %v", err)
		}
		c.S3Client = s3.NewFromConfig(cfg)
		c.FileSystem = fsxs3.NewS3FileSystem(c.S3Client, storage.AWSBucket, storage.KeyPrefix)
		logx.Infof("✅ S3 file system configured (bucket: %s, region: %s)", storage.AWSBucket, storage.AWSRegion)

	case "local":
		localFS, err := fsxlocal.NewLocalFileSystem(storage.UploadDir)
		if err != nil {
			logx.Fatalf("Failed to initialize local file system: %v", err)
		}
		c.FileSystem = localFS
		logx.Infof("✅ Local file system configured (path: %s)", storage.UploadDir)

	default:
		logx.Fatalf("Unknown STORAGE_MODE: %s (use 'local' or 's3')", storage.Mode)
	}
}

func (c *Container) initRepositories() {
	logx.Info("🗄️  Initializing repositories and services...")

	// --- Repositories ---
	userRepo := userinfra.NewPostgresUserRepository(c.DB)
	jobRepo := jobinfra.NewPostgresJobRepository(c.DB)
	candidateRepo := candidateinfra.NewPostgresCandidateRepository(c.DB)

	// --- Infrastructure Services ---
	passwordSvc := authinfra.NewBcryptPasswordService(c.Config.Auth.Password.BcryptCost)
	c.TokenService = auth.NewJWTServiceFromConfig(&c.Config.Auth.JWT)

	var snapshotCache report.SnapshotCache = reportinfra.NoopCache{}
	if c.Redis != nil {
		snapshotCache = reportinfra.NewRedisSnapshotCache(c.Redis)
		logx.Info("✅ Using Redis snapshot cache for reports")
	}

	// --- Domain Services ---
	reportCfg := c.Config.Report
	c.UserService = usersrv.NewUserService(userRepo, passwordSvc)
	c.JobService = jobsrv.NewJobService(jobRepo, snapshotCache)
	c.CandidateService = candidatesrv.NewCandidateService(candidateRepo, jobRepo, kernel.NewJobID(reportCfg.GeneralPoolJobID))
	c.ReportService = reportsrv.NewReportService(
		jobRepo,
		candidateRepo,
		snapshotCache,
		reportinfra.NewXLSXExporter(),
		c.FileSystem,
		reportCfg,
	)

	// --- API Handlers ---
	c.AuthHandlers = auth.NewAuthHandlers(c.UserService, c.TokenService, c.Config.Auth.Cookie)
	c.UserHandlers = userapi.NewUserHandlers(c.UserService)
	c.JobHandlers = jobapi.NewJobHandlers(c.JobService, reportCfg.Location())
	c.CandidateHandlers = candidateapi.NewCandidateHandlers(c.CandidateService)
	c.ReportHandlers = reportapi.NewReportHandlers(c.ReportService)

	// --- Middleware ---
	c.AuthMiddleware = auth.NewAuthMiddleware(c.TokenService, c.Config.Auth.Cookie.AccessTokenName)

	// --- Background Services ---
	if reportCfg.ArchiveExports {
		c.ArchiveJanitor = reportinfra.NewArchiveJanitor(
			c.FileSystem,
			reportCfg.ArchivePrefix,
			reportCfg.ArchiveRetention,
			reportCfg.JanitorInterval,
		)
	}

	logx.Info("✅ All services and handlers initialized")
}

// bootstrap seeds the first MASTER user when configured
func (c *Container) bootstrap() {
	b := c.Config.Auth.Bootstrap
	if err := c.UserService.EnsureMaster(context.Background(), b.MasterEmail, b.MasterName, b.MasterPassword); err != nil {
		logx.Fatalf("Failed to bootstrap master user: %v", err)
	}
}

// StartBackgroundServices starts background workers
func (c *Container) StartBackgroundServices(ctx context.Context) {
	logx.Info("🔄 Starting background services...")

	if c.ArchiveJanitor != nil {
		go c.ArchiveJanitor.Start(ctx)
		logx.Info("✅ Archive janitor started")
	}
}

// Cleanup closes all connections and stops workers
func (c *Container) Cleanup() {
	logx.Info("🧹 Cleaning up resources...")

	// Close database connection
	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			logx.Errorf("Error closing database: %v", err)
		} else {
			logx.Info("✅ Database connection closed")
		}
	}

	// Close Redis connection
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			logx.Errorf("Error closing Redis: %v", err)
		} else {
			logx.Info("✅ Redis connection closed")
		}
	}

	logx.Info("✅ Cleanup completed")
}
