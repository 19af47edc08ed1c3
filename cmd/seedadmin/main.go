// Package main creates the first super administrator. The password is read from
// ADMIN_PASSWORD so it never appears in shell history.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/agrimech/portal/config"
	"github.com/agrimech/portal/internal/admin"
	"github.com/agrimech/portal/internal/auth"
	"github.com/agrimech/portal/internal/models"
	"github.com/agrimech/portal/pkg/database"
	"github.com/agrimech/portal/pkg/logging"
)

func main() {
	username := flag.String("username", "admin", "admin username")
	email := flag.String("email", "", "admin email, required (used for password resets)")
	fullName := flag.String("name", "Site Administrator", "admin display name")
	force := flag.Bool("force", false, "create even if administrators already exist")
	flag.Parse()

	cfg, err := config.Load()
	env := ""
	if cfg != nil {
		env = cfg.Env
	}
	logger := logging.New(env)
	defer logger.Sync()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		logger.Fatal("ADMIN_PASSWORD must be set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()
	if err := database.Migrate(ctx, pool, logger); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	repo := admin.NewRepository(pool)
	existing, err := repo.Count(ctx)
	if err != nil {
		logger.Fatal("count admins", zap.Error(err))
	}
	if existing > 0 && !*force {
		logger.Info("administrators already exist, nothing to do", zap.Int("count", existing))
		return
	}

	svc := admin.NewService(repo, auth.NewHasher(cfg.Auth.BcryptCost), auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours), nil, logger)
	a, err := svc.Create(ctx, admin.CreateInput{
		Username: *username,
		Password: password,
		FullName: *fullName,
		Email:    *email,
		Role:     models.AdminRoleSuperAdmin,
	})
	if err != nil {
		logger.Fatal("create admin", zap.Error(err))
	}
	logger.Info("super administrator created", zap.String("username", a.Username), zap.String("id", a.ID.String()))
}
