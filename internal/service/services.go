// Package service contains the business logic layer.
package service

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/visionaihq/visionai-api/internal/config"
	"github.com/visionaihq/visionai-api/internal/gateway"
	"github.com/visionaihq/visionai-api/internal/repository"
)

// Services holds all service instances.
type Services struct {
	Auth      *AuthService
	Payment   *PaymentService
	Image     *ImageService
	Community *CommunityService
	Storage   *StorageService
	Cleanup   *CleanupService
}

// NewServices creates all service instances.
func NewServices(cfg *config.Config, repos *repository.Repositories, gw gateway.Gateway, logger *slog.Logger) (*Services, error) {
	storageSvc, err := NewStorageService(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage service: %w", err)
	}

	gatewayTimeout := cfg.GatewayTimeout
	if gatewayTimeout <= 0 {
		gatewayTimeout = 10 * time.Second
	}

	authSvc := NewAuthService(cfg, repos, logger)
	paymentSvc := NewPaymentService(repos, gw, gatewayTimeout, logger)
	imageSvc := NewImageService(cfg, repos, storageSvc, logger)
	communitySvc := NewCommunityService(repos, logger)
	cleanupSvc := NewCleanupService(cfg, paymentSvc, logger)

	return &Services{
		Auth:      authSvc,
		Payment:   paymentSvc,
		Image:     imageSvc,
		Community: communitySvc,
		Storage:   storageSvc,
		Cleanup:   cleanupSvc,
	}, nil
}
