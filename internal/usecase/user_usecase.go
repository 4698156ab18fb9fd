package usecase

import (
	"context"

	"go-clinic-management/internal/converter"
	"go-clinic-management/internal/delivery/dto"
	"go-clinic-management/internal/domain/repository"
	"go-clinic-management/pkg/apperror"
	"go-clinic-management/pkg/jwt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type UserUsecase interface {
	Me(ctx context.Context, userID uint) (*dto.UserResponse, error)
	// IssueToken mints an access token for an existing active user. Password
	// login is handled by the clinic's identity provider.
	IssueToken(ctx context.Context, userID uint) (*dto.TokenResponse, error)
}

type userUsecase struct {
	db         *gorm.DB
	log        *logrus.Logger
	userRepo   repository.UserRepository
	jwtService *jwt.JWTService
}

func NewUserUsecase(db *gorm.DB, log *logrus.Logger, userRepo repository.UserRepository, jwtService *jwt.JWTService) UserUsecase {
	return &userUsecase{
		db:         db,
		log:        log,
		userRepo:   userRepo,
		jwtService: jwtService,
	}
}

func (u *userUsecase) Me(ctx context.Context, userID uint) (*dto.UserResponse, error) {
	user, err := u.userRepo.FindByID(u.db.WithContext(ctx), userID)
	if err != nil {
		u.log.Warnf("Failed to find user %d: %+v", userID, err)
		return nil, err
	}
	if user == nil {
		return nil, apperror.NotFoundOrAlreadyProcessed("user %d not found", userID)
	}
	return converter.UserToResponse(user), nil
}

func (u *userUsecase) IssueToken(ctx context.Context, userID uint) (*dto.TokenResponse, error) {
	user, err := u.userRepo.FindByID(u.db.WithContext(ctx), userID)
	if err != nil {
		u.log.Warnf("Failed to find user %d: %+v", userID, err)
		return nil, err
	}
	if user == nil || !user.IsActive {
		return nil, apperror.NotFoundOrAlreadyProcessed("user %d not found or inactive", userID)
	}

	token, err := u.jwtService.GenerateAccessToken(user.ID, user.Role)
	if err != nil {
		u.log.Warnf("Failed to sign access token: %+v", err)
		return nil, err
	}

	u.log.WithField("user_id", user.ID).Info("Access token issued")
	return &dto.TokenResponse{
		AccessToken: token,
		ExpiresIn:   int64(u.jwtService.AccessExpiry().Seconds()),
	}, nil
}
