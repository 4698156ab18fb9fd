package usecase

import (
	"context"

	"go-clinic-management/internal/converter"
	"go-clinic-management/internal/delivery/dto"
	"go-clinic-management/internal/domain/entity"
	"go-clinic-management/internal/domain/repository"
	"go-clinic-management/pkg/apperror"
	"go-clinic-management/pkg/datetime"
	"go-clinic-management/pkg/validator"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const defaultAuditLogLimit = 100

type AuditLogUsecase interface {
	// ListAuditLogs returns the newest entries first.
	ListAuditLogs(ctx context.Context, req *dto.AuditLogQuery) (*dto.AuditLogListResponse, error)
	GetAuditLog(ctx context.Context, id uint) (*dto.AuditLogResponse, error)
}

type auditLogUsecase struct {
	db           *gorm.DB
	log          *logrus.Logger
	validate     *validator.CustomValidator
	auditLogRepo repository.AuditLogRepository
}

func NewAuditLogUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	validate *validator.CustomValidator,
	auditLogRepo repository.AuditLogRepository,
) AuditLogUsecase {
	return &auditLogUsecase{
		db:           db,
		log:          log,
		validate:     validate,
		auditLogRepo: auditLogRepo,
	}
}

func (u *auditLogUsecase) ListAuditLogs(ctx context.Context, req *dto.AuditLogQuery) (*dto.AuditLogListResponse, error) {
	if req == nil {
		req = &dto.AuditLogQuery{}
	}
	if err := u.validate.Check(req); err != nil {
		return nil, err
	}

	filter := entity.AuditLogFilter{
		Action:     req.Action,
		EntityName: req.Entity,
		EntityID:   req.EntityID,
		UserID:     req.UserID,
		Limit:      req.Limit,
	}
	if filter.Limit == 0 {
		filter.Limit = defaultAuditLogLimit
	}
	if req.From != "" {
		from, _ := datetime.ParseDate(req.From)
		filter.Since = &from
	}
	if req.To != "" {
		to, _ := datetime.ParseDate(req.To)
		if filter.Since != nil && to.Before(*filter.Since) {
			return nil, apperror.ValidationFields(map[string]string{"to": "to must not be before from"})
		}
		until := to.AddDate(0, 0, 1)
		filter.Until = &until
	}

	logs, total, err := u.auditLogRepo.Find(u.db.WithContext(ctx), filter)
	if err != nil {
		u.log.WithFields(logrus.Fields{
			"action":    filter.Action,
			"entity":    filter.EntityName,
			"entity_id": filter.EntityID,
		}).Warnf("Failed to find audit logs: %+v", err)
		return nil, err
	}

	return &dto.AuditLogListResponse{
		Logs:  converter.AuditLogsToResponses(logs),
		Total: total,
	}, nil
}

func (u *auditLogUsecase) GetAuditLog(ctx context.Context, id uint) (*dto.AuditLogResponse, error) {
	auditLog, err := u.auditLogRepo.FindByID(u.db.WithContext(ctx), id)
	if err != nil {
		u.log.Warnf("Failed to find audit log %d: %+v", id, err)
		return nil, err
	}
	if auditLog == nil {
		return nil, apperror.NotFoundOrAlreadyProcessed("audit log %d not found", id)
	}

	return converter.AuditLogToResponse(auditLog), nil
}
