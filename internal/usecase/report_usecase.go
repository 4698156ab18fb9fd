package usecase

import (
	"context"
	"fmt"
	"time"

	"go-clinic-management/internal/delivery/dto"
	"go-clinic-management/internal/domain/entity"
	"go-clinic-management/internal/domain/repository"
	"go-clinic-management/internal/service"
	"go-clinic-management/pkg/apperror"
	"go-clinic-management/pkg/datetime"
	"go-clinic-management/pkg/validator"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const defaultLabUsageLimit = 10

type ReportUsecase interface {
	Statistics(ctx context.Context) (*dto.StatisticsResponse, error)
	AppointmentTrends(ctx context.Context, req *dto.ReportRangeRequest) ([]dto.DailyCount, error)
	LabTestUsage(ctx context.Context, req *dto.ReportRangeRequest) ([]dto.LabTestUsage, error)
	RevenueTrends(ctx context.Context, req *dto.ReportRangeRequest) ([]dto.DailyRevenue, error)
}

type reportUsecase struct {
	db         *gorm.DB
	log        *logrus.Logger
	validate   *validator.CustomValidator
	reportRepo repository.ReportRepository
	cache      service.ReportCache
}

func NewReportUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	validate *validator.CustomValidator,
	reportRepo repository.ReportRepository,
	cache service.ReportCache,
) ReportUsecase {
	return &reportUsecase{
		db:         db,
		log:        log,
		validate:   validate,
		reportRepo: reportRepo,
		cache:      cache,
	}
}

// cached serves key from the report cache, computing and storing it on a
// miss. Cache failures only cost a recomputation.
func (u *reportUsecase) cached(ctx context.Context, key string, dest interface{}, compute func() error) error {
	hit, err := u.cache.Get(ctx, key, dest)
	if err != nil {
		u.log.Warnf("Failed to read report cache %s: %+v", key, err)
	}
	if hit {
		return nil
	}

	if err := compute(); err != nil {
		return err
	}

	if err := u.cache.Set(ctx, key, dest); err != nil {
		u.log.Warnf("Failed to write report cache %s: %+v", key, err)
	}
	return nil
}

func (u *reportUsecase) Statistics(ctx context.Context) (*dto.StatisticsResponse, error) {
	stats := &dto.StatisticsResponse{}
	err := u.cached(ctx, "statistics", stats, func() error {
		db := u.db.WithContext(ctx)
		var err error

		if stats.TotalPatients, err = u.reportRepo.CountPatients(db); err != nil {
			return err
		}
		if stats.TotalVisits, err = u.reportRepo.CountVisits(db); err != nil {
			return err
		}

		byStatus, err := u.reportRepo.CountAppointmentsByStatus(db)
		if err != nil {
			return err
		}
		stats.AppointmentsByStatus = make(map[string]int64, len(byStatus))
		for _, row := range byStatus {
			stats.AppointmentsByStatus[row.Status] = row.Count
			stats.TotalAppointments += row.Count
		}

		if stats.PendingRevenue, err = u.reportRepo.SumTransactions(db, entity.TransactionStatusPending); err != nil {
			return err
		}
		stats.PaidRevenue, err = u.reportRepo.SumTransactions(db, entity.TransactionStatusPaid)
		return err
	})
	if err != nil {
		u.log.Warnf("Failed to compute statistics: %+v", err)
		return nil, err
	}
	return stats, nil
}

func (u *reportUsecase) AppointmentTrends(ctx context.Context, req *dto.ReportRangeRequest) ([]dto.DailyCount, error) {
	rng, err := u.parseRange(req)
	if err != nil {
		return nil, err
	}

	result := []dto.DailyCount{}
	err = u.cached(ctx, rng.key("appointment_trends"), &result, func() error {
		rows, err := u.reportRepo.AppointmentsPerDay(u.db.WithContext(ctx), rng.from, rng.until)
		if err != nil {
			return err
		}
		for _, row := range rows {
			result = append(result, dto.DailyCount{Date: row.Day.Format(datetime.DateLayout), Count: row.Count})
		}
		return nil
	})
	if err != nil {
		u.log.Warnf("Failed to compute appointment trends: %+v", err)
		return nil, err
	}
	return result, nil
}

func (u *reportUsecase) LabTestUsage(ctx context.Context, req *dto.ReportRangeRequest) ([]dto.LabTestUsage, error) {
	rng, err := u.parseRange(req)
	if err != nil {
		return nil, err
	}
	limit := req.Limit
	if limit == 0 {
		limit = defaultLabUsageLimit
	}

	result := []dto.LabTestUsage{}
	err = u.cached(ctx, fmt.Sprintf("%s:%d", rng.key("lab_test_usage"), limit), &result, func() error {
		rows, err := u.reportRepo.LabTestUsage(u.db.WithContext(ctx), rng.from, rng.until, limit)
		if err != nil {
			return err
		}
		for _, row := range rows {
			result = append(result, dto.LabTestUsage{
				LabTestID: row.LabTestID,
				Code:      row.Code,
				Name:      row.Name,
				Requests:  row.Requests,
				Revenue:   row.Revenue,
			})
		}
		return nil
	})
	if err != nil {
		u.log.Warnf("Failed to compute lab test usage: %+v", err)
		return nil, err
	}
	return result, nil
}

func (u *reportUsecase) RevenueTrends(ctx context.Context, req *dto.ReportRangeRequest) ([]dto.DailyRevenue, error) {
	rng, err := u.parseRange(req)
	if err != nil {
		return nil, err
	}

	result := []dto.DailyRevenue{}
	err = u.cached(ctx, rng.key("revenue_trends"), &result, func() error {
		rows, err := u.reportRepo.RevenuePerDay(u.db.WithContext(ctx), rng.from, rng.until)
		if err != nil {
			return err
		}
		for _, row := range rows {
			result = append(result, dto.DailyRevenue{
				Date:         row.Day.Format(datetime.DateLayout),
				Transactions: row.Transactions,
				Total:        row.Total,
			})
		}
		return nil
	})
	if err != nil {
		u.log.Warnf("Failed to compute revenue trends: %+v", err)
		return nil, err
	}
	return result, nil
}

type dayRange struct {
	from  time.Time
	until time.Time
}

func (r dayRange) key(name string) string {
	return fmt.Sprintf("%s:%s:%s", name, r.from.Format(datetime.DateLayout), r.until.Format(datetime.DateLayout))
}

// parseRange turns the inclusive from/to days into a half-open range.
func (u *reportUsecase) parseRange(req *dto.ReportRangeRequest) (dayRange, error) {
	if err := u.validate.Check(req); err != nil {
		return dayRange{}, err
	}
	from, _ := datetime.ParseDate(req.From)
	to, _ := datetime.ParseDate(req.To)
	if to.Before(from) {
		return dayRange{}, apperror.ValidationFields(map[string]string{"to": "to must not be before from"})
	}
	return dayRange{from: from, until: to.AddDate(0, 0, 1)}, nil
}
