package usecase

import (
	"context"

	"go-clinic-management/internal/delivery/dto"
	"go-clinic-management/internal/service"

	"github.com/sirupsen/logrus"
)

type IntegrityUsecase interface {
	// Repair runs one named step, or every step when step is empty.
	Repair(ctx context.Context, step string) (*dto.RepairResponse, error)
	Steps() []string
}

type integrityUsecase struct {
	log         *logrus.Logger
	integrity   service.IntegrityService
	reportCache service.ReportCache
}

func NewIntegrityUsecase(log *logrus.Logger, integrity service.IntegrityService, reportCache service.ReportCache) IntegrityUsecase {
	return &integrityUsecase{
		log:         log,
		integrity:   integrity,
		reportCache: reportCache,
	}
}

func (u *integrityUsecase) Steps() []string {
	return u.integrity.Steps()
}

func (u *integrityUsecase) Repair(ctx context.Context, step string) (*dto.RepairResponse, error) {
	var (
		results []service.RepairResult
		err     error
	)
	if step == "" {
		results, err = u.integrity.Run(ctx)
	} else {
		var result service.RepairResult
		result, err = u.integrity.RunStep(ctx, step)
		results = []service.RepairResult{result}
	}

	response := &dto.RepairResponse{Steps: make([]dto.RepairStepResponse, 0, len(results))}
	for _, r := range results {
		response.Steps = append(response.Steps, dto.RepairStepResponse{Step: r.Step, Repaired: r.Repaired, Error: r.Error})
		response.TotalRepaired += r.Repaired
	}

	if response.TotalRepaired > 0 {
		if cacheErr := u.reportCache.Invalidate(ctx); cacheErr != nil {
			u.log.Warnf("Failed to invalidate report cache: %+v", cacheErr)
		}
	}

	if err != nil {
		return response, fail(u.log, "integrity.repair", logrus.Fields{"step": step}, err)
	}
	u.log.WithField("repaired", response.TotalRepaired).Info("Integrity repair finished")
	return response, nil
}
