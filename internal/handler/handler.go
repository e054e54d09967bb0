// Package handler holds the HTTP handlers. Each handler decodes the
// request, delegates to a service and writes the response envelope;
// business rules live in the services.
package handler

import (
	"context"

	"github.com/hageshiame/light-heart/internal/jobs"
	"github.com/hageshiame/light-heart/internal/service"
)

// JobStatser is the slice of the job scheduler the health endpoint reads.
type JobStatser interface {
	Stats(ctx context.Context) (*jobs.Stats, error)
}

// Handler bundles the services behind the HTTP surface. Built once in
// the composition root and shared by all routes.
type Handler struct {
	Accounts *service.AccountService
	Battles  *service.BattleService
	Rescues  *service.RescueService
	Syncs    *service.SyncService
	Jobs     JobStatser
}

func New(
	accounts *service.AccountService,
	battles *service.BattleService,
	rescues *service.RescueService,
	syncs *service.SyncService,
	jobStats JobStatser,
) *Handler {
	return &Handler{
		Accounts: accounts,
		Battles:  battles,
		Rescues:  rescues,
		Syncs:    syncs,
		Jobs:     jobStats,
	}
}
