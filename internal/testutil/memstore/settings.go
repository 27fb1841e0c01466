package memstore

import (
	"context"
	"sync"

	"sfd-loan-engine/internal/domain/settings"

	"github.com/shopspring/decimal"
)

// Settings is a settings.Provider backed by a map, with Defaults for
// SFDs that have no entry.
type Settings struct {
	mu       sync.RWMutex
	bySfd    map[string]settings.SfdLoanSettings
	Defaults settings.SfdLoanSettings
}

func NewSettings() *Settings {
	return &Settings{
		bySfd: map[string]settings.SfdLoanSettings{},
		Defaults: settings.SfdLoanSettings{
			MinAmount:         decimal.NewFromInt(10_000),
			MaxAmount:         decimal.NewFromInt(5_000_000),
			MinDurationMonths: 1,
			MaxDurationMonths: 60,
			MaxInterestRate:   decimal.NewFromInt(36),
			GracePeriodDays:   30,
			Active:            true,
		},
	}
}

func (s *Settings) Put(v settings.SfdLoanSettings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bySfd[v.SfdID] = v
}

func (s *Settings) ForSfd(_ context.Context, sfdID string) (*settings.SfdLoanSettings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.bySfd[sfdID]; ok {
		return &v, nil
	}
	d := s.Defaults
	d.SfdID = sfdID
	return &d, nil
}
