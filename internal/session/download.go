package session

import (
	"context"
	"fmt"
	"time"

	"github.com/meltforce/liftlog/internal/models"
)

// DownloadDay bundles a day definition, its slots, the plan's current week,
// and the previous completed session's sets into the local store so the
// workout can be opened with no connectivity.
func (m *Manager) DownloadDay(ctx context.Context, dayID, planID string) error {
	if m.local == nil {
		return fmt.Errorf("downloading day: local store unavailable")
	}

	day, found, err := m.remote.GetDay(ctx, dayID)
	if err != nil {
		return fmt.Errorf("downloading day: %w", err)
	}
	if !found {
		return ErrDayNotFound
	}

	plan, found, err := m.remote.GetPlan(ctx, planID)
	if err != nil {
		return fmt.Errorf("downloading day: %w", err)
	}
	if !found {
		return ErrPlanNotFound
	}

	prev, err := m.remote.LastCompletedSetLogs(ctx, dayID)
	if err != nil {
		m.log.Warn("previous session fetch failed during download", "day", dayID, "error", err)
		prev = map[string]models.PreviousSet{}
	}

	bundle := models.DayBundle{
		Day:          *day,
		PlanID:       planID,
		WeekNumber:   plan.CurrentWeek,
		PreviousSets: prev,
		DownloadedAt: time.Now(),
	}
	if err := m.local.SaveDay(ctx, bundle); err != nil {
		return err
	}
	m.log.Info("day downloaded for offline use", "day", dayID, "week", plan.CurrentWeek)
	return nil
}

// IsDownloaded reports whether a day bundle is available offline.
func (m *Manager) IsDownloaded(ctx context.Context, dayID string) (bool, error) {
	if m.local == nil {
		return false, nil
	}
	_, found, err := m.local.Day(ctx, dayID)
	return found, err
}

// DownloadedDays lists every downloaded day id.
func (m *Manager) DownloadedDays(ctx context.Context) ([]string, error) {
	if m.local == nil {
		return nil, nil
	}
	return m.local.DownloadedDayIDs(ctx)
}

// ClearDownload removes a downloaded day bundle.
func (m *Manager) ClearDownload(ctx context.Context, dayID string) error {
	if m.local == nil {
		return nil
	}
	return m.local.DeleteDay(ctx, dayID)
}
