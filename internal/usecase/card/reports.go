package card

import (
	"context"
	"errors"
	"fmt"
	"slices"

	domaincard "cardtrack/internal/domain/card"
	"cardtrack/internal/errs"
	"cardtrack/internal/ports"
)

func (s *Service) checkReports(ctx context.Context, siteID uint64) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}
	if s.reports == nil {
		return errors.New("report repository is required")
	}
	if siteID == 0 {
		return invalidInput("site id is required")
	}
	return nil
}

// CountBy returns the site's live cards grouped by one dimension, ordered by
// total descending then key.
func (s *Service) CountBy(ctx context.Context, siteID uint64, by ports.GroupBy) ([]ports.GroupCount, error) {
	if err := s.checkReports(ctx, siteID); err != nil {
		return nil, err
	}
	if !slices.Contains(ports.GroupDimensions(), by) {
		return nil, invalidInput(fmt.Sprintf("unknown group dimension %q", by))
	}
	return s.reports.CountCards(ctx, siteID, by)
}

func (s *Service) CountByPreclassifier(ctx context.Context, siteID uint64) ([]ports.GroupCount, error) {
	return s.CountBy(ctx, siteID, ports.GroupByPreclassifier)
}

func (s *Service) CountByMethodology(ctx context.Context, siteID uint64) ([]ports.GroupCount, error) {
	return s.CountBy(ctx, siteID, ports.GroupByMethodology)
}

func (s *Service) CountByArea(ctx context.Context, siteID uint64) ([]ports.GroupCount, error) {
	return s.CountBy(ctx, siteID, ports.GroupByArea)
}

func (s *Service) CountByMachine(ctx context.Context, siteID uint64) ([]ports.GroupCount, error) {
	return s.CountBy(ctx, siteID, ports.GroupByMachine)
}

func (s *Service) CountByCreator(ctx context.Context, siteID uint64) ([]ports.GroupCount, error) {
	return s.CountBy(ctx, siteID, ports.GroupByCreator)
}

func (s *Service) CountByPriority(ctx context.Context, siteID uint64) ([]ports.GroupCount, error) {
	return s.CountBy(ctx, siteID, ports.GroupByPriority)
}

// WeeklySeries returns issued and eradicated counts per (year, week) with running totals.
func (s *Service) WeeklySeries(ctx context.Context, siteID uint64) ([]domaincard.WeeklyPoint, error) {
	if err := s.checkReports(ctx, siteID); err != nil {
		return nil, err
	}
	rows, err := s.reports.WeeklyCounts(ctx, siteID)
	if err != nil {
		return nil, err
	}
	return domaincard.Accumulate(rows), nil
}
