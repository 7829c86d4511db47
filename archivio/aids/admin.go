package aids

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/archivio-maledetto/archivio/archivio/database/models"
	"github.com/archivio-maledetto/archivio/archivio/database/repositories"
	"github.com/archivio-maledetto/archivio/archivio/gameerr"
	"github.com/archivio-maledetto/archivio/archivio/timewindow"
	"github.com/google/uuid"
)

// Input is the admin-authored shape of an aid. Empty Levels get the default
// tiers.
type Input struct {
	Name      string
	Attribute string
	Levels    []models.AidLevel
	EventDate string
	EndDate   string
	StartTime string
	EndTime   string
	CreatedBy string
}

func (in *Input) normalize() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Attribute = strings.TrimSpace(in.Attribute)
	in.EventDate = strings.TrimSpace(in.EventDate)
	in.EndDate = strings.TrimSpace(in.EndDate)
	in.StartTime = strings.TrimSpace(in.StartTime)
	in.EndTime = strings.TrimSpace(in.EndTime)

	if in.Name == "" {
		return gameerr.Validation("Il nome dell'aiuto è obbligatorio")
	}
	if in.Attribute == "" {
		return gameerr.Validation("L'attributo è obbligatorio")
	}
	if len(in.Levels) == 0 {
		in.Levels = DefaultLevels(in.Attribute)
	}
	seen := make(map[int]bool, len(in.Levels))
	for _, l := range in.Levels {
		if l.Level < 1 {
			return gameerr.Validation("Il livello %d non è valido", l.Level)
		}
		if seen[l.Level] {
			return gameerr.Validation("Il livello %d è duplicato", l.Level)
		}
		seen[l.Level] = true
	}
	slices.SortFunc(in.Levels, func(a, b models.AidLevel) int { return a.Level - b.Level })

	if !timewindow.ValidDate(in.EventDate) {
		return gameerr.Validation("Data evento non valida, usa AAAA-MM-GG")
	}
	if in.EndDate != "" {
		if !timewindow.ValidDate(in.EndDate) {
			return gameerr.Validation("Data di fine non valida, usa AAAA-MM-GG")
		}
		if in.EndDate < in.EventDate {
			return gameerr.Validation("La data di fine precede la data evento")
		}
	}
	if !timewindow.ValidClock(in.StartTime) || !timewindow.ValidClock(in.EndTime) {
		return gameerr.Validation("Orari non validi, usa HH:MM")
	}
	return nil
}

func (in Input) apply(a *models.Aid) {
	a.Name = in.Name
	a.Attribute = in.Attribute
	a.Levels = in.Levels
	a.EventDate = in.EventDate
	a.EndDate = in.EndDate
	a.StartTime = in.StartTime
	a.EndTime = in.EndTime
}

func (s *Service) Create(ctx context.Context, in Input) (*models.Aid, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	aid := &models.Aid{ID: uuid.NewString(), CreatedBy: in.CreatedBy}
	in.apply(aid)
	if err := s.store.Aids.Create(ctx, aid); err != nil {
		return nil, fmt.Errorf("create aid: %w", err)
	}
	s.catalog.InvalidateAid(aid.ID)
	return aid, nil
}

func (s *Service) Update(ctx context.Context, id string, in Input) (*models.Aid, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	aid, err := s.store.Aids.GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFound(err) {
			return nil, gameerr.NotFound("Aiuto")
		}
		return nil, fmt.Errorf("load aid: %w", err)
	}
	in.apply(aid)
	if err := s.store.Aids.Update(ctx, aid); err != nil {
		return nil, fmt.Errorf("update aid: %w", err)
	}
	s.catalog.InvalidateAid(id)
	return aid, nil
}

// Delete removes the definition. Recorded uses are kept.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.Aids.Delete(ctx, id); err != nil {
		if repositories.IsNotFound(err) {
			return gameerr.NotFound("Aiuto")
		}
		return fmt.Errorf("delete aid: %w", err)
	}
	s.catalog.InvalidateAid(id)
	return nil
}

func (s *Service) List(ctx context.Context) ([]*models.Aid, error) {
	list, err := s.catalog.Aids(ctx)
	if err != nil {
		return nil, fmt.Errorf("list aids: %w", err)
	}
	return list, nil
}
