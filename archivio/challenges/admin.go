package challenges

import (
	"context"
	"fmt"
	"strings"

	"github.com/archivio-maledetto/archivio/archivio/config"
	"github.com/archivio-maledetto/archivio/archivio/database/models"
	"github.com/archivio-maledetto/archivio/archivio/database/repositories"
	"github.com/archivio-maledetto/archivio/archivio/gameerr"
	"github.com/google/uuid"
)

// Input is the admin-authored shape of a challenge.
type Input struct {
	Name               string
	Description        string
	Tests              []models.ContrastingTest
	Keywords           []string
	AllowRefugeDefense bool
	CreatedBy          string
}

func (in *Input) normalize() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	if in.Name == "" {
		return gameerr.Validation("Il nome della sfida è obbligatorio")
	}
	if len(in.Tests) == 0 {
		return gameerr.Validation("Serve almeno una prova")
	}
	for i := range in.Tests {
		t := &in.Tests[i]
		t.Attribute = strings.TrimSpace(t.Attribute)
		if t.Attribute == "" {
			return gameerr.Validation("Prova %d: l'attributo è obbligatorio", i+1)
		}
		if t.Difficulty < 0 || t.Difficulty > config.MaxChallengeValue {
			return gameerr.Validation("Prova %d: la difficoltà deve essere tra 0 e %d", i+1, config.MaxChallengeValue)
		}
	}

	keywords := make([]string, 0, len(in.Keywords))
	seen := make(map[string]bool, len(in.Keywords))
	for _, k := range in.Keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		keywords = append(keywords, k)
	}
	in.Keywords = keywords
	return nil
}

func (in Input) apply(ch *models.Challenge) {
	ch.Name = in.Name
	ch.Description = in.Description
	ch.Tests = in.Tests
	ch.Keywords = in.Keywords
	ch.AllowRefugeDefense = in.AllowRefugeDefense
}

// ParseKeywords splits a comma separated keyword list.
func ParseKeywords(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	return strings.Split(raw, ",")
}

func (s *Service) Create(ctx context.Context, in Input) (*models.Challenge, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	ch := &models.Challenge{ID: uuid.NewString(), CreatedBy: in.CreatedBy}
	in.apply(ch)
	if err := s.store.Challenges.Create(ctx, ch); err != nil {
		return nil, fmt.Errorf("create challenge: %w", err)
	}
	s.catalog.InvalidateChallenge(ch.ID)
	return ch, nil
}

func (s *Service) Update(ctx context.Context, id string, in Input) (*models.Challenge, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	ch, err := s.store.Challenges.GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFound(err) {
			return nil, gameerr.NotFound("Sfida")
		}
		return nil, fmt.Errorf("load challenge: %w", err)
	}
	in.apply(ch)
	if err := s.store.Challenges.Update(ctx, ch); err != nil {
		return nil, fmt.Errorf("update challenge: %w", err)
	}
	s.catalog.InvalidateChallenge(id)
	return ch, nil
}

// Delete removes the definition. Recorded attempts are kept.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.Challenges.Delete(ctx, id); err != nil {
		if repositories.IsNotFound(err) {
			return gameerr.NotFound("Sfida")
		}
		return fmt.Errorf("delete challenge: %w", err)
	}
	s.catalog.InvalidateChallenge(id)
	return nil
}
