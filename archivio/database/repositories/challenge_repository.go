package repositories

import (
	"context"

	"github.com/archivio-maledetto/archivio/archivio/database/models"
	"github.com/uptrace/bun"
)

type ChallengeRepository interface {
	Create(ctx context.Context, challenge *models.Challenge) error
	GetByID(ctx context.Context, id string) (*models.Challenge, error)
	Update(ctx context.Context, challenge *models.Challenge) error
	// Delete removes the definition only. Attempts are retained.
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*models.Challenge, error)

	// CreateAttempt inserts an attempt. A second attempt for the same
	// (user, challenge) fails with a *ConflictError.
	CreateAttempt(ctx context.Context, attempt *models.ChallengeAttempt) error
	AttemptExists(ctx context.Context, userID, challengeID string) (bool, error)
	ListAttemptsByUser(ctx context.Context, userID string) ([]*models.ChallengeAttempt, error)
	AttemptedChallengeIDs(ctx context.Context, userID string) (map[string]bool, error)
}

type challengeRepository struct {
	BaseRepository
}

func NewChallengeRepository(db bun.IDB) ChallengeRepository {
	return &challengeRepository{BaseRepository: NewBaseRepository(db)}
}

func (r *challengeRepository) Create(ctx context.Context, challenge *models.Challenge) error {
	stamp(&challenge.CreatedAt)
	stamp(&challenge.UpdatedAt)
	_, err := r.db.NewInsert().Model(challenge).Exec(ctx)
	return r.HandleErrorWithID("create", "challenge", challenge.ID, err)
}

func (r *challengeRepository) GetByID(ctx context.Context, id string) (*models.Challenge, error) {
	challenge := new(models.Challenge)
	if err := r.db.NewSelect().Model(challenge).Where("id = ?", id).Scan(ctx); err != nil {
		return nil, r.HandleErrorWithID("get", "challenge", id, err)
	}
	return challenge, nil
}

func (r *challengeRepository) Update(ctx context.Context, challenge *models.Challenge) error {
	challenge.UpdatedAt = utcNow()
	res, err := r.db.NewUpdate().
		Model(challenge).
		Column("name", "description", "tests", "keywords", "allow_refuge_defense", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return r.HandleErrorWithID("update", "challenge", challenge.ID, err)
	}
	return requireAffected(res, "challenge", challenge.ID)
}

func (r *challengeRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.NewDelete().
		Model((*models.Challenge)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return r.HandleErrorWithID("delete", "challenge", id, err)
	}
	return requireAffected(res, "challenge", id)
}

func (r *challengeRepository) List(ctx context.Context) ([]*models.Challenge, error) {
	var challenges []*models.Challenge
	if err := r.db.NewSelect().Model(&challenges).Order("name ASC").Scan(ctx); err != nil {
		return nil, r.HandleErrorWithID("list", "challenge", "*", err)
	}
	return challenges, nil
}

func (r *challengeRepository) CreateAttempt(ctx context.Context, attempt *models.ChallengeAttempt) error {
	stamp(&attempt.CreatedAt)
	_, err := r.db.NewInsert().Model(attempt).Exec(ctx)
	if err != nil {
		if IsUniqueViolation(err) {
			return &ConflictError{
				Entity: "challenge_attempt",
				Field:  "user_id, challenge_id",
				Value:  attempt.UserID + "/" + attempt.ChallengeID,
				Err:    err,
			}
		}
		return r.HandleErrorWithID("create", "challenge_attempt", attempt.ChallengeID, err)
	}
	return nil
}

func (r *challengeRepository) AttemptExists(ctx context.Context, userID, challengeID string) (bool, error) {
	exists, err := r.db.NewSelect().
		Model((*models.ChallengeAttempt)(nil)).
		Where("user_id = ?", userID).
		Where("challenge_id = ?", challengeID).
		Exists(ctx)
	if err != nil {
		return false, r.HandleErrorWithID("exists", "challenge_attempt", challengeID, err)
	}
	return exists, nil
}

func (r *challengeRepository) ListAttemptsByUser(ctx context.Context, userID string) ([]*models.ChallengeAttempt, error) {
	var attempts []*models.ChallengeAttempt
	err := r.db.NewSelect().
		Model(&attempts).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, r.HandleErrorWithID("list", "challenge_attempt", userID, err)
	}
	return attempts, nil
}

func (r *challengeRepository) AttemptedChallengeIDs(ctx context.Context, userID string) (map[string]bool, error) {
	var ids []string
	err := r.db.NewSelect().
		Model((*models.ChallengeAttempt)(nil)).
		Column("challenge_id").
		Where("user_id = ?", userID).
		Scan(ctx, &ids)
	if err != nil {
		return nil, r.HandleErrorWithID("list_ids", "challenge_attempt", userID, err)
	}
	out := make(map[string]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}
