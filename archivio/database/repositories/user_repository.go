package repositories

import (
	"context"
	"log/slog"
	"time"

	"github.com/archivio-maledetto/archivio/archivio/database/models"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type UserRepository interface {
	// EnsureUser returns the user bound to discordID, creating it on first
	// sight with the given action quota.
	EnsureUser(ctx context.Context, discordID, username string, maxActions int, now time.Time) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	// GetForUpdate reads the user under a write lock for the current
	// transaction. Quota checks take it before spending actions or followers.
	GetForUpdate(ctx context.Context, id string) (*models.User, error)
	GetByDiscordID(ctx context.Context, discordID string) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
	// IncrementUsedActions atomically adds one consumed action.
	IncrementUsedActions(ctx context.Context, id string) error
	// ResetMonthlyIfDue zeroes used_actions when now's UTC month is later than
	// the stored reset month. It reports whether a reset happened.
	ResetMonthlyIfDue(ctx context.Context, id string, now time.Time) (bool, error)
	SetMaxActions(ctx context.Context, id string, maxActions int) error
	SetRole(ctx context.Context, id, role string) error
	ResetActions(ctx context.Context, id string, now time.Time) error
}

type userRepository struct {
	BaseRepository
}

func NewUserRepository(db bun.IDB) UserRepository {
	return &userRepository{BaseRepository: NewBaseRepository(db)}
}

func (r *userRepository) EnsureUser(ctx context.Context, discordID, username string, maxActions int, now time.Time) (*models.User, error) {
	now = now.UTC()
	user := &models.User{
		ID:              uuid.NewString(),
		DiscordID:       discordID,
		Username:        username,
		Role:            models.RolePlayer,
		MaxActions:      maxActions,
		LastActionReset: now,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	res, err := r.db.NewInsert().
		Model(user).
		On("CONFLICT (discord_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return nil, r.HandleErrorWithID("ensure", "user", discordID, err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		slog.Info("User registered",
			slog.String("type", "db"),
			slog.String("discord_id", discordID),
			slog.String("user_id", user.ID))
		return user, nil
	}

	existing, err := r.GetByDiscordID(ctx, discordID)
	if err != nil {
		return nil, err
	}
	if username != "" && existing.Username != username {
		_, err = r.db.NewUpdate().
			Model((*models.User)(nil)).
			Set("username = ?", username).
			Set("updated_at = ?", now).
			Where("id = ?", existing.ID).
			Exec(ctx)
		if err != nil {
			return nil, r.HandleErrorWithID("rename", "user", existing.ID, err)
		}
		existing.Username = username
	}
	return existing, nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	user := new(models.User)
	err := r.db.NewSelect().
		Model(user).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		return nil, r.HandleErrorWithID("get", "user", id, err)
	}
	return user, nil
}

func (r *userRepository) GetForUpdate(ctx context.Context, id string) (*models.User, error) {
	user := new(models.User)
	q := r.db.NewSelect().
		Model(user).
		Where("id = ?", id)
	if err := r.forUpdate(q).Scan(ctx); err != nil {
		return nil, r.HandleErrorWithID("get_for_update", "user", id, err)
	}
	return user, nil
}

func (r *userRepository) GetByDiscordID(ctx context.Context, discordID string) (*models.User, error) {
	user := new(models.User)
	err := r.db.NewSelect().
		Model(user).
		Where("discord_id = ?", discordID).
		Scan(ctx)
	if err != nil {
		err = r.HandleErrorWithID("get", "user", discordID, err)
		if !IsNotFound(err) {
			slog.Error("Database error when getting user",
				slog.String("type", "db"),
				slog.String("operation", "GetByDiscordID"),
				slog.String("discord_id", discordID),
				slog.String("error", err.Error()))
		}
		return nil, err
	}
	return user, nil
}

func (r *userRepository) List(ctx context.Context) ([]*models.User, error) {
	var users []*models.User
	err := r.db.NewSelect().
		Model(&users).
		Order("username ASC").
		Scan(ctx)
	if err != nil {
		return nil, r.HandleErrorWithID("list", "user", "*", err)
	}
	return users, nil
}

func (r *userRepository) IncrementUsedActions(ctx context.Context, id string) error {
	res, err := r.db.NewUpdate().
		Model((*models.User)(nil)).
		Set("used_actions = used_actions + 1").
		Set("updated_at = ?", utcNow()).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return r.HandleErrorWithID("increment_actions", "user", id, err)
	}
	return requireAffected(res, "user", id)
}

func (r *userRepository) ResetMonthlyIfDue(ctx context.Context, id string, now time.Time) (bool, error) {
	now = now.UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	res, err := r.db.NewUpdate().
		Model((*models.User)(nil)).
		Set("used_actions = 0").
		Set("last_action_reset = ?", now).
		Set("updated_at = ?", now).
		Where("id = ?", id).
		Where("last_action_reset < ?", monthStart).
		Exec(ctx)
	if err != nil {
		return false, r.HandleErrorWithID("monthly_reset", "user", id, err)
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		slog.Info("Monthly actions reset",
			slog.String("type", "db"),
			slog.String("user_id", id),
			slog.String("month", now.Format("2006-01")))
	}
	return n > 0, nil
}

func (r *userRepository) SetMaxActions(ctx context.Context, id string, maxActions int) error {
	res, err := r.db.NewUpdate().
		Model((*models.User)(nil)).
		Set("max_actions = ?", maxActions).
		Set("updated_at = ?", utcNow()).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return r.HandleErrorWithID("set_max_actions", "user", id, err)
	}
	return requireAffected(res, "user", id)
}

func (r *userRepository) SetRole(ctx context.Context, id, role string) error {
	res, err := r.db.NewUpdate().
		Model((*models.User)(nil)).
		Set("role = ?", role).
		Set("updated_at = ?", utcNow()).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return r.HandleErrorWithID("set_role", "user", id, err)
	}
	return requireAffected(res, "user", id)
}

func (r *userRepository) ResetActions(ctx context.Context, id string, now time.Time) error {
	res, err := r.db.NewUpdate().
		Model((*models.User)(nil)).
		Set("used_actions = 0").
		Set("last_action_reset = ?", now.UTC()).
		Set("updated_at = ?", now.UTC()).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return r.HandleErrorWithID("reset_actions", "user", id, err)
	}
	return requireAffected(res, "user", id)
}
