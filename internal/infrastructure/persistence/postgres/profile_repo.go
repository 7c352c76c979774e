package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/alem-hub/focus-leaderboard/internal/domain/leaderboard"
	"github.com/alem-hub/focus-leaderboard/internal/domain/profile"
	"github.com/alem-hub/focus-leaderboard/internal/domain/shared"
)

// ProfileRepository implements leaderboard.ProfileReader over the users table.
type ProfileRepository struct {
	conn *Connection
}

var _ leaderboard.ProfileReader = (*ProfileRepository)(nil)

// NewProfileRepository creates a new ProfileRepository.
func NewProfileRepository(conn *Connection) *ProfileRepository {
	return &ProfileRepository{conn: conn}
}

const profileColumns = `
	u.id::text,
	COALESCE(u.name, ''),
	COALESCE(u.username, ''),
	COALESCE(u.email, ''),
	COALESCE(u.avatar, ''),
	u.level,
	u.xp,
	COALESCE(u.country, ''),
	COALESCE(u.streak_days, 0),
	COALESCE(u.best_streak, 0)`

func scanProfile(row pgx.Row) (*profile.UserProfile, error) {
	var p profile.UserProfile
	err := row.Scan(
		&p.ID, &p.Name, &p.Username, &p.Email, &p.Avatar,
		&p.Level, &p.XP, &p.Country, &p.StreakDays, &p.BestStreak,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// profileOrderColumns maps an order to (primary, tiebreak) columns.
func profileOrderColumns(order leaderboard.ProfileOrder) (string, string) {
	if order == leaderboard.OrderByStreak {
		return "COALESCE(u.best_streak, 0)", "COALESCE(u.streak_days, 0)"
	}
	return "u.level", "u.xp"
}

// GetProfile returns one profile or shared.ErrProfileNotFound.
func (r *ProfileRepository) GetProfile(ctx context.Context, userID string) (*profile.UserProfile, error) {
	sql := `SELECT ` + profileColumns + ` FROM users u WHERE u.id::text = $1`

	var p *profile.UserProfile
	err := r.conn.read(ctx, func(ctx context.Context, pool poolQuerier) error {
		var err error
		p, err = scanProfile(pool.QueryRow(ctx, sql, userID))
		return err
	})
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return p, nil
}

// GetProfiles returns the profiles that exist among userIDs.
func (r *ProfileRepository) GetProfiles(ctx context.Context, userIDs []string) (map[string]*profile.UserProfile, error) {
	out := make(map[string]*profile.UserProfile, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}

	sql := `SELECT ` + profileColumns + ` FROM users u WHERE u.id::text = ANY($1::text[])`
	rows, err := queryRows(ctx, r.conn, sql, []any{userIDs}, scanProfile)
	if err != nil {
		return nil, fmt.Errorf("failed to get profiles: %w", err)
	}
	for _, p := range rows {
		out[p.ID] = p
	}
	return out, nil
}

// RankProfiles returns eligible profiles in leaderboard order.
func (r *ProfileRepository) RankProfiles(ctx context.Context, q leaderboard.AggregateQuery, order leaderboard.ProfileOrder) ([]*profile.UserProfile, error) {
	if q.Eligibility.IsEmpty() {
		return []*profile.UserProfile{}, nil
	}
	sql, params := buildRankProfiles(q, order)
	rows, err := queryRows(ctx, r.conn, sql, params, scanProfile)
	if err != nil {
		return nil, fmt.Errorf("failed to rank profiles: %w", err)
	}
	return rows, nil
}

// CountProfilesAbove counts eligible profiles that strictly outrank t.
func (r *ProfileRepository) CountProfilesAbove(ctx context.Context, q leaderboard.AggregateQuery, order leaderboard.ProfileOrder, t leaderboard.Threshold) (int, error) {
	if q.Eligibility.IsEmpty() {
		return 0, nil
	}
	sql, params := buildCountProfilesAbove(q, order, t)
	n, err := r.conn.queryCount(ctx, sql, params)
	if err != nil {
		return 0, fmt.Errorf("failed to count outranking profiles: %w", err)
	}
	return n, nil
}

// DistinctCountries returns every non-empty country, sorted bytewise.
func (r *ProfileRepository) DistinctCountries(ctx context.Context) ([]string, error) {
	sql := `
		SELECT DISTINCT btrim(u.country) AS country
		FROM users u
		WHERE u.country IS NOT NULL AND btrim(u.country) <> ''
		ORDER BY country COLLATE "C"`

	countries, err := queryRows(ctx, r.conn, sql, nil, func(row pgx.Row) (string, error) {
		var c string
		err := row.Scan(&c)
		return c, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list countries: %w", err)
	}
	return countries, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// statement builders
// ──────────────────────────────────────────────────────────────────────────────

func buildRankProfiles(q leaderboard.AggregateQuery, order leaderboard.ProfileOrder) (string, []any) {
	a := &args{}
	primary, tie := profileOrderColumns(order)
	where := eligibilityClause(a, q.Eligibility, "u.id", "u.country")
	sql := fmt.Sprintf(`SELECT %s FROM users u WHERE %s %s %s`,
		profileColumns, where, orderBy(primary, tie, "u.id"), limitClause(a, q.Limit))
	return sql, a.list()
}

func buildCountProfilesAbove(q leaderboard.AggregateQuery, order leaderboard.ProfileOrder, t leaderboard.Threshold) (string, []any) {
	a := &args{}
	primary, tie := profileOrderColumns(order)
	where := and(
		eligibilityClause(a, q.Eligibility, "u.id", "u.country"),
		outrankClause(a, primary, tie, "u.id", t),
	)
	return `SELECT COUNT(*) FROM users u WHERE ` + where, a.list()
}
