package query

import (
	"context"
	"errors"

	"github.com/alem-hub/focus-leaderboard/internal/domain/leaderboard"
	"github.com/alem-hub/focus-leaderboard/internal/domain/profile"
	"github.com/alem-hub/focus-leaderboard/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// SCOPE RESOLVER
// Превращает (caller, scope, country) в предикат допуска.
// ══════════════════════════════════════════════════════════════════════════════

// ResolvedScope - результат разрешения области видимости.
type ResolvedScope struct {
	// Eligibility - предикат допуска для агрегации и подсчёта.
	Eligibility leaderboard.Eligibility

	// Country - разрешённая страна (только для scope=country).
	Country string

	// Caller - профиль вызывающего пользователя; nil, если профиля нет.
	Caller *profile.UserProfile
}

// CallerEligible сообщает, входит ли сам вызывающий в допущенное множество.
func (r ResolvedScope) CallerEligible(callerID string) bool {
	country := ""
	if r.Caller != nil {
		country = r.Caller.Country
	}
	return r.Eligibility.Admits(callerID, country)
}

// ScopeResolver разрешает область видимости запроса.
type ScopeResolver struct {
	profiles    leaderboard.ProfileReader
	friendships leaderboard.FriendshipReader
}

// NewScopeResolver создаёт резолвер.
func NewScopeResolver(profiles leaderboard.ProfileReader, friendships leaderboard.FriendshipReader) *ScopeResolver {
	return &ScopeResolver{profiles: profiles, friendships: friendships}
}

// Resolve строит предикат допуска.
//
//   - global: все пользователи;
//   - friends: принятые друзья и сам вызывающий (даже без единой связи);
//   - country: явная страна, иначе страна из профиля; пустая страна - пустое множество.
func (r *ScopeResolver) Resolve(ctx context.Context, callerID string, scope leaderboard.Scope, country string) (ResolvedScope, error) {
	caller, err := r.loadCaller(ctx, callerID)
	if err != nil {
		return ResolvedScope{}, err
	}
	resolved := ResolvedScope{Caller: caller}

	switch scope {
	case leaderboard.ScopeGlobal:
		resolved.Eligibility = leaderboard.Everyone()

	case leaderboard.ScopeFriends:
		friendIDs, err := r.friendships.AcceptedFriendIDs(ctx, callerID)
		if err != nil {
			return ResolvedScope{}, shared.StoreFailure("leaderboard", "ResolveScope", err)
		}
		resolved.Eligibility = leaderboard.Members(append(friendIDs, callerID)...)

	case leaderboard.ScopeCountry:
		target := leaderboard.NormalizeCountry(country)
		if target == "" && caller.HasCountry() {
			target = leaderboard.NormalizeCountry(caller.Country)
		}
		resolved.Country = target
		resolved.Eligibility = leaderboard.Country(target)

	default:
		return ResolvedScope{}, shared.ErrUnknownScope.WithValue(string(scope))
	}

	return resolved, nil
}

// loadCaller читает профиль вызывающего. Отсутствие профиля - не ошибка.
func (r *ScopeResolver) loadCaller(ctx context.Context, callerID string) (*profile.UserProfile, error) {
	p, err := r.profiles.GetProfile(ctx, callerID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		return nil, shared.StoreFailure("leaderboard", "ResolveScope", err)
	}
	return p, nil
}
