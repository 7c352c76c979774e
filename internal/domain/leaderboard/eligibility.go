package leaderboard

import (
	"sort"
	"strings"
)

// EligibilityMode - вид предиката допуска в рейтинг.
type EligibilityMode int

const (
	// EligibleNobody - пустое множество (например, страна не определена).
	EligibleNobody EligibilityMode = iota
	// EligibleEveryone - все пользователи.
	EligibleEveryone
	// EligibleMembers - явный список пользователей (друзья и сам пользователь).
	EligibleMembers
	// EligibleCountry - пользователи из одной страны.
	EligibleCountry
)

// String возвращает имя режима для логов.
func (m EligibilityMode) String() string {
	switch m {
	case EligibleEveryone:
		return "everyone"
	case EligibleMembers:
		return "members"
	case EligibleCountry:
		return "country"
	default:
		return "nobody"
	}
}

// Eligibility - абстрактный предикат над пользователями.
// Это не материализованный список: хранилища встраивают его в свой запрос.
// Нулевое значение означает пустое множество.
type Eligibility struct {
	mode    EligibilityMode
	members []string
	set     map[string]struct{}
	country string
}

// Everyone допускает всех пользователей.
func Everyone() Eligibility {
	return Eligibility{mode: EligibleEveryone}
}

// Nobody не допускает никого.
func Nobody() Eligibility {
	return Eligibility{mode: EligibleNobody}
}

// Members допускает только перечисленных пользователей.
// Дубликаты и пустые идентификаторы отбрасываются; пустой список даёт Nobody.
func Members(ids ...string) Eligibility {
	set := make(map[string]struct{}, len(ids))
	members := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, dup := set[id]; dup {
			continue
		}
		set[id] = struct{}{}
		members = append(members, id)
	}
	if len(members) == 0 {
		return Nobody()
	}
	sort.Strings(members)
	return Eligibility{mode: EligibleMembers, members: members, set: set}
}

// NormalizeCountry приводит код страны к виду, в котором он сравнивается.
// Хранимые значения могут быть дополнены пробелами.
func NormalizeCountry(code string) string {
	return strings.TrimSpace(code)
}

// Country допускает пользователей с указанной страной.
// Пустая страна даёт Nobody: область "страна" закрывается, а не раскрывается на всех.
func Country(code string) Eligibility {
	code = NormalizeCountry(code)
	if code == "" {
		return Nobody()
	}
	return Eligibility{mode: EligibleCountry, country: code}
}

// Mode возвращает вид предиката.
func (e Eligibility) Mode() EligibilityMode {
	return e.mode
}

// Members возвращает копию списка допущенных пользователей (для EligibleMembers).
func (e Eligibility) Members() []string {
	out := make([]string, len(e.members))
	copy(out, e.members)
	return out
}

// Country возвращает страну (для EligibleCountry).
func (e Eligibility) Country() string {
	return e.country
}

// IsEmpty сообщает, что предикат заведомо никого не допускает.
func (e Eligibility) IsEmpty() bool {
	return e.mode == EligibleNobody
}

// Admits проверяет пользователя по идентификатору и стране профиля.
func (e Eligibility) Admits(userID, country string) bool {
	switch e.mode {
	case EligibleEveryone:
		return true
	case EligibleMembers:
		_, ok := e.set[userID]
		return ok
	case EligibleCountry:
		return NormalizeCountry(country) == e.country
	default:
		return false
	}
}
