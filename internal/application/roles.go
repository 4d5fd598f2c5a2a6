package application

import (
	"sort"

	"github.com/frtweb/blog-backend/internal/domain/entity"
)

const (
	RoleCoach  = "Coach"
	RoleAlumni = "Alumni"
)

// roleRanks orders team roles; lower comes first.
func roleRanks(member string) map[string]int {
	return map[string]int{
		RoleCoach:          0,
		"Senior " + member: 1,
		member:             2,
		"Junior " + member: 3,
		RoleAlumni:         4,
	}
}

// SortByRole orders users by their highest ranked role. Users without a
// ranked role go last; ties keep their input order.
func SortByRole(users []entity.User, member string) {
	ranks := roleRanks(member)
	other := len(ranks)
	key := make([]int, len(users))
	for i := range users {
		key[i] = other
		for _, r := range users[i].Roles {
			if v, ok := ranks[r]; ok && v < key[i] {
				key[i] = v
			}
		}
	}
	idx := make([]int, len(users))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return key[idx[a]] < key[idx[b]] })
	sorted := make([]entity.User, len(users))
	for i, j := range idx {
		sorted[i] = users[j]
	}
	copy(users, sorted)
}
