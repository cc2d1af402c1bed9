// Package ministrypolicy provides the ministerial hierarchy rules.
//
// Eligibility rules:
//   - Pastor of a rede: PRESIDENT_PASTOR or PASTOR
//   - Discipulador: the above plus DISCIPULADOR
//   - Leader of a célula: the above plus LEADER
//   - Vice-leader: the above plus LEADER_IN_TRAINING
//
// The four predicates form a strict nesting, enforced by comparing a
// single numeric rank per ministry type. A member with no ministry
// position ranks below every position.
package ministrypolicy

import (
	"github.com/Pelezi/videira-caruaru-api/internal/domain/models"
)

// LeadershipRole names a slot in the discipleship hierarchy that a
// member can be appointed to.
type LeadershipRole string

const (
	RolePastor       LeadershipRole = "pastor"
	RoleDiscipulador LeadershipRole = "discipulador"
	RoleLeader       LeadershipRole = "leader"
	RoleViceLeader   LeadershipRole = "vice_leader"
)

// rank is the hierarchy position of each ministry type. Lower rank
// means higher authority, consistent with Ministry.Priority.
var rank = map[models.MinistryType]int{
	models.MinistryPresidentPastor:  0,
	models.MinistryPastor:           1,
	models.MinistryDiscipulador:     2,
	models.MinistryLeader:           3,
	models.MinistryLeaderInTraining: 4,
	models.MinistryMember:           5,
	models.MinistryRegularAttendee:  6,
	models.MinistryVisitor:          7,
}

// rankNone sits below every known type; unknown types get it too.
const rankNone = 100

func rankOf(t models.MinistryType) int {
	if r, ok := rank[t]; ok {
		return r
	}
	return rankNone
}

// minimumRank is the least senior rank eligible for each role.
var minimumRank = map[LeadershipRole]int{
	RolePastor:       rank[models.MinistryPastor],
	RoleDiscipulador: rank[models.MinistryDiscipulador],
	RoleLeader:       rank[models.MinistryLeader],
	RoleViceLeader:   rank[models.MinistryLeaderInTraining],
}

// Eligible reports whether a member holding ministry type t can be
// appointed to the given role.
func Eligible(role LeadershipRole, t models.MinistryType) bool {
	min, ok := minimumRank[role]
	if !ok {
		return false
	}
	return rankOf(t) <= min
}

// CanBePastor reports whether t can pastor a rede.
func CanBePastor(t models.MinistryType) bool { return Eligible(RolePastor, t) }

// CanBeDiscipulador reports whether t can lead a discipulado.
func CanBeDiscipulador(t models.MinistryType) bool { return Eligible(RoleDiscipulador, t) }

// CanBeLeader reports whether t can lead a célula.
func CanBeLeader(t models.MinistryType) bool { return Eligible(RoleLeader, t) }

// CanBeViceLeader reports whether t can vice-lead a célula.
func CanBeViceLeader(t models.MinistryType) bool { return Eligible(RoleViceLeader, t) }

// MinimumTypeFor returns the least senior ministry type eligible for
// the role. It is the inverse of the eligibility predicates and is
// used to auto-promote members appointed into a slot their current
// type does not cover.
func MinimumTypeFor(role LeadershipRole) (models.MinistryType, bool) {
	switch role {
	case RolePastor:
		return models.MinistryPastor, true
	case RoleDiscipulador:
		return models.MinistryDiscipulador, true
	case RoleLeader:
		return models.MinistryLeader, true
	case RoleViceLeader:
		return models.MinistryLeaderInTraining, true
	default:
		return "", false
	}
}

var labels = map[models.MinistryType]string{
	models.MinistryPresidentPastor:  "Pastor Presidente",
	models.MinistryPastor:           "Pastor",
	models.MinistryDiscipulador:     "Discipulador",
	models.MinistryLeader:           "Líder",
	models.MinistryLeaderInTraining: "Líder em Treinamento",
	models.MinistryMember:           "Membro",
	models.MinistryRegularAttendee:  "Frequentador",
	models.MinistryVisitor:          "Visitante",
}

// Label returns the display text for a ministry type. Members with no
// position (or an unknown type) display as "Membro".
func Label(t models.MinistryType) string {
	if l, ok := labels[t]; ok {
		return l
	}
	return "Membro"
}

// Assigner carries the authority of the member performing a ministry
// assignment. Type is empty when the assigner holds no position.
type Assigner struct {
	IsAdmin  bool
	Type     models.MinistryType
	Priority int
}

// CanAssign reports whether the assigner may grant a ministry position
// with the given priority. Admins and pastor-tier assigners bypass the
// priority comparison; everyone else may only assign positions of
// strictly lower authority than their own, and an assigner with no
// position may assign nothing.
func CanAssign(a Assigner, targetPriority int) bool {
	if a.IsAdmin || CanBePastor(a.Type) {
		return true
	}
	if a.Type == "" {
		return false
	}
	return targetPriority > a.Priority
}
