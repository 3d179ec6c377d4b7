package session

import (
	"github.com/mcdev12/sketchwager/internal/models"
)

// ElectOwner deterministically derives the lobby owner from the player
// set: minimum JoinedAt, ties broken by lexicographic id. Every client
// recomputes this on every player-set change and rewrites the stored
// owner on mismatch. Two clients may both write the correction in the
// same instant; because both compute the same deterministic function,
// last-writer-wins still converges on the correct value.
//
// Returns false when the player set is empty, in which case the stored
// owner is left unset.
func ElectOwner(players map[models.PlayerID]models.Player) (models.PlayerID, bool) {
	var owner models.PlayerID
	found := false
	for id, p := range players {
		if !found {
			owner = id
			found = true
			continue
		}
		cur := players[owner]
		if p.JoinedAt.Before(cur.JoinedAt) || (p.JoinedAt.Equal(cur.JoinedAt) && id < owner) {
			owner = id
		}
	}
	return owner, found
}

// HealOwner rewrites the session's owner if it disagrees with the elected
// one, bumping the ownership epoch. Returns true when a correction was
// applied and the session needs to be written back.
func HealOwner(sess *models.GameSession, players map[models.PlayerID]models.Player) bool {
	owner, ok := ElectOwner(players)
	if !ok || sess.LobbyOwner == owner {
		return false
	}
	sess.LobbyOwner = owner
	sess.OwnerEpoch++
	return true
}
