package domain

import "time"

// SynergyScore is stored once per unordered pair, smaller identity first.
type SynergyScore struct {
	User1ID   string    `json:"user1_id"`
	User2ID   string    `json:"user2_id"`
	Score     int       `json:"score"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CanonicalPair orders two identities lexicographically.
func CanonicalPair(a, b string) (string, string) {
	if b < a {
		return b, a
	}
	return a, b
}

// Partner returns the other side of the pair relative to userID.
func (s SynergyScore) Partner(userID string) string {
	if s.User1ID == userID {
		return s.User2ID
	}
	return s.User1ID
}
