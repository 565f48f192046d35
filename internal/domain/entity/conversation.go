package entity

import (
	"sort"
	"strings"
	"time"
)

type Conversation struct {
	ID            string    `json:"id" firestore:"id" bson:"_id"`
	Participants  []string  `json:"participants" firestore:"participants" bson:"participants"`
	PairKey       string    `json:"-" firestore:"pairKey,omitempty" bson:"pairKey,omitempty"`
	LastMessageID string    `json:"lastMessageId,omitempty" firestore:"lastMessageId,omitempty" bson:"lastMessageId,omitempty"`
	LastMessageAt time.Time `json:"lastMessageAt,omitempty" firestore:"lastMessageAt,omitempty" bson:"lastMessageAt,omitempty"`
	CreatedAt     time.Time `json:"createdAt" firestore:"createdAt" bson:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt" firestore:"updatedAt" bson:"updatedAt"`
}

// HasParticipant reports whether userID is listed in the participant set.
func (c *Conversation) HasParticipant(userID string) bool {
	for _, p := range c.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

// ActivityAt is the time used to order conversation lists.
func (c *Conversation) ActivityAt() time.Time {
	if !c.LastMessageAt.IsZero() {
		return c.LastMessageAt
	}
	return c.UpdatedAt
}

// PairKey returns the natural key of a two-party conversation. The order of
// the arguments does not matter.
func PairKey(a, b string) string {
	ids := []string{a, b}
	sort.Strings(ids)
	return strings.Join(ids, ":")
}

// SortByActivity orders conversations newest activity first, ties by id.
func SortByActivity(conversations []*Conversation) {
	sort.SliceStable(conversations, func(i, j int) bool {
		ai, aj := conversations[i].ActivityAt(), conversations[j].ActivityAt()
		if !ai.Equal(aj) {
			return ai.After(aj)
		}
		return conversations[i].ID < conversations[j].ID
	})
}
