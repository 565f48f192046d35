package entity

import (
	"sort"
	"time"
)

type Message struct {
	ID             string    `json:"id" firestore:"id" bson:"_id"`
	ConversationID string    `json:"conversationId" firestore:"conversationId" bson:"conversationId"`
	Sender         string    `json:"sender" firestore:"sender" bson:"sender"`
	Content        string    `json:"content" firestore:"content" bson:"content"`
	ReadBy         []string  `json:"readBy" firestore:"readBy" bson:"readBy"`
	CreatedAt      time.Time `json:"createdAt" firestore:"createdAt" bson:"createdAt"`
	Seq            int64     `json:"-" firestore:"seq" bson:"seq"`
}

func (m *Message) IsReadBy(userID string) bool {
	for _, id := range m.ReadBy {
		if id == userID {
			return true
		}
	}
	return false
}

// SortChronological orders messages by creation time, then by store sequence.
func SortChronological(messages []*Message) {
	sort.SliceStable(messages, func(i, j int) bool {
		if !messages[i].CreatedAt.Equal(messages[j].CreatedAt) {
			return messages[i].CreatedAt.Before(messages[j].CreatedAt)
		}
		return messages[i].Seq < messages[j].Seq
	})
}
