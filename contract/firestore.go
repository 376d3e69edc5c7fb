package contract

// Contact is stored under users/{uid}/contacts.
type Contact struct {
	Name    string `firestore:"name" json:"name"`
	Email   string `firestore:"email" json:"email"`
	AddedAt int64  `firestore:"addedAt" json:"addedAt"`
}

// Message is stored under chats/{conversationKey}/messages and never updated.
type Message struct {
	SenderID  string `firestore:"senderId" json:"senderId"`
	Message   string `firestore:"message" json:"message"`
	Timestamp int64  `firestore:"timestamp" json:"timestamp"`
}
