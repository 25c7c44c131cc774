package chat

import (
	"time"

	"github.com/google/uuid"
)

// WelcomeText is the first bot message of every conversation.
const WelcomeText = "👋 Hello! I'm your Meta Quest Assistant. How can I help you with your VR headset today?"

// TimestampFormat is the hour:minute display format for message times.
const TimestampFormat = "15:04"

// Message is a single chat bubble. Messages live in memory only.
type Message struct {
	ID        string
	Text      string
	IsBot     bool
	IsError   bool // bot reply that carries an error response
	IsSystem  bool // command output; not part of the conversation
	Timestamp string
}

func newMessage(text string, isBot bool, now time.Time) Message {
	return Message{
		ID:        uuid.NewString(),
		Text:      text,
		IsBot:     isBot,
		Timestamp: now.Format(TimestampFormat),
	}
}

// NewUserMessage creates a message typed (or picked) by the user.
func NewUserMessage(text string, now time.Time) Message {
	return newMessage(text, false, now)
}

// NewBotMessage creates an assistant reply.
func NewBotMessage(text string, isError bool, now time.Time) Message {
	m := newMessage(text, true, now)
	m.IsError = isError
	return m
}

// NewSystemMessage creates command output shown in the transcript.
func NewSystemMessage(text string, now time.Time) Message {
	m := newMessage(text, true, now)
	m.IsSystem = true
	return m
}

// WelcomeMessage creates the greeting shown on start and after /clear.
func WelcomeMessage(now time.Time) Message {
	return NewBotMessage(WelcomeText, false, now)
}

// conversationLen counts messages that are part of the conversation.
func conversationLen(messages []Message) int {
	n := 0
	for _, m := range messages {
		if !m.IsSystem {
			n++
		}
	}
	return n
}
