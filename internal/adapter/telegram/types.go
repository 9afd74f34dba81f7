package telegram

import "github.com/couchcryptid/weather-report-bot/internal/domain"

// Update is one inbound event from the Bot API long poll. Only the
// fields the bot inspects are mapped.
type Update struct {
	UpdateID int64    `json:"update_id"`
	Message  *Message `json:"message,omitempty"`
}

// Message is the message payload of an update.
type Message struct {
	MessageID int64           `json:"message_id"`
	From      *User           `json:"from,omitempty"`
	Chat      Chat            `json:"chat"`
	Text      string          `json:"text,omitempty"`
	Entities  []MessageEntity `json:"entities,omitempty"`
	Location  *Location       `json:"location,omitempty"`
}

// MessageEntity marks a span of special text inside a message; the bot
// only cares about the "bot_command" type.
type MessageEntity struct {
	Type   string `json:"type"`
	Offset int    `json:"offset"`
	Length int    `json:"length"`
}

// EntityBotCommand is the entity type Telegram assigns to a leading
// slash command.
const EntityBotCommand = "bot_command"

// Location is a device-reported geolocation attached to a message.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Chat identifies where a reply must go.
type Chat struct {
	ID int64 `json:"id"`
}

// User is the transport's view of the sender.
type User struct {
	ID           int64  `json:"id"`
	IsBot        bool   `json:"is_bot"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name,omitempty"`
	Username     string `json:"username,omitempty"`
	LanguageCode string `json:"language_code,omitempty"`
}

// ToDomain converts the transport user into the persisted identity shape.
func (u *User) ToDomain() domain.User {
	return domain.User{
		ID:           u.ID,
		IsBot:        u.IsBot,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Username:     u.Username,
		LanguageCode: u.LanguageCode,
	}
}
