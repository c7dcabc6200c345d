package domain

import "time"

// Roast is an append-only line delivered by one speaker during a round.
type Roast struct {
	ID            string    `json:"id"`
	BattleID      string    `json:"battleId"`
	Speaker       Speaker   `json:"speaker"`
	Round         int       `json:"round"`
	Text          string    `json:"text"`
	AudioURL      *string   `json:"audioUrl"`
	Language      string    `json:"language,omitempty"`
	CensoredWords []string  `json:"censoredWords,omitempty"`
	CreatedAt     time.Time `json:"timestamp"`
}

// NewRoast is the roast content handed to the coordinator once its text is resolved.
type NewRoast struct {
	Speaker       Speaker
	Round         int
	Text          string
	AudioURL      *string
	Language      string
	CensoredWords []string
}

type Voice struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// DefaultVoices is served when no speech provider catalog is available.
var DefaultVoices = []Voice{
	{ID: "adam", Name: "Adam", Description: "Deep, authoritative"},
	{ID: "antoni", Name: "Antoni", Description: "Well-rounded"},
	{ID: "arnold", Name: "Arnold", Description: "Crisp, dynamic"},
	{ID: "bella", Name: "Bella", Description: "Soft, pleasant"},
	{ID: "domi", Name: "Domi", Description: "Strong, confident"},
	{ID: "elli", Name: "Elli", Description: "Emotional, expressive"},
	{ID: "josh", Name: "Josh", Description: "Warm, friendly"},
	{ID: "rachel", Name: "Rachel", Description: "Calm, professional"},
	{ID: "sam", Name: "Sam", Description: "Energetic, enthusiastic"},
}

// RoastPrompt is what a generator needs to write a roast.
type RoastPrompt struct {
	Topic          string
	Model          string
	PreviousRoasts []string
}
