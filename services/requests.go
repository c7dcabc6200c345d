package services

import (
	"fmt"
	"roast-battle/domain"
	"roast-battle/errors"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

type CreateBattleRequest struct {
	ID             string          `json:"id" validate:"omitempty,max=64"`
	Topics         []string        `json:"topics" validate:"len=3,dive,required,max=200"`
	CoinFlipResult *domain.Speaker `json:"coinFlipResult" validate:"omitempty,oneof=human ai"`
}

// UpdateBattleRequest is a partial update, nil fields are left untouched.
type UpdateBattleRequest struct {
	CurrentRound *int            `json:"currentRound" validate:"omitempty,min=1,max=3"`
	Status       *domain.Status  `json:"status" validate:"omitempty,oneof=pending live finished"`
	Turn         *domain.Speaker `json:"turn" validate:"omitempty,oneof=human ai"`
	Timer        *int            `json:"timer" validate:"omitempty,min=0,max=3600"`
}

func (r UpdateBattleRequest) toUpdate() domain.BattleUpdate {
	return domain.BattleUpdate{
		CurrentRound: r.CurrentRound,
		Status:       r.Status,
		Turn:         r.Turn,
		Timer:        r.Timer,
	}
}

type CastVoteRequest struct {
	VoterFingerprint string         `json:"voterHash" validate:"required,max=128"`
	Round            int            `json:"round" validate:"min=1,max=3"`
	Choice           domain.Speaker `json:"voteFor" validate:"required,oneof=human ai"`
}

type AddRoastRequest struct {
	Speaker  domain.Speaker `json:"speaker" validate:"required,oneof=human ai"`
	Round    int            `json:"round" validate:"min=1,max=3"`
	Text     string         `json:"text" validate:"required,max=2000"`
	AudioURL *string        `json:"audioUrl"`
}

// AIRoastRequest asks for a generated roast. Topic and round default to the battle's current ones.
type AIRoastRequest struct {
	Topic string `json:"topic" validate:"omitempty,max=200"`
	Model string `json:"model" validate:"omitempty,max=64"`
	Voice string `json:"voice" validate:"omitempty,max=64"`
	Round int    `json:"round" validate:"omitempty,min=1,max=3"`
}

type TimerAction string

const (
	TimerStart TimerAction = "start"
	TimerStop  TimerAction = "stop"
	TimerReset TimerAction = "reset"
)

type TimerRequest struct {
	Action  TimerAction `json:"action" validate:"required,oneof=start stop reset"`
	Seconds int         `json:"seconds" validate:"min=0,max=3600"`
}

func validateRequest(req any) error {
	if err := validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrInvalidArgument, err)
	}
	return nil
}
