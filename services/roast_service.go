package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"roast-battle/contract"
	"roast-battle/domain"
	"roast-battle/errors"
	"roast-battle/observability"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/samber/lo"
)

const (
	fallbackModel = "fallback-ai"
	defaultVoice  = "adam"
)

type IRoastService interface {
	GenerateAIRoast(ctx context.Context, battleID string, req AIRoastRequest) (AIRoastResult, error)
	Voices() []domain.Voice
}

// AIRoastResult is the roast published for the AI along with how it was produced.
type AIRoastResult struct {
	Roast    domain.Roast `json:"roast"`
	Model    string       `json:"model"`
	Voice    string       `json:"voice"`
	HasAudio bool         `json:"hasAudio"`
}

type RoastServiceConfig struct {
	GenerateTimeout   time.Duration
	SynthesizeTimeout time.Duration
}

// RoastService writes and voices the AI side of a battle.
// The coordinator only ever receives resolved text: generation failures fall back
// to a canned roast and synthesis failures leave the roast without audio.
type RoastService struct {
	log         *slog.Logger
	battles     *BattleService
	generator   contract.IRoastGenerator
	fallback    contract.IRoastGenerator
	synthesizer contract.ISpeechSynthesizer
	monitoring  *observability.MonitoringManager
	cfg         RoastServiceConfig
}

func NewRoastService(
	log *slog.Logger,
	battles *BattleService,
	generator contract.IRoastGenerator,
	synthesizer contract.ISpeechSynthesizer,
	monitoring *observability.MonitoringManager,
	cfg RoastServiceConfig,
) *RoastService {
	fallback := NewCannedGenerator()
	if generator == nil {
		generator = fallback
	}
	if synthesizer == nil {
		synthesizer = SilentSynthesizer{}
	}
	return &RoastService{
		log:         log,
		battles:     battles,
		generator:   generator,
		fallback:    fallback,
		synthesizer: synthesizer,
		monitoring:  monitoring,
		cfg:         cfg,
	}
}

// GenerateAIRoast writes a roast on the topic of the round, voices it and publishes it on the battle.
func (s *RoastService) GenerateAIRoast(ctx context.Context, battleID string, req AIRoastRequest) (AIRoastResult, error) {
	if err := validateRequest(req); err != nil {
		return AIRoastResult{}, err
	}
	state, err := s.battles.GetBattle(battleID)
	if err != nil {
		return AIRoastResult{}, err
	}
	if !state.Battle.IsLive() {
		return AIRoastResult{}, fmt.Errorf("%w: battle %s is %s", errors.ErrInvalidState, battleID, state.Battle.Status)
	}

	round := lo.Ternary(req.Round == 0, state.Battle.CurrentRound, req.Round)
	topic := lo.Ternary(req.Topic == "", state.Battle.Topic(round), req.Topic)
	voice := lo.Ternary(req.Voice == "", defaultVoice, req.Voice)
	previous := lo.FilterMap(state.Roasts, func(r domain.Roast, _ int) (string, bool) {
		return r.Text, r.Speaker == domain.AI
	})

	text, model := s.write(ctx, battleID, domain.RoastPrompt{Topic: topic, Model: req.Model, PreviousRoasts: previous})
	audioURL := s.voice(ctx, battleID, text, voice)

	roast, err := s.battles.publish(battleID, domain.AI, round, text, audioURL)
	if err != nil {
		return AIRoastResult{}, err
	}
	return AIRoastResult{Roast: roast, Model: model, Voice: voice, HasAudio: audioURL != nil}, nil
}

func (s *RoastService) write(ctx context.Context, battleID string, prompt domain.RoastPrompt) (string, string) {
	genCtx, cancel := context.WithTimeout(ctx, s.cfg.GenerateTimeout)
	defer cancel()

	text, err := s.generator.Generate(genCtx, prompt)
	if err == nil {
		return text, prompt.Model
	}
	s.log.Warn("Roast generation failed, using a canned roast", "battle_id", battleID, "error", err)
	s.monitoring.IncrAIFallbacks()
	text, _ = s.fallback.Generate(ctx, prompt)
	return text, fallbackModel
}

// voice returns the audio of the text as a data URL, nil when there is none.
func (s *RoastService) voice(ctx context.Context, battleID, text, voiceID string) *string {
	ttsCtx, cancel := context.WithTimeout(ctx, s.cfg.SynthesizeTimeout)
	defer cancel()

	audio, err := s.synthesizer.Synthesize(ttsCtx, text, voiceID)
	if err != nil {
		s.log.Warn("Speech synthesis failed, roast has no audio", "battle_id", battleID, "error", err)
		return nil
	}
	if len(audio) == 0 {
		return nil
	}
	return lo.ToPtr(AudioDataURL(audio))
}

// AudioDataURL embeds the audio in a data URL, its media type is sniffed from the content.
func AudioDataURL(audio []byte) string {
	return "data:" + mimetype.Detect(audio).String() + ";base64," + base64.StdEncoding.EncodeToString(audio)
}

func (s *RoastService) Voices() []domain.Voice {
	return domain.DefaultVoices
}
