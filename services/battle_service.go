package services

import (
	"context"
	"fmt"
	"log/slog"
	"roast-battle/contract"
	"roast-battle/domain"
	"roast-battle/errors"
	"roast-battle/moderation"
	"roast-battle/observability"
	"roast-battle/runtime"
	"slices"
	"time"

	"github.com/abadojack/whatlanggo"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

type IBattleService interface {
	CreateBattle(req CreateBattleRequest) (domain.Battle, error)
	ListActive() []domain.Battle
	GetBattle(id string) (domain.BattleState, error)
	UpdateBattle(id string, req UpdateBattleRequest) (domain.Battle, error)
	DeleteBattle(id string) error
	CastVote(id string, req CastVoteRequest) (domain.VoteResult, error)
	Votes(id string, round *int) (VotesView, error)
	AddRoast(id string, req AddRoastRequest) (domain.Roast, error)
	Roasts(id string, round *int) ([]domain.Roast, error)
	Timer(id string, req TimerRequest) (domain.Battle, error)
	Subscribe(ctx context.Context, id string, sink contract.EventSink) (*runtime.Subscriber, error)
	Unsubscribe(s *runtime.Subscriber)
	Stats() runtime.Stats
}

// VotesView lists the votes of a battle along with the tallies they produce.
type VotesView struct {
	Votes       []domain.Vote        `json:"votes"`
	VoteTallies map[int]domain.Tally `json:"voteTallies"`
	TotalTally  domain.Tally         `json:"totalTally"`
}

type BattleServiceConfig struct {
	MaxAge time.Duration
}

// BattleService validates requests from the transports and hands them to the coordinator.
// Roast texts go through moderation and language detection before being published.
type BattleService struct {
	log         *slog.Logger
	coordinator *runtime.Coordinator
	moderator   *moderation.Moderator
	monitoring  *observability.MonitoringManager
	cfg         BattleServiceConfig
	now         func() time.Time
}

func NewBattleService(
	log *slog.Logger,
	coordinator *runtime.Coordinator,
	moderator *moderation.Moderator,
	monitoring *observability.MonitoringManager,
	cfg BattleServiceConfig,
) *BattleService {
	return &BattleService{
		log:         log,
		coordinator: coordinator,
		moderator:   moderator,
		monitoring:  monitoring,
		cfg:         cfg,
		now:         time.Now,
	}
}

func (s *BattleService) CreateBattle(req CreateBattleRequest) (domain.Battle, error) {
	if err := validateRequest(req); err != nil {
		return domain.Battle{}, err
	}
	id := req.ID
	if id == "" {
		id = uuid.NewString()
	}
	return s.coordinator.CreateBattle(id, req.Topics, req.CoinFlipResult)
}

// ListActive returns the battles voters can still join, most recent first.
func (s *BattleService) ListActive() []domain.Battle {
	now := s.now()
	active := lo.Filter(s.coordinator.ListBattles(), func(b domain.Battle, _ int) bool {
		return b.IsActive(now, s.cfg.MaxAge)
	})
	return sortByCreation(active)
}

func (s *BattleService) GetBattle(id string) (domain.BattleState, error) {
	return s.coordinator.GetBattle(id)
}

// UpdateBattle merges the request into the battle. Going live without a timer puts a full turn on the clock.
func (s *BattleService) UpdateBattle(id string, req UpdateBattleRequest) (domain.Battle, error) {
	if err := validateRequest(req); err != nil {
		return domain.Battle{}, err
	}
	update := req.toUpdate()
	if update.IsEmpty() {
		return domain.Battle{}, fmt.Errorf("%w: nothing to update", errors.ErrInvalidArgument)
	}
	return s.coordinator.UpdateBattle(id, update)
}

func (s *BattleService) DeleteBattle(id string) error {
	if !s.coordinator.DeleteBattle(id) {
		return fmt.Errorf("%w: %s", errors.ErrNotFound, id)
	}
	s.log.Info("Battle deleted", "battle_id", id)
	return nil
}

func (s *BattleService) CastVote(id string, req CastVoteRequest) (domain.VoteResult, error) {
	if err := validateRequest(req); err != nil {
		return domain.VoteResult{}, err
	}
	result, err := s.coordinator.CastVote(id, req.VoterFingerprint, req.Round, req.Choice)
	if err != nil {
		return result, err
	}
	s.monitoring.IncrVotes(result.Accepted)
	return result, nil
}

func (s *BattleService) Votes(id string, round *int) (VotesView, error) {
	if err := validateRound(round); err != nil {
		return VotesView{}, err
	}
	all, err := s.coordinator.Votes(id, nil)
	if err != nil {
		return VotesView{}, err
	}
	return VotesView{
		Votes: lo.Filter(all, func(v domain.Vote, _ int) bool {
			return round == nil || v.Round == *round
		}),
		VoteTallies: domain.RoundTallies(all),
		TotalTally:  domain.TallyVotes(all, nil),
	}, nil
}

func (s *BattleService) AddRoast(id string, req AddRoastRequest) (domain.Roast, error) {
	if err := validateRequest(req); err != nil {
		return domain.Roast{}, err
	}
	return s.publish(id, req.Speaker, req.Round, req.Text, req.AudioURL)
}

func (s *BattleService) Roasts(id string, round *int) ([]domain.Roast, error) {
	if err := validateRound(round); err != nil {
		return nil, err
	}
	return s.coordinator.Roasts(id, round)
}

func (s *BattleService) Timer(id string, req TimerRequest) (domain.Battle, error) {
	if err := validateRequest(req); err != nil {
		return domain.Battle{}, err
	}
	switch req.Action {
	case TimerStart:
		return s.coordinator.StartTimer(id)
	case TimerStop:
		return s.coordinator.StopTimer(id)
	default:
		return s.coordinator.ResetTimer(id, req.Seconds)
	}
}

func (s *BattleService) Subscribe(ctx context.Context, id string, sink contract.EventSink) (*runtime.Subscriber, error) {
	return s.coordinator.Subscribe(ctx, id, sink)
}

func (s *BattleService) Unsubscribe(sub *runtime.Subscriber) {
	s.coordinator.Unsubscribe(sub)
}

func (s *BattleService) Stats() runtime.Stats {
	return s.coordinator.Stats()
}

// publish censors the text, tags its language and appends the roast to the battle.
func (s *BattleService) publish(id string, speaker domain.Speaker, round int, text string, audioURL *string) (domain.Roast, error) {
	var censored []string
	if s.moderator != nil {
		text, censored = s.moderator.Censor(text)
		if len(censored) > 0 {
			s.log.Debug("Roast censored", "battle_id", id, "words", len(censored))
		}
	}
	roast, err := s.coordinator.AddRoast(id, domain.NewRoast{
		Speaker:       speaker,
		Round:         round,
		Text:          text,
		AudioURL:      audioURL,
		Language:      detectLanguage(text),
		CensoredWords: censored,
	})
	if err != nil {
		return roast, err
	}
	s.monitoring.IncrRoastsPublished()
	return roast, nil
}

// detectLanguage returns the ISO 639-1 code of the text, empty when the guess is unreliable.
func detectLanguage(text string) string {
	info := whatlanggo.Detect(text)
	if !info.IsReliable() {
		return ""
	}
	return info.Lang.Iso6391()
}

func validateRound(round *int) error {
	if round != nil && (*round < 1 || *round > domain.Rounds) {
		return fmt.Errorf("%w: round must be in [1,%d], got %d", errors.ErrInvalidArgument, domain.Rounds, *round)
	}
	return nil
}

func sortByCreation(battles []domain.Battle) []domain.Battle {
	slices.SortStableFunc(battles, func(a, b domain.Battle) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return battles
}
