package main

import (
	"context"
	"fmt"
	"math/rand/v2"
	"os"
	"os/signal"
	"roast-battle/codec"
	"roast-battle/domain"
	"roast-battle/domain/event"
	"roast-battle/infrastructure/grpc/client"
	"roast-battle/services"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/google/uuid"
	"github.com/gookit/color"
	"github.com/mama165/sdk-go/logs"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Exit codes for the client application.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

// Config defines the client-side environment variables.
type Config struct {
	ServerAddress string        `env:"BATTLE_SERVER_ADDR,default=localhost:9090"`
	BattleID      string        `env:"BATTLE_ID,required=true"`
	Voters        int           `env:"CROWD_VOTERS,default=20"`
	VoteEvery     time.Duration `env:"CROWD_VOTE_EVERY,default=2s"`
	HumanBias     float64       `env:"CROWD_HUMAN_BIAS,default=0.5"`
	LogLevel      string        `env:"LOG_LEVEL,default=INFO"`
}

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Client error: %v\n", err)
	}
	os.Exit(code)
}

// run follows a battle over gRPC and plays a crowd voting on each round.
func run() (int, error) {
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	if config.Voters < 1 || config.HumanBias < 0 || config.HumanBias > 1 {
		return exitConfig, fmt.Errorf("CROWD_VOTERS must be positive and CROWD_HUMAN_BIAS within [0,1]")
	}

	log := logs.GetLoggerFromString(config.LogLevel)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := grpc.NewClient(config.ServerAddress, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return exitRuntime, fmt.Errorf("could not connect to server at %s: %w", config.ServerAddress, err)
	}
	defer func() {
		log.Info("Closing connection...")
		_ = conn.Close()
	}()

	battles := client.NewBattleClient(conn)
	stream, err := battles.Subscribe(ctx, config.BattleID)
	if err != nil {
		return exitRuntime, fmt.Errorf("failed to open stream: %w", err)
	}
	log.Info("Connected, following battle (Ctrl+C to quit)",
		"address", config.ServerAddress, "battle_id", config.BattleID, "voters", config.Voters)

	crowd := newCrowd(config)
	go crowd.vote(ctx, battles)

	for {
		e, err := stream.Recv()
		if err != nil {
			if ctx.Err() != nil {
				log.Info("Stopping client...")
				return exitOK, nil
			}
			return exitRuntime, fmt.Errorf("stream error: %w", err)
		}
		crowd.follow(e)
		fmt.Println(render(e))
	}
}

type crowd struct {
	config  Config
	voters  []string
	rounds  chan int
	voted   map[string]bool
	current int
}

func newCrowd(config Config) *crowd {
	voters := make([]string, config.Voters)
	for i := range voters {
		voters[i] = uuid.NewString()
	}
	return &crowd{config: config, voters: voters, rounds: make(chan int, 1), voted: map[string]bool{}}
}

// follow hands the live round over to the voting loop.
func (c *crowd) follow(e event.Event) {
	var round int
	switch e.Type {
	case event.InitialType, event.BattleUpdatedType:
		battle, ok := battleOf(e)
		if !ok || battle.Status != domain.StatusLive {
			return
		}
		round = battle.CurrentRound
	default:
		return
	}
	select {
	case <-c.rounds:
	default:
	}
	c.rounds <- round
}

func (c *crowd) vote(ctx context.Context, battles *client.BattleClient) {
	ticker := time.NewTicker(c.config.VoteEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case round := <-c.rounds:
			c.current = round
		case <-ticker.C:
			if c.current == 0 {
				continue
			}
			voter := c.voters[rand.IntN(len(c.voters))]
			key := fmt.Sprintf("%s:%d", voter, c.current)
			if c.voted[key] {
				continue
			}
			choice := domain.AI
			if rand.Float64() < c.config.HumanBias {
				choice = domain.Human
			}
			result, err := battles.CastVote(ctx, c.config.BattleID, services.CastVoteRequest{
				VoterFingerprint: voter, Round: c.current, Choice: choice,
			})
			if err != nil {
				fmt.Println(color.Red.Sprintf("vote failed: %v", err))
				continue
			}
			// A refused vote means this voter already voted in the round.
			c.voted[key] = true
			if !result.Accepted {
				fmt.Println(color.Gray.Sprintf("vote of %s refused for round %d", voter, c.current))
			}
		}
	}
}

func render(e event.Event) string {
	at := e.CreatedAt.Format(time.TimeOnly)
	switch e.Type {
	case event.RoastReadyType:
		return color.Cyan.Sprintf("[%s] %s %v", at, e.Type, e.Payload)
	case event.VoteUpdateType:
		return color.Green.Sprintf("[%s] %s %v", at, e.Type, e.Payload)
	case event.HeartbeatType, event.TimerUpdateType:
		return color.Gray.Sprintf("[%s] %s", at, e.Type)
	default:
		return color.Yellow.Sprintf("[%s] %s", at, e.Type)
	}
}

// battleOf reads the battle carried by initial and battle_updated payloads.
func battleOf(e event.Event) (domain.Battle, bool) {
	s, err := codec.ToStruct(e.Payload)
	if err != nil {
		return domain.Battle{}, false
	}
	var payload struct {
		Battle domain.Battle `json:"battle"`
	}
	if err := codec.FromStruct(s, &payload); err != nil {
		return domain.Battle{}, false
	}
	return payload.Battle, payload.Battle.ID != ""
}
