package internal

import (
	"fmt"
	"time"
)

type Config struct {
	Host     string `env:"HOST,default=0.0.0.0"`
	HTTPPort int    `env:"HTTP_PORT,default=8080"`
	GRPCPort int    `env:"GRPC_PORT,default=9090"`
	LogLevel string `env:"LOG_LEVEL,default=INFO"`

	TurnDuration        int           `env:"TURN_DURATION,default=60"`
	TickInterval        time.Duration `env:"TICK_INTERVAL,default=1s"`
	TimerBroadcastEvery int           `env:"TIMER_BROADCAST_EVERY,default=5"`

	HeartbeatInterval       time.Duration `env:"HEARTBEAT_INTERVAL,default=30s"`
	SubscriberBufferSize    int           `env:"SUBSCRIBER_BUFFER_SIZE,default=64"`
	SubscriberStaleAfter    time.Duration `env:"SUBSCRIBER_STALE_AFTER,default=5m"`
	SubscriberSweepInterval time.Duration `env:"SUBSCRIBER_SWEEP_INTERVAL,default=1m"`
	SinkTimeout             time.Duration `env:"SINK_TIMEOUT,default=100ms"`
	BattleMaxAge            time.Duration `env:"BATTLE_MAX_AGE,default=1h"`
	SweepInterval           time.Duration `env:"SWEEP_INTERVAL,default=10m"`
	RestartInterval         time.Duration `env:"RESTART_INTERVAL,default=2s"`
	ReportInterval          time.Duration `env:"REPORT_INTERVAL,default=1m"`

	ArchiveEnabled    bool   `env:"ARCHIVE_ENABLED,default=true"`
	ArchiveBufferSize int    `env:"ARCHIVE_BUFFER_SIZE,default=32"`
	BadgerFilepath    string `env:"BADGER_FILEPATH,default=./data/badger"`
	BlugeFilepath     string `env:"BLUGE_FILEPATH,default=./data/bluge"`
	LimitArchive      *int   `env:"LIMIT_ARCHIVE"`
	SearchLimit       int    `env:"SEARCH_LIMIT,default=20"`
	DebugPort         int    `env:"DEBUG_PORT,default=8081"`

	ModerationEnabled bool   `env:"MODERATION_ENABLED,default=true"`
	CharReplacement   string `env:"CHARACTER_REPLACEMENT,default=*"`
	AllowedOrigin     string `env:"ALLOWED_ORIGIN,default=*"`

	HostPassphraseHash string        `env:"HOST_PASSPHRASE_HASH"`
	HostTokenSecret    string        `env:"HOST_TOKEN_SECRET"`
	HostTokenDuration  time.Duration `env:"HOST_TOKEN_DURATION,default=12h"`

	OpenAIBaseURL     string        `env:"OPENAI_BASE_URL,default=https://api.openai.com"`
	OpenAIAPIKey      string        `env:"OPENAI_API_KEY"`
	ElevenLabsBaseURL string        `env:"ELEVENLABS_BASE_URL,default=https://api.elevenlabs.io"`
	ElevenLabsAPIKey  string        `env:"ELEVENLABS_API_KEY"`
	GenerateTimeout   time.Duration `env:"GENERATE_TIMEOUT,default=15s"`
	SynthesizeTimeout time.Duration `env:"SYNTHESIZE_TIMEOUT,default=20s"`
}

// Validate checks the values the env tags cannot express.
func (c Config) Validate() error {
	switch {
	case c.TurnDuration < 1:
		return fmt.Errorf("TURN_DURATION must be positive, got %d", c.TurnDuration)
	case c.TimerBroadcastEvery < 1:
		return fmt.Errorf("TIMER_BROADCAST_EVERY must be positive, got %d", c.TimerBroadcastEvery)
	case c.SubscriberBufferSize < 1:
		return fmt.Errorf("SUBSCRIBER_BUFFER_SIZE must be positive, got %d", c.SubscriberBufferSize)
	case c.HostPassphraseHash != "" && c.HostTokenSecret == "":
		return fmt.Errorf("HOST_TOKEN_SECRET is required when HOST_PASSPHRASE_HASH is set")
	}
	return nil
}

func CharacterRune(str string) (rune, error) {
	r := []rune(str)
	if len(r) != 1 {
		return 0, fmt.Errorf(
			"CHARACTER_REPLACEMENT must be a single character, got %q",
			str,
		)
	}
	return r[0], nil
}
