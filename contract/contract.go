//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"
	"roast-battle/domain"
	"roast-battle/domain/event"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// EventSink receives battle events. Consume must never block the caller.
type EventSink interface {
	Consume(ctx context.Context, e event.Event) error
}

// ArchiveSink receives the record of a battle once it is finished.
type ArchiveSink interface {
	Archive(ctx context.Context, record domain.BattleRecord) error
}

// IRoastGenerator writes the text of an AI roast.
type IRoastGenerator interface {
	Generate(ctx context.Context, prompt domain.RoastPrompt) (string, error)
}

// ISpeechSynthesizer turns a text into audio bytes. A nil slice without error means no audio.
type ISpeechSynthesizer interface {
	Synthesize(ctx context.Context, text, voiceID string) ([]byte, error)
}
