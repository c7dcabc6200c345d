//go:generate go run go.uber.org/mock/mockgen -source=archive.go -destination=../mocks/mock_archive_repository.go -package=mocks
package repositories

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"roast-battle/codec"
	"roast-battle/domain"
	"roast-battle/errors"
	"strconv"

	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
)

const (
	battlePrefix = "battle:"
	indexPrefix  = "idx:battle:"

	fieldBattleID = "battle_id"
	fieldSpeaker  = "speaker"
	fieldRound    = "round"
	fieldText     = "text"
)

type IArchiveRepository interface {
	Store(record domain.BattleRecord) error
	Get(battleID string) (domain.BattleRecord, error)
	List(cursor *string) ([]domain.BattleRecord, *string, error)
	SearchRoasts(ctx context.Context, query string, limit int) ([]RoastHit, error)
}

// RoastHit is one archived roast matching a full text search.
type RoastHit struct {
	RoastID  string         `json:"roastId"`
	BattleID string         `json:"battleId"`
	Speaker  domain.Speaker `json:"speaker"`
	Round    int            `json:"round"`
	Text     string         `json:"text"`
	Score    float64        `json:"score"`
}

// ArchiveRepository keeps finished battles in BadgerDB and indexes their roasts in Bluge.
type ArchiveRepository struct {
	db         *badger.DB
	index      *bluge.Writer
	log        *slog.Logger
	limitItems *int
}

func NewArchiveRepository(db *badger.DB, index *bluge.Writer, log *slog.Logger, limitItems *int) *ArchiveRepository {
	return &ArchiveRepository{db: db, index: index, log: log, limitItems: limitItems}
}

// BattleKey is "battle:{finished_at_padded}:{battle_id}" so a prefix scan returns battles by end date.
// The 19-digit padding keeps the lexicographical order chronological.
func BattleKey(record domain.BattleRecord) string {
	return fmt.Sprintf("%s%019d:%s", battlePrefix, record.FinishedAt.UnixNano(), record.Battle.ID)
}

func IndexKey(battleID string) string {
	return indexPrefix + battleID
}

// Store saves the record and indexes its roasts. Archiving the same battle twice replaces the first copy.
func (a *ArchiveRepository) Store(record domain.BattleRecord) error {
	value, err := codec.Marshal(record)
	if err != nil {
		return err
	}
	key := BattleKey(record)
	err = a.db.Update(func(txn *badger.Txn) error {
		if previous, err := a.lookup(txn, record.Battle.ID); err == nil && previous != key {
			if err := txn.Delete([]byte(previous)); err != nil {
				return err
			}
		}
		if err := txn.Set([]byte(key), value); err != nil {
			return err
		}
		return txn.Set([]byte(IndexKey(record.Battle.ID)), []byte(key))
	})
	if err != nil {
		return err
	}
	return a.indexRoasts(record.Roasts)
}

func (a *ArchiveRepository) indexRoasts(roasts []domain.Roast) error {
	if len(roasts) == 0 {
		return nil
	}
	batch := bluge.NewBatch()
	for _, roast := range roasts {
		doc := bluge.NewDocument(roast.ID).
			AddField(bluge.NewKeywordField(fieldBattleID, roast.BattleID).StoreValue()).
			AddField(bluge.NewKeywordField(fieldSpeaker, string(roast.Speaker)).StoreValue()).
			AddField(bluge.NewKeywordField(fieldRound, strconv.Itoa(roast.Round)).StoreValue()).
			AddField(bluge.NewTextField(fieldText, roast.Text).StoreValue())
		batch.Update(doc.ID(), doc)
	}
	return a.index.Batch(batch)
}

func (a *ArchiveRepository) Get(battleID string) (domain.BattleRecord, error) {
	var record domain.BattleRecord
	err := a.db.View(func(txn *badger.Txn) error {
		key, err := a.lookup(txn, battleID)
		if err != nil {
			return err
		}
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(value []byte) error {
			return codec.Unmarshal(value, &record)
		})
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return domain.BattleRecord{}, fmt.Errorf("%w: no archive for %s", errors.ErrNotFound, battleID)
	}
	return record, err
}

func (a *ArchiveRepository) lookup(txn *badger.Txn, battleID string) (string, error) {
	item, err := txn.Get([]byte(IndexKey(battleID)))
	if err != nil {
		return "", err
	}
	key, err := item.ValueCopy(nil)
	return string(key), err
}

// List returns archived battles, most recently finished first.
// The returned cursor is passed back to get the next page.
func (a *ArchiveRepository) List(cursor *string) ([]domain.BattleRecord, *string, error) {
	var values [][]byte
	var lastKey string
	err := a.db.View(func(txn *badger.Txn) error {
		prefix := []byte(battlePrefix)
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		var seekKey []byte
		switch cursor {
		case nil:
			seekKey = append([]byte(battlePrefix), 0xFF)
		default:
			seekKey = append([]byte(battlePrefix), []byte(*cursor)...)
		}

		it.Seek(seekKey)
		if cursor != nil && it.ValidForPrefix(prefix) && string(it.Item().Key()[len(prefix):]) == *cursor {
			it.Next()
		}

		for ; it.ValidForPrefix(prefix); it.Next() {
			if a.limitItems != nil && len(values) == *a.limitItems {
				break
			}
			item := it.Item()
			lastKey = string(item.Key()[len(prefix):])
			value, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			values = append(values, value)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	records := make([]domain.BattleRecord, 0, len(values))
	for _, value := range values {
		var record domain.BattleRecord
		if err := codec.Unmarshal(value, &record); err != nil {
			return nil, nil, err
		}
		records = append(records, record)
	}
	return records, &lastKey, nil
}

// SearchRoasts runs a full text match on archived roast texts, best score first.
func (a *ArchiveRepository) SearchRoasts(ctx context.Context, query string, limit int) ([]RoastHit, error) {
	reader, err := a.index.Reader()
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := reader.Close(); err != nil {
			a.log.Warn("Failed to close index reader", "error", err)
		}
	}()

	request := bluge.NewTopNSearch(limit, bluge.NewMatchQuery(query).SetField(fieldText))
	matches, err := reader.Search(ctx, request)
	if err != nil {
		return nil, err
	}

	var hits []RoastHit
	match, err := matches.Next()
	for err == nil && match != nil {
		hit := RoastHit{Score: match.Score}
		visitErr := match.VisitStoredFields(func(field string, value []byte) bool {
			switch field {
			case "_id":
				hit.RoastID = string(value)
			case fieldBattleID:
				hit.BattleID = string(value)
			case fieldSpeaker:
				hit.Speaker = domain.Speaker(value)
			case fieldRound:
				hit.Round, _ = strconv.Atoi(string(value))
			case fieldText:
				hit.Text = string(value)
			}
			return true
		})
		if visitErr != nil {
			return nil, visitErr
		}
		hits = append(hits, hit)
		match, err = matches.Next()
	}
	return hits, err
}
