package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"roast-battle/domain"
	"roast-battle/repositories"
	"strconv"

	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
)

// Prints the archived battles, or the archived roasts matching -q.
func main() {
	dbPath := flag.String("db", "./data/badger", "Path to badger DB")
	indexPath := flag.String("index", "./data/bluge", "Path to bluge index")
	query := flag.String("q", "", "Search roasts instead of listing battles")
	limit := flag.Int("limit", 20, "Maximum rows")
	flag.Parse()

	db, err := badger.Open(badger.DefaultOptions(*dbPath).
		WithLoggingLevel(badger.WARNING).
		WithBypassLockGuard(true))
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	writer, err := bluge.OpenWriter(bluge.DefaultConfig(*indexPath))
	if err != nil {
		log.Fatal("Error while opening Bluge: ", err)
	}
	defer writer.Close()

	repository := repositories.NewArchiveRepository(db, writer, logs.GetLoggerFromLevel(slog.LevelWarn), limit)
	table := newTable()

	if *query != "" {
		hits, err := repository.SearchRoasts(context.Background(), *query, *limit)
		if err != nil {
			log.Fatal(err)
		}
		table.SetHeader([]string{"Battle", "Round", "Speaker", "Score", "Text"})
		for _, hit := range hits {
			table.Append([]string{
				shortID(hit.BattleID),
				strconv.Itoa(hit.Round),
				string(hit.Speaker),
				fmt.Sprintf("%.2f", hit.Score),
				hit.Text,
			})
		}
		table.Render()
		return
	}

	records, _, err := repository.List(nil)
	if err != nil {
		log.Fatal(err)
	}
	table.SetHeader([]string{"Battle", "Finished", "Outcome", "Human", "AI", "Roasts", "Topics"})
	for _, record := range records {
		table.Append([]string{
			shortID(record.Battle.ID),
			record.FinishedAt.Format("2006-01-02 15:04:05"),
			outcome(record),
			strconv.Itoa(record.TotalTally.Human),
			strconv.Itoa(record.TotalTally.AI),
			strconv.Itoa(len(record.Roasts)),
			fmt.Sprint(record.Battle.Topics),
		})
	}
	table.Render()
}

func newTable() *tablewriter.Table {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	return table
}

func outcome(record domain.BattleRecord) string {
	if record.Tie {
		return "tie"
	}
	return string(lo.FromPtrOr(record.Winner, domain.Speaker("-")))
}

// The first 8 characters of an id are enough to tell battles apart.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
