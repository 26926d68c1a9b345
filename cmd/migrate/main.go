// Command migrate copies rows from a legacy per-agent table into the
// unified entries store. Legacy deployments kept one table per agent
// (observations, notes, project_events); the store now holds them all.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"

	_ "github.com/mattn/go-sqlite3"

	"github.com/agenthands/scribe/internal/store"
)

func main() {
	var (
		legacyPath = flag.String("legacy", "", "path to the legacy sqlite database")
		table      = flag.String("table", "", "legacy table name")
		textCol    = flag.String("text-column", "text", "column holding the record text")
		topicCol   = flag.String("topic-column", "", "optional column holding a subject/topic")
		agentName  = flag.String("agent", "", "agent to own the migrated entries")
		entryType  = flag.String("type", "note", "entry type for the migrated entries")
		dbPath     = flag.String("db", "data/entries.db", "path to the entries database")
	)
	flag.Parse()

	if *legacyPath == "" || *table == "" || *agentName == "" {
		flag.Usage()
		log.Fatal("-legacy, -table and -agent are required")
	}

	legacy, err := sql.Open("sqlite3", *legacyPath)
	if err != nil {
		log.Fatalf("open legacy database: %v", err)
	}
	defer legacy.Close()

	st, err := store.Open(*dbPath)
	if err != nil {
		log.Fatalf("open entries database: %v", err)
	}
	defer st.Close()

	query := fmt.Sprintf("SELECT %s FROM %s", *textCol, *table)
	if *topicCol != "" {
		query = fmt.Sprintf("SELECT %s, %s FROM %s", *textCol, *topicCol, *table)
	}

	rows, err := legacy.Query(query)
	if err != nil {
		log.Fatalf("read legacy table: %v", err)
	}
	defer rows.Close()

	ctx := context.Background()
	migrated, skipped := 0, 0

	for rows.Next() {
		var (
			text  string
			topic sql.NullString
		)
		if *topicCol != "" {
			err = rows.Scan(&text, &topic)
		} else {
			err = rows.Scan(&text)
		}
		if err != nil {
			log.Fatalf("scan legacy row: %v", err)
		}

		if _, err := st.AddText(ctx, *agentName, *entryType, topic.String, nil, text); err != nil {
			log.Printf("skipping row (%v): %.60q", err, text)
			skipped++
			continue
		}
		migrated++
	}
	if err := rows.Err(); err != nil {
		log.Fatalf("read legacy table: %v", err)
	}

	log.Printf("Migration complete: %d migrated, %d skipped", migrated, skipped)
}
