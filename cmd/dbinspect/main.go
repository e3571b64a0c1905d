// Command dbinspect prints a summary of the record store for debugging.
package main

import (
	"encoding/json/v2"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/keepstackapp/keepstack-server/internal/domain"
)

func main() {
	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = os.ExpandEnv("$HOME/Keepstack/data/store")
	}

	opts := badger.DefaultOptions(dbPath).
		WithReadOnly(true).
		WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer db.Close()

	fmt.Println("=== Store Inspection ===")
	fmt.Println()

	articleCount := 0
	withContent := 0
	withoutContent := 0
	withFileData := 0
	byType := map[domain.ArticleType]int{}
	byStatus := map[domain.ArticleStatus]int{}

	err = db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte("article:")
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek([]byte("article:")); it.ValidForPrefix([]byte("article:")); it.Next() {
			item := it.Item()
			key := string(item.Key())

			// Skip index keys
			if strings.Contains(key, ":idx:") {
				continue
			}

			err := item.Value(func(val []byte) error {
				var article domain.Article
				if err := json.Unmarshal(val, &article); err != nil {
					return err
				}

				articleCount++
				byType[article.Type]++
				byStatus[article.Status]++

				if article.Content != "" {
					withContent++
				} else {
					withoutContent++
					if withoutContent <= 3 {
						fmt.Printf("Article (NO CONTENT): %s\n", article.Title)
						fmt.Printf("  ID: %s\n", article.ID)
						fmt.Printf("  URL: %s\n", article.URL)
						fmt.Printf("  Type: %s\n", article.Type)
						fmt.Println()
					}
				}
				if article.FileData != "" {
					withFileData++
				}

				return nil
			})
			if err != nil {
				log.Printf("Error reading article %s: %v", key, err)
			}
		}
		return nil
	})

	if err != nil {
		log.Fatalf("Error iterating store: %v", err)
	}

	fmt.Println("=== Summary ===")
	fmt.Printf("Total articles: %d\n", articleCount)
	fmt.Printf("With extracted content: %d\n", withContent)
	fmt.Printf("Without content: %d\n", withoutContent)
	fmt.Printf("With original file data: %d\n", withFileData)
	for typ, count := range byType {
		fmt.Printf("Type %s: %d\n", typ, count)
	}
	for status, count := range byStatus {
		fmt.Printf("Status %s: %d\n", status, count)
	}
}
