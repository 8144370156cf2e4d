// Command generate writes sample data files for trying out the CLI: an
// events parquet file, a day-partitioned parquet set, a people CSV and a
// small SQLite database.
//
// Run it from the testdata directory:
//
//	go run generate.go
package main

import (
	dbsql "database/sql"
	"log"
	"os"

	"github.com/parquet-go/parquet-go"
	_ "modernc.org/sqlite"
)

type Event struct {
	ID    int64   `parquet:"id"`
	Host  string  `parquet:"host"`
	Level string  `parquet:"level"`
	Load  float64 `parquet:"load"`
}

func main() {
	writeParquet("events.parquet", []Event{
		{ID: 1, Host: "web1", Level: "info", Load: 0.42},
		{ID: 2, Host: "web2", Level: "error", Load: 1.87},
		{ID: 3, Host: "db1", Level: "warn", Load: 3.10},
		{ID: 4, Host: "web1", Level: "error", Load: 2.05},
		{ID: 5, Host: "cache1", Level: "info", Load: 0.11},
	})

	// A two-day partition set for the parquet_set examples.
	writeParquet("day-2026-08-01.parquet", []Event{
		{ID: 10, Host: "web1", Level: "info", Load: 0.50},
		{ID: 11, Host: "web2", Level: "error", Load: 1.25},
	})
	writeParquet("day-2026-08-02.parquet", []Event{
		{ID: 12, Host: "web1", Level: "warn", Load: 0.90},
		{ID: 13, Host: "db1", Level: "info", Load: 2.75},
	})

	writeCSV("people.csv")
	writeSQLite("app.db")

	log.Println("Generated events.parquet, day-*.parquet, people.csv, app.db")
}

func writeParquet(name string, events []Event) {
	f, err := os.Create(name)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = f.Close() }()

	w := parquet.NewGenericWriter[Event](f)
	if _, err := w.Write(events); err != nil {
		log.Fatal(err)
	}
	if err := w.Close(); err != nil {
		log.Fatal(err)
	}
}

func writeCSV(name string) {
	content := "name,age,city\n" +
		"alice,30,amsterdam\n" +
		"bob,25,berlin\n" +
		"carol,41,lisbon\n" +
		"dave,19,\n"
	if err := os.WriteFile(name, []byte(content), 0o644); err != nil {
		log.Fatal(err)
	}
}

func writeSQLite(name string) {
	_ = os.Remove(name)
	conn, err := dbsql.Open("sqlite", name)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = conn.Close() }()

	if _, err := conn.Exec(`CREATE TABLE orders (id INTEGER PRIMARY KEY, item TEXT, qty INTEGER, price REAL)`); err != nil {
		log.Fatal(err)
	}
	orders := []struct {
		item  string
		qty   int
		price float64
	}{
		{"keyboard", 2, 49.90},
		{"monitor", 1, 219.00},
		{"cable", 5, 3.25},
	}
	for _, o := range orders {
		if _, err := conn.Exec(`INSERT INTO orders (item, qty, price) VALUES (?, ?, ?)`, o.item, o.qty, o.price); err != nil {
			log.Fatal(err)
		}
	}
}
