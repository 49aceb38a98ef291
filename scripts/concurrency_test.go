//go:build ignore
// +build ignore

// Package main provides a manual concurrency probe for the Library API.
//
// Usage:
//
//	ACCOUNT=<user> TITLES=<t1>,<t2>,... go run ./scripts/concurrency_test.go
//
// What it does:
//  1. Fires one goroutine per title, all adding books to the SAME account
//     simultaneously (each title must resolve to a single OpenLibrary match,
//     or be sent with AUTHOR=<name> appended as "title|author").
//  2. Prints the book ids the server handed back and flags collisions.
//
// Per-account collections are held in process memory without cross-request
// synchronization, and ids are assigned as library length + 1. Under
// concurrent adds this probe is expected to surface duplicate ids or lost
// appends; it exists to demonstrate that gap, not to pass.
//
// Prerequisites:
//   - Server must be running and the account must already exist.

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"sync"
)

const defaultServerAddr = "http://localhost:8080"

type addResult struct {
	Title      string
	BookID     int
	StatusCode int
	Err        error
}

func main() {
	serverAddr := os.Getenv("SERVER_ADDR")
	if serverAddr == "" {
		serverAddr = defaultServerAddr
	}

	username := os.Getenv("ACCOUNT")
	titlesEnv := os.Getenv("TITLES")
	if username == "" || titlesEnv == "" {
		log.Fatal("ACCOUNT and TITLES environment variables are required")
	}
	titles := strings.Split(titlesEnv, ",")

	results := make([]addResult, len(titles))
	var wg sync.WaitGroup
	for i, entry := range titles {
		wg.Add(1)
		go func(i int, entry string) {
			defer wg.Done()
			results[i] = addBook(serverAddr, username, entry)
		}(i, entry)
	}
	wg.Wait()

	seen := make(map[int][]string)
	for _, res := range results {
		if res.Err != nil {
			fmt.Printf("FAIL  %-40s err=%v\n", res.Title, res.Err)
			continue
		}
		fmt.Printf("%-5d %-40s status=%d\n", res.BookID, res.Title, res.StatusCode)
		if res.StatusCode == http.StatusOK {
			seen[res.BookID] = append(seen[res.BookID], res.Title)
		}
	}

	collisions := 0
	for id, ts := range seen {
		if len(ts) > 1 {
			collisions++
			fmt.Printf("COLLISION: id %d assigned to %s\n", id, strings.Join(ts, " AND "))
		}
	}
	if collisions == 0 {
		fmt.Println("no id collisions observed this run (the race is timing-dependent)")
	}
}

func addBook(serverAddr, username, entry string) addResult {
	title, author := entry, ""
	if i := strings.IndexByte(entry, '|'); i >= 0 {
		title, author = entry[:i], entry[i+1:]
	}

	payload := map[string]string{"username": username, "title": title}
	if author != "" {
		payload["author"] = author
	}
	body, _ := json.Marshal(payload)

	resp, err := http.Post(serverAddr+"/api/add-book", "application/json", bytes.NewReader(body))
	if err != nil {
		return addResult{Title: title, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return addResult{Title: title, Err: err}
	}

	var out struct {
		Book struct {
			ID int `json:"id"`
		} `json:"book"`
	}
	_ = json.Unmarshal(raw, &out)

	return addResult{Title: title, BookID: out.Book.ID, StatusCode: resp.StatusCode}
}
