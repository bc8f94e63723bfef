// Command download-corpus fetches top Hacker News stories and emits their
// titles and bodies as token lines, one token per line, ready for piping into
// `lexika -mode build`.
package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/cognicore/lexika/pkg/lexika/ingest"
)

// Hacker News API endpoints
const (
	apiBase       = "https://hacker-news.firebaseio.com/v0"
	topStoriesURL = apiBase + "/topstories.json"
	itemURL       = apiBase + "/item/%d.json"
)

// HNItem represents a Hacker News story or comment
type HNItem struct {
	ID    int64  `json:"id"`
	Type  string `json:"type"`
	Time  int64  `json:"time"`
	Title string `json:"title"`
	URL   string `json:"url"`
	Text  string `json:"text"`
}

var stopwords = []string{
	"a", "an", "and", "are", "as", "at", "be", "by", "for", "from", "has",
	"in", "is", "it", "its", "of", "on", "that", "the", "to", "was", "were",
	"will", "with", "you", "your",
}

func main() {
	count := 100 // Download top 100 stories
	if len(os.Args) > 1 {
		fmt.Sscanf(os.Args[1], "%d", &count)
	}
	outPath := "testdata/hn/tokens.txt"
	if len(os.Args) > 2 {
		outPath = os.Args[2]
	}

	log.Printf("Downloading top %d Hacker News stories...", count)

	storyIDs, err := getTopStories()
	if err != nil {
		log.Fatal("Failed to get top stories:", err)
	}
	if count > len(storyIDs) {
		count = len(storyIDs)
	}
	storyIDs = storyIDs[:count]

	if dir := dirOf(outPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatal("Failed to create output directory:", err)
		}
	}
	outFile, err := os.Create(outPath)
	if err != nil {
		log.Fatal("Failed to create output file:", err)
	}
	defer outFile.Close()

	out := bufio.NewWriter(outFile)
	defer out.Flush()

	tokenizer := ingest.NewTokenizer(stopwords)
	downloaded := 0
	emitted := 0

	for i, id := range storyIDs {
		item, err := getItem(id)
		if err != nil {
			log.Printf("Failed to get item %d: %v", id, err)
			continue
		}
		if item.Type != "story" || item.Title == "" {
			continue
		}

		text := item.Title
		if item.Text != "" {
			text += ". " + stripHTML(item.Text)
		}
		for _, tok := range tokenizer.Tokenize(text) {
			fmt.Fprintln(out, tok)
			emitted++
		}

		downloaded++
		if (i+1)%10 == 0 {
			log.Printf("Downloaded %d/%d stories...", downloaded, count)
		}

		// Be nice to the API
		time.Sleep(50 * time.Millisecond)
	}

	log.Printf("✓ Wrote %d tokens from %d stories to %s", emitted, downloaded, outPath)
}

func getTopStories() ([]int64, error) {
	resp, err := http.Get(topStoriesURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var ids []int64
	if err := json.NewDecoder(resp.Body).Decode(&ids); err != nil {
		return nil, err
	}
	return ids, nil
}

func getItem(id int64) (*HNItem, error) {
	url := fmt.Sprintf(itemURL, id)
	resp, err := http.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var item HNItem
	if err := json.Unmarshal(body, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func dirOf(path string) string {
	if i := strings.LastIndexByte(path, '/'); i > 0 {
		return path[:i]
	}
	return ""
}

func stripHTML(s string) string {
	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		// Fallback to string if parsing fails
		return s
	}

	var buf strings.Builder
	var extractText func(*html.Node)
	extractText = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extractText(c)
		}
	}
	extractText(doc)

	return strings.TrimSpace(buf.String())
}
