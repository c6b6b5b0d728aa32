package generate

import (
	"bufio"
	"bytes"
	"embed"
	"fmt"
	"strings"
	"sync"
)

//go:embed data/*.txt
var dataFS embed.FS

// wordLists holds the read-only vocabularies the field generators draw from.
type wordLists struct {
	names    []string
	surnames []string
	people   []string
	latin    []string
	// streets holds the street types, full form first, then abbreviations.
	streets [][]string
}

var (
	wordsOnce sync.Once
	words     *wordLists
)

// loadWords parses the embedded lists once per process.
func loadWords() *wordLists {
	wordsOnce.Do(func() {
		words = &wordLists{
			names:    readLines("data/names.txt"),
			surnames: readLines("data/surnames.txt"),
			people:   readLines("data/people.txt"),
			latin:    readLines("data/latin.txt"),
		}
		for _, line := range readLines("data/address.txt") {
			var variants []string
			for _, v := range strings.Split(line, ",") {
				if v = strings.TrimSpace(v); v != "" {
					variants = append(variants, v)
				}
			}
			if len(variants) > 0 {
				words.streets = append(words.streets, variants)
			}
		}
	})
	return words
}

func readLines(name string) []string {
	data, err := dataFS.ReadFile(name)
	if err != nil {
		panic(fmt.Sprintf("generate: embedded word list %s: %v", name, err))
	}
	var out []string
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			out = append(out, line)
		}
	}
	return out
}
