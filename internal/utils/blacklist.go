package utils

import (
	"bufio"
	"os"
	"strings"

	"github.com/amaumene/catalogarr/internal/models"
)

// Blacklist holds terms that exclude channel files from search results,
// e.g. samples, trailers or teaser clips.
type Blacklist struct {
	terms []string
}

// NewBlacklist builds a blacklist from terms, ignoring blanks and comments
func NewBlacklist(terms ...string) *Blacklist {
	b := &Blacklist{}
	for _, term := range terms {
		term = strings.ToLower(strings.TrimSpace(term))
		if term != "" && !strings.HasPrefix(term, "#") {
			b.terms = append(b.terms, term)
		}
	}
	return b
}

// LoadBlacklist loads blacklist terms from a file, one per line
func LoadBlacklist(path string) (*Blacklist, error) {
	// If file doesn't exist, return empty blacklist
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return NewBlacklist(), nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return NewBlacklist(lines...), nil
}

// Len returns the number of active terms
func (b *Blacklist) Len() int {
	if b == nil {
		return 0
	}
	return len(b.terms)
}

// Match checks a hit's filename and caption against the blacklist.
// Returns (isBlacklisted, matchedTerm)
func (b *Blacklist) Match(hit models.SearchHit) (bool, string) {
	if b == nil {
		return false, ""
	}
	text := strings.ToLower(hit.FileName + " " + hit.Caption)

	for _, term := range b.terms {
		if strings.Contains(text, term) {
			return true, term
		}
	}

	return false, ""
}
