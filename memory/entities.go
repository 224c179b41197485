// Entity extraction over dialogue content.
//
// Extraction is deliberately lightweight: a fixed vocabulary of
// productivity terms matched per token through a radix trie, ranked by
// frequency and recency. No NLP, no model calls.

package memory

import (
	"sort"
	"strings"
	"time"
	"unicode"

	"maia/internal/dsa"
)

// entityVocabulary is the canonical term each token prefix maps to.
var entityVocabulary = map[string]string{
	"task":     "task",
	"goal":     "goal",
	"event":    "event",
	"meeting":  "meeting",
	"deadline": "deadline",
	"project":  "project",
	"reminder": "reminder",
	"schedule": "schedule",
	"appoint":  "appointment",
	"priorit":  "priority",
}

type entityStat struct {
	count    int
	lastSeen time.Time
}

// entityIndex tracks domain-term mentions across the dialogue.
type entityIndex struct {
	vocab *dsa.Trie[string]
	stats map[string]*entityStat
}

func newEntityIndex() *entityIndex {
	vocab := dsa.NewTrie[string]()
	for prefix, term := range entityVocabulary {
		vocab.Insert(prefix, term)
	}
	return &entityIndex{
		vocab: vocab,
		stats: make(map[string]*entityStat),
	}
}

// observe records vocabulary terms found in one message.
func (x *entityIndex) observe(content string, at time.Time) {
	for _, token := range tokenize(content) {
		_, term, ok := x.vocab.LongestPrefix(token)
		if !ok {
			continue
		}

		stat, seen := x.stats[term]
		if !seen {
			stat = &entityStat{}
			x.stats[term] = stat
		}
		stat.count++
		if at.After(stat.lastSeen) {
			stat.lastSeen = at
		}
	}
}

// top returns up to limit terms, most frequent first, most recent
// breaking ties.
func (x *entityIndex) top(limit int) []string {
	terms := make([]string, 0, len(x.stats))
	for term := range x.stats {
		terms = append(terms, term)
	}

	sort.Slice(terms, func(i, j int) bool {
		a, b := x.stats[terms[i]], x.stats[terms[j]]
		if a.count != b.count {
			return a.count > b.count
		}
		if !a.lastSeen.Equal(b.lastSeen) {
			return a.lastSeen.After(b.lastSeen)
		}
		return terms[i] < terms[j]
	})

	if len(terms) > limit {
		terms = terms[:limit]
	}
	return terms
}

// tokenize splits content into lowercase word tokens.
func tokenize(content string) []string {
	return strings.FieldsFunc(strings.ToLower(content), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
