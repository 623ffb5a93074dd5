package model

import (
	"strings"
	"unicode"
)

// DefaultRules covers the built-in demo tools: internet_search, get_weather,
// get_current_time, and get_news.
func DefaultRules() []Rule {
	return []Rule{
		{
			Tool:      "internet_search",
			Keywords:  []string{"search", "look up", "find"},
			Arguments: func(text string) map[string]any { return map[string]any{"query": SearchQuery(text)} },
		},
		{
			Tool:     "get_weather",
			Keywords: []string{"weather", "forecast"},
			Arguments: func(text string) map[string]any {
				return map[string]any{"city": placeOr(text, "Atlanta")}
			},
		},
		{
			Tool:     "get_current_time",
			Keywords: []string{"time"},
			Arguments: func(text string) map[string]any {
				return map[string]any{"city": placeOr(text, "New York")}
			},
		},
		{
			Tool:     "get_news",
			Keywords: []string{"news", "headlines"},
			Arguments: func(text string) map[string]any {
				topic := wordAfter(text, "about", "on")
				if topic == "" {
					topic = "technology"
				}
				return map[string]any{"topic": topic}
			},
		},
	}
}

// SearchQuery condenses a request into a search query.
//
//	SearchQuery("Search for the weather in Austin") // "Austin weather"
func SearchQuery(text string) string {
	lower := strings.ToLower(text)
	if place := Place(text); place != "" && strings.Contains(lower, "weather") {
		return place + " weather"
	}

	query := strings.TrimSpace(text)
	for _, prefix := range []string{"search for ", "search ", "look up ", "find "} {
		if i := strings.Index(strings.ToLower(query), prefix); i >= 0 {
			query = strings.TrimSpace(query[i+len(prefix):])
			break
		}
	}
	return strings.TrimRight(query, "?.!")
}

// Place returns the capitalized words following "in", if any.
func Place(text string) string {
	words := strings.Fields(text)
	for i, w := range words {
		if !strings.EqualFold(w, "in") {
			continue
		}
		var place []string
		for _, next := range words[i+1:] {
			next = strings.TrimRight(next, "?.!,")
			if next == "" || !unicode.IsUpper([]rune(next)[0]) {
				break
			}
			place = append(place, next)
		}
		if len(place) > 0 {
			return strings.Join(place, " ")
		}
	}
	return ""
}

func placeOr(text, fallback string) string {
	if p := Place(text); p != "" {
		return p
	}
	return fallback
}

func wordAfter(text string, markers ...string) string {
	words := strings.Fields(text)
	for i, w := range words {
		for _, m := range markers {
			if strings.EqualFold(w, m) && i+1 < len(words) {
				return strings.TrimRight(words[i+1], "?.!,")
			}
		}
	}
	return ""
}
