// Package catalog reads quest definitions from the JSON catalog document.
//
// The document has the shape
//
//	{"quests": {"<id>": {"title": "...", "objectives": ["..."], "release_date": "YYYY-MM-DD",
//	                     "rewards": {"gold": 10, "items": ["..."]}}}}
//
// Every failure is classified with one of the package sentinels so callers can
// log it and carry on with an empty catalog.
package catalog

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sort"
	"time"

	"daily_quest/internal/model"

	"github.com/goccy/go-json"
)

var (
	ErrNotFound     = errors.New("catalog file not found")
	ErrMalformed    = errors.New("catalog is not valid json")
	ErrMissingField = errors.New("catalog entry is missing a required field")
	ErrDecode       = errors.New("failed to decode catalog")
)

type document struct {
	Quests map[string]*entry `json:"quests"`
}

type entry struct {
	Title       *string   `json:"title"`
	Objectives  *[]string `json:"objectives"`
	ReleaseDate *string   `json:"release_date"`
	StoryOrder  *int      `json:"story_order"`
	Rewards     *rewards  `json:"rewards"`
}

type rewards struct {
	Gold  int      `json:"gold"`
	Items []string `json:"items"`
}

// Load reads and parses the catalog at path.
func Load(path string) ([]model.Quest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return Parse(data)
}

func Decode(r io.Reader) ([]model.Quest, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return Parse(data)
}

// Parse converts a catalog document into quests ordered by release date and id.
func Parse(data []byte) ([]model.Quest, error) {
	if !json.Valid(data) {
		return nil, ErrMalformed
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if doc.Quests == nil {
		return nil, fmt.Errorf("%w: quests", ErrMissingField)
	}

	quests := make([]model.Quest, 0, len(doc.Quests))
	for id, e := range doc.Quests {
		q, err := e.toQuest(id)
		if err != nil {
			return nil, err
		}
		quests = append(quests, q)
	}

	sort.Slice(quests, func(i, j int) bool {
		if quests[i].ReleaseDate != quests[j].ReleaseDate {
			return quests[i].ReleaseDate < quests[j].ReleaseDate
		}
		return quests[i].ID < quests[j].ID
	})

	return quests, nil
}

func (e *entry) toQuest(id string) (model.Quest, error) {
	if e == nil {
		return model.Quest{}, fmt.Errorf("%w: quest %q is null", ErrDecode, id)
	}
	switch {
	case e.Title == nil:
		return model.Quest{}, fmt.Errorf("%w: quest %q: title", ErrMissingField, id)
	case e.Objectives == nil:
		return model.Quest{}, fmt.Errorf("%w: quest %q: objectives", ErrMissingField, id)
	case e.ReleaseDate == nil:
		return model.Quest{}, fmt.Errorf("%w: quest %q: release_date", ErrMissingField, id)
	}

	if _, err := time.Parse(model.DateLayout, *e.ReleaseDate); err != nil {
		return model.Quest{}, fmt.Errorf("%w: quest %q: release_date %q", ErrDecode, id, *e.ReleaseDate)
	}

	q := model.Quest{
		ID:          id,
		Title:       *e.Title,
		Objectives:  append([]string{}, *e.Objectives...),
		ReleaseDate: *e.ReleaseDate,
		StoryOrder:  e.StoryOrder,
		Reward:      model.Reward{Items: []string{}},
	}
	if e.Rewards != nil {
		if e.Rewards.Gold < 0 {
			return model.Quest{}, fmt.Errorf("%w: quest %q: negative rewards.gold %d", ErrDecode, id, e.Rewards.Gold)
		}
		q.Reward.Gold = e.Rewards.Gold
		if e.Rewards.Items != nil {
			q.Reward.Items = append(q.Reward.Items, e.Rewards.Items...)
		}
	}

	return q, nil
}
