// internal/stats/stats.go
//
// Per-player results across completed games.
// Each non-blank name field counts as one player entry, so a name used in two
// slots of the same game is counted twice. Unfinished games are ignored.

package stats

import (
	"context"
	"sort"
	"strings"

	"github.com/robalobadob/pointbattle/internal/game"
)

// PlayerRow is one line of the player table.
type PlayerRow struct {
	Name   string `json:"name"`
	Games  int    `json:"games"`
	Wins   int    `json:"wins"`
	Losses int    `json:"losses"`
	Ties   int    `json:"ties"`
	Points int    `json:"points"`
}

// GameLister is the part of the store stats needs.
type GameLister interface {
	ListGames(ctx context.Context) ([]*game.Game, error)
}

// Players loads every game and aggregates the completed ones.
func Players(ctx context.Context, st GameLister) ([]PlayerRow, error) {
	games, err := st.ListGames(ctx)
	if err != nil {
		return nil, err
	}
	return Aggregate(games), nil
}

// Aggregate builds the player table sorted by wins desc, then name.
func Aggregate(games []*game.Game) []PlayerRow {
	rows := map[string]*PlayerRow{}
	add := func(name string, outcome game.Outcome, side game.Outcome, points int) {
		name = strings.TrimSpace(name)
		if name == "" {
			return
		}
		r, ok := rows[name]
		if !ok {
			r = &PlayerRow{Name: name}
			rows[name] = r
		}
		r.Games++
		r.Points += points
		switch outcome {
		case game.OutcomeTie:
			r.Ties++
		case side:
			r.Wins++
		default:
			r.Losses++
		}
	}

	for _, g := range games {
		outcome := g.Outcome()
		if outcome == game.OutcomeInProgress {
			continue
		}
		a, b := g.GroupATotal(), g.GroupBTotal()
		for _, n := range []string{g.GroupA, g.GroupAMember2} {
			add(n, outcome, game.OutcomeGroupA, a)
		}
		for _, n := range []string{g.GroupB, g.GroupBMember2} {
			add(n, outcome, game.OutcomeGroupB, b)
		}
	}

	out := make([]PlayerRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Wins != out[j].Wins {
			return out[i].Wins > out[j].Wins
		}
		return out[i].Name < out[j].Name
	})
	return out
}
