package usecase

import (
	"sort"
	"strconv"
	"strings"

	"httparity/internal/domain"
)

// Pattern names the canonical ordering of a multi-request interaction.
type Pattern string

const (
	// PatternRedirectChain orders hops by descending countdown suffix
	// (/redir/3 before /redir/2): server logs append in arrival order but
	// the numeric suffix decreases as the chain progresses.
	PatternRedirectChain Pattern = "redirect_chain"
	// PatternLoginFlow orders by a fixed path rank (/login before /home).
	PatternLoginFlow Pattern = "login_flow"
	// PatternParallelFetch orders lexicographically by normalized URL;
	// arrival order under multiplexing is not deterministic and must not
	// be asserted.
	PatternParallelFetch Pattern = "parallel_fetch"
	// PatternArrivalOrder leaves observations as logged. Permissive
	// default for new cases; anything needing a specific order must name
	// a pattern above.
	PatternArrivalOrder Pattern = "arrival_order"
)

var loginRank = map[string]int{"/login": 0, "/home": 1}

// ResolveChain orders same-correlation-id observations into the canonical
// sequence for the given pattern. The input slice is not mutated.
func ResolveChain(p Pattern, obs []domain.Observation) []domain.Observation {
	out := make([]domain.Observation, len(obs))
	copy(out, obs)
	switch p {
	case PatternRedirectChain:
		sort.SliceStable(out, func(i, j int) bool {
			return redirHop(out[i].URL) > redirHop(out[j].URL)
		})
	case PatternLoginFlow:
		sort.SliceStable(out, func(i, j int) bool {
			return loginOrder(out[i].URL) < loginOrder(out[j].URL)
		})
	case PatternParallelFetch:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].URL < out[j].URL
		})
	}
	return out
}

// redirHop extracts the countdown suffix of /redir/<n>; -1 for other paths.
func redirHop(url string) int {
	path := strings.SplitN(url, "?", 2)[0]
	rest, ok := strings.CutPrefix(path, "/redir/")
	if !ok {
		return -1
	}
	n, err := strconv.Atoi(rest)
	if err != nil {
		return -1
	}
	return n
}

func loginOrder(url string) int {
	path := strings.SplitN(url, "?", 2)[0]
	if r, ok := loginRank[path]; ok {
		return r
	}
	return 99
}
