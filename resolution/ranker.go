package resolution

import (
	"sort"
	"strings"
	"unicode/utf8"

	"twcompany/enrichment"
)

// Rank выбирает один 統一編號 из выдачи одного источника:
//  1. первый кандидат с названием, точно совпадающим с target;
//  2. иначе кандидат с самым коротким названием, содержащим target
//     (при равной длине побеждает более ранний);
//  3. иначе первый кандидат выдачи.
//
// Пустой 統一編號 у выбранного кандидата считается неудачей.
func Rank(target string, candidates []enrichment.Candidate) (string, bool) {
	if len(candidates) == 0 {
		return "", false
	}

	for _, candidate := range candidates {
		if candidate.Name == target {
			return nonEmpty(candidate.ID)
		}
	}

	var containing []enrichment.Candidate
	for _, candidate := range candidates {
		if strings.Contains(candidate.Name, target) {
			containing = append(containing, candidate)
		}
	}
	if len(containing) > 0 {
		sort.SliceStable(containing, func(i, j int) bool {
			return utf8.RuneCountInString(containing[i].Name) < utf8.RuneCountInString(containing[j].Name)
		})
		return nonEmpty(containing[0].ID)
	}

	return nonEmpty(candidates[0].ID)
}

func nonEmpty(id string) (string, bool) {
	return id, id != ""
}
