package service

import (
	"fmt"
	"strings"

	"github.com/RubachokBoss/prepai/internal/models"
)

const (
	// MaxSummaryExperiences ограничивает число записей, отправляемых в модель.
	MaxSummaryExperiences = 10
	// MinSummaryBlockLength: блоки не длиннее этого значения отбрасываются.
	MinSummaryBlockLength = 10

	missingRound = "N/A"
)

// ComputeAggregate считает число записей и средний CGPA по полному набору.
func ComputeAggregate(experiences []models.Experience) models.Aggregate {
	if len(experiences) == 0 {
		return models.Aggregate{}
	}

	var total float64
	for _, e := range experiences {
		total += e.CGPA
	}

	return models.Aggregate{
		NumExperiences: len(experiences),
		AvgCGPA:        total / float64(len(experiences)),
	}
}

// BuildSummaryBlocks собирает текст раундов для самых свежих записей.
// experiences должны идти от новых к старым.
func BuildSummaryBlocks(experiences []models.Experience) []string {
	if len(experiences) > MaxSummaryExperiences {
		experiences = experiences[:MaxSummaryExperiences]
	}

	blocks := make([]string, 0, len(experiences))
	for _, e := range experiences {
		block := formatRounds(e)
		if len(block) <= MinSummaryBlockLength {
			continue
		}
		blocks = append(blocks, block)
	}

	return blocks
}

func formatRounds(e models.Experience) string {
	lines := make([]string, 0, 3)
	for i, round := range e.Rounds() {
		lines = append(lines, fmt.Sprintf("Round %d: %s", i+1, roundText(round)))
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func roundText(round string) string {
	if strings.TrimSpace(round) == "" {
		return missingRound
	}
	return round
}
