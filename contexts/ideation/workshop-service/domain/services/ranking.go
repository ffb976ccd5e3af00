package services

import (
	"sort"

	"ideaforge/contexts/ideation/workshop-service/domain/entities"
)

// RankReport computes topic totals and orders the report in place: topics by
// total votes descending (ties by sort order), contributions by votes
// descending (ties by submission time, then id).
func RankReport(topics []entities.ReportTopic) {
	for i := range topics {
		total := 0
		for _, contribution := range topics[i].Contributions {
			total += contribution.Votes
		}
		topics[i].TotalVotes = total
		rankContributions(topics[i].Contributions)
	}
	sort.SliceStable(topics, func(i, j int) bool {
		if topics[i].TotalVotes == topics[j].TotalVotes {
			return topics[i].SortOrder < topics[j].SortOrder
		}
		return topics[i].TotalVotes > topics[j].TotalVotes
	})
}

func rankContributions(items []entities.ReportContribution) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Votes != items[j].Votes {
			return items[i].Votes > items[j].Votes
		}
		if !items[i].SubmittedAt.Equal(items[j].SubmittedAt) {
			return items[i].SubmittedAt.Before(items[j].SubmittedAt)
		}
		return items[i].ContributionID < items[j].ContributionID
	})
}
