// Package export renders compiled workshop reports for download.
package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"ideaforge/contexts/ideation/workshop-service/domain/entities"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

type Format string

const (
	FormatJSON     Format = "json"
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatCSV      Format = "csv"
)

// ErrUnsupportedFormat is returned for unknown format labels.
var ErrUnsupportedFormat = errors.New("unsupported report format")

// ParseFormat accepts the labels above plus the aliases md and txt. An empty
// label selects JSON.
func ParseFormat(raw string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "json":
		return FormatJSON, nil
	case "text", "txt":
		return FormatText, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "csv":
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, raw)
	}
}

// ContentType returns the HTTP media type of a rendered report.
func (f Format) ContentType() string {
	switch f {
	case FormatText:
		return "text/plain; charset=utf-8"
	case FormatMarkdown:
		return "text/markdown; charset=utf-8"
	case FormatCSV:
		return "text/csv; charset=utf-8"
	default:
		return "application/json"
	}
}

// FileExtension is used for Content-Disposition filenames.
func (f Format) FileExtension() string {
	switch f {
	case FormatText:
		return "txt"
	case FormatMarkdown:
		return "md"
	default:
		return string(f)
	}
}

// Render writes report in the requested format. Row order follows the
// report's ranking.
func Render(report entities.Report, format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		return json.MarshalIndent(toDocument(report), "", "  ")
	case FormatText:
		return []byte(renderHeading(report) + "\n" + buildTable(report, true).Render() + "\n"), nil
	case FormatMarkdown:
		return []byte("# " + report.SessionName + "\n\n" + renderSummary(report) + "\n\n" + buildTable(report, false).RenderMarkdown() + "\n"), nil
	case FormatCSV:
		return []byte(buildTable(report, false).RenderCSV() + "\n"), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

func renderHeading(report entities.Report) string {
	return report.SessionName + "\n" + renderSummary(report)
}

func renderSummary(report entities.Report) string {
	return fmt.Sprintf("State: %s, generated %s", report.State, report.GeneratedAt.UTC().Format(time.RFC3339))
}

// buildTable lays the report out one row per contribution. The terminal
// layout separates topics and wraps long text; exports keep raw cells.
func buildTable(report entities.Report, terminal bool) table.Writer {
	w := table.NewWriter()
	w.SetStyle(table.StyleLight)
	w.AppendHeader(table.Row{
		"Rank", "Domain", "Topic", "Topic Votes",
		"Contributor", "Votes", "Current Status", "Minor Impact", "Disruption", "Reimagination",
	})
	if terminal {
		w.SetColumnConfigs([]table.ColumnConfig{
			{Number: 1, Align: text.AlignRight},
			{Number: 4, Align: text.AlignRight},
			{Number: 6, Align: text.AlignRight},
			{Number: 7, WidthMax: 40},
			{Number: 8, WidthMax: 40},
			{Number: 9, WidthMax: 40},
			{Number: 10, WidthMax: 40},
		})
	}

	for i, topic := range report.Topics {
		if terminal && i > 0 {
			w.AppendSeparator()
		}
		if len(topic.Contributions) == 0 {
			w.AppendRow(table.Row{i + 1, topic.Domain, topic.Name, topic.TotalVotes, "", "", "", "", "", ""})
			continue
		}
		for _, contribution := range topic.Contributions {
			w.AppendRow(table.Row{
				i + 1,
				topic.Domain,
				topic.Name,
				topic.TotalVotes,
				contribution.ContributorName,
				contribution.Votes,
				contribution.CurrentStatus,
				contribution.MinorImpact,
				contribution.Disruption,
				contribution.Reimagination,
			})
		}
	}
	return w
}

type document struct {
	SessionID   string          `json:"session_id"`
	SessionName string          `json:"session_name"`
	State       string          `json:"state"`
	GeneratedAt time.Time       `json:"generated_at"`
	Topics      []topicDocument `json:"topics"`
}

type topicDocument struct {
	Domain        string                 `json:"domain"`
	Name          string                 `json:"name"`
	TotalVotes    int                    `json:"total_votes"`
	Contributions []contributionDocument `json:"contributions"`
}

type contributionDocument struct {
	ContributionID  string    `json:"contribution_id"`
	ContributorName string    `json:"contributor_name"`
	CurrentStatus   string    `json:"current_status"`
	MinorImpact     string    `json:"minor_impact"`
	Disruption      string    `json:"disruption"`
	Reimagination   string    `json:"reimagination"`
	Votes           int       `json:"votes"`
	SubmittedAt     time.Time `json:"submitted_at"`
}

func toDocument(report entities.Report) document {
	topics := make([]topicDocument, 0, len(report.Topics))
	for _, topic := range report.Topics {
		contributions := make([]contributionDocument, 0, len(topic.Contributions))
		for _, contribution := range topic.Contributions {
			contributions = append(contributions, contributionDocument{
				ContributionID:  contribution.ContributionID,
				ContributorName: contribution.ContributorName,
				CurrentStatus:   contribution.CurrentStatus,
				MinorImpact:     contribution.MinorImpact,
				Disruption:      contribution.Disruption,
				Reimagination:   contribution.Reimagination,
				Votes:           contribution.Votes,
				SubmittedAt:     contribution.SubmittedAt.UTC(),
			})
		}
		topics = append(topics, topicDocument{
			Domain:        topic.Domain,
			Name:          topic.Name,
			TotalVotes:    topic.TotalVotes,
			Contributions: contributions,
		})
	}
	return document{
		SessionID:   report.SessionID,
		SessionName: report.SessionName,
		State:       string(report.State),
		GeneratedAt: report.GeneratedAt.UTC(),
		Topics:      topics,
	}
}
