package usecase

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"bloxmate/internal/domain"
	"bloxmate/internal/port"
	"bloxmate/internal/prompt"
)

// Directory is the organization chart lookup used by OrgChartResponder.
type Directory interface {
	Len() int
	LookupEmployee(name string) string
	DirectReports(manager string) string
	FindMentioned(text string) string
	Summary() string
	Title(name string) string
}

var (
	// "who manages Jane", "Jane's manager": the named person is the report.
	managerOfIntent = regexp.MustCompile(`(?i)(\bwho manages\b|\bmanaged by\b|\bmanager of\b|'s manager\b|\breport to\b|\bboss\b)`)
	// "who reports to John", "John's team": the named person is the manager.
	reportsIntent = regexp.MustCompile(`(?i)\b(reports to|direct reports|reportees|manages|manage|team|works? (under|for))\b`)
	// "who should I contact about X", "who knows about X": the best match only.
	contactIntent = regexp.MustCompile(`(?i)\b(?:contact|ask|talk to|reach out to|go to|knows)\s+(?:for|about|regarding)\s+(.+?)[\s?.!]*$`)
	// "who is working on X": everyone whose update mentions X.
	workingOnIntent = regexp.MustCompile(`(?i)\b(?:working|works|worked)\s+on\s+(.+?)[\s?.!]*$`)
)

const (
	maxWorkingOn      = 5
	maxUpdateSnippets = 2
)

// OrgChartResponder answers questions about employees and reporting lines.
type OrgChartResponder struct {
	dir     Directory
	updates *WeeklyUpdates
	llm     port.Completer
}

// NewOrgChartResponder answers from dir. updates may be nil when no weekly
// status report is configured.
func NewOrgChartResponder(dir Directory, updates *WeeklyUpdates, llm port.Completer) *OrgChartResponder {
	return &OrgChartResponder{dir: dir, updates: updates, llm: llm}
}

func (o *OrgChartResponder) Tag() domain.AgentTag { return domain.TagOrgChart }

func (o *OrgChartResponder) Header() string { return "👥 BloxMate Organization Assistant:" }

func (o *OrgChartResponder) Apology() string {
	return "I'm sorry, I couldn't retrieve organization information at the moment. Please try again later."
}

// Respond answers "working on" and "who to contact" questions from the
// weekly updates when they are available. Otherwise it answers from the
// directory when the query names someone in it, and lets the completion
// service read the whole chart when it does not.
func (o *OrgChartResponder) Respond(ctx context.Context, q domain.Query) (domain.Response, error) {
	if o.updates != nil {
		if m := contactIntent.FindStringSubmatch(q.Text); m != nil && o.updates.Available() {
			return domain.Response{AnswerText: o.whoToContact(m[1])}, nil
		}
		if m := workingOnIntent.FindStringSubmatch(q.Text); m != nil && o.updates.Available() {
			return domain.Response{AnswerText: o.whoIsWorkingOn(m[1])}, nil
		}
	}

	if o.dir == nil || o.dir.Len() == 0 {
		return domain.Response{}, errors.New("organization chart is empty")
	}

	if name := o.dir.FindMentioned(q.Text); name != "" {
		if !managerOfIntent.MatchString(q.Text) && reportsIntent.MatchString(q.Text) {
			return domain.Response{AnswerText: o.dir.DirectReports(name)}, nil
		}
		return domain.Response{AnswerText: o.dir.LookupEmployee(name)}, nil
	}

	user, err := prompt.Render("orgchart.user", prompt.OrgChartData{Query: q.Text, Chart: o.dir.Summary()})
	if err != nil {
		return domain.Response{}, err
	}
	answer, err := o.llm.Complete(ctx, port.CompletionRequest{
		System: prompt.System("orgchart.system"),
		User:   user,
	})
	if err != nil {
		return domain.Response{}, fmt.Errorf("failed to answer from org chart: %w", err)
	}
	return domain.Response{AnswerText: strings.TrimSpace(answer)}, nil
}

func (o *OrgChartResponder) whoIsWorkingOn(topic string) string {
	results := o.updates.Search(topic)
	if len(results) == 0 {
		return fmt.Sprintf("I couldn't find anyone working on '%s' in the weekly updates.", topic)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d people working on topics related to '%s':", len(results), topic)
	for _, u := range results[:min(maxWorkingOn, len(results))] {
		fmt.Fprintf(&sb, "\n\n📊 %s:\n", u.Name)
		if snips := snippets(u.Content, topic, maxUpdateSnippets); len(snips) > 0 {
			sb.WriteString("  Relevant work: " + strings.Join(snips, "\n  "))
		} else {
			sb.WriteString("  Completed work: " + preview(u.Completed, 150))
		}
	}
	return sb.String()
}

func (o *OrgChartResponder) whoToContact(topic string) string {
	results := o.updates.Search(topic)
	if len(results) == 0 {
		return fmt.Sprintf("I couldn't find anyone with expertise on '%s' in the weekly updates.", topic)
	}
	best := results[0]

	var sb strings.Builder
	fmt.Fprintf(&sb, "For information about '%s', you should contact:\n\n👤 %s\n\n", topic, best.Name)
	if snips := snippets(best.Content, topic, maxUpdateSnippets); len(snips) > 0 {
		sb.WriteString("Their recent work relevant to this topic includes:\n" + strings.Join(snips, "\n"))
	} else {
		sb.WriteString("Their recent work includes:\n" + preview(best.Completed, 200))
	}
	if o.dir != nil {
		if title := o.dir.Title(best.Name); title != "" {
			fmt.Fprintf(&sb, "\n\nTheir title is: %s", title)
		}
	}
	return sb.String()
}
