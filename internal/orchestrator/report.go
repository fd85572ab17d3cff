package orchestrator

import (
	"strings"

	"github.com/aristath/careercrew/internal/scheduler"
)

// Status summarises how a report was produced.
type Status string

const (
	StatusComplete  Status = "complete"  // every task has provider output
	StatusDegraded  Status = "degraded"  // at least one placeholder
	StatusEmergency Status = "emergency" // static last-resort document
)

// Path records which execution path produced a report.
type Path string

const (
	PathBatch      Path = "batch"
	PathIndividual Path = "individual"
	PathEmergency  Path = "emergency"
)

// ReportHeader opens every assembled report.
const ReportHeader = `# 🎯 AI Career Advisor Report
*Generated with robust error handling and multiple AI providers*

---

`

// PlainFooter closes a report where every task produced real output.
const PlainFooter = `

---

*Report generated by the AI Career Advisor.*
`

// DegradedNotice is part of the footer whenever a placeholder was used.
const DegradedNotice = `## 🛡️ System Notice
This report was generated using our robust AI system with automatic fallback mechanisms.
Some sections may use cached data due to high system demand, ensuring you always receive valuable guidance.

**For questions or a complete reanalysis, please contact our support team.**`

// TaskResult is the outcome of one task. Immutable once created.
type TaskResult struct {
	TaskID      string
	Kind        scheduler.Kind
	Name        string
	Output      string
	Placeholder bool
	Provider    string // provider that produced Output, empty for placeholders
}

// Report is the final document of one run.
type Report struct {
	RunID   string
	Text    string
	Status  Status
	Path    Path
	Results []TaskResult
	// Err is the failure that forced the emergency document, if any.
	Err error
}

// Degraded reports whether the report lacks some provider output.
func (r *Report) Degraded() bool { return r.Status != StatusComplete }

// Placeholders counts results that used fallback content.
func (r *Report) Placeholders() int {
	n := 0
	for _, res := range r.Results {
		if res.Placeholder {
			n++
		}
	}
	return n
}

// assemble joins results in order between the header and footer.
func assemble(results []TaskResult) (string, bool) {
	parts := make([]string, 0, len(results))
	degraded := false
	for _, r := range results {
		if r.Placeholder {
			degraded = true
		}
		if r.Output != "" {
			parts = append(parts, r.Output)
		}
	}

	var b strings.Builder
	b.WriteString(ReportHeader)
	b.WriteString(strings.Join(parts, "\n\n"))
	if degraded {
		b.WriteString("\n\n---\n\n")
		b.WriteString(DegradedNotice)
		b.WriteString("\n")
	} else {
		b.WriteString(PlainFooter)
	}
	return b.String(), degraded
}

// EmergencyReport is the static guidance returned when nothing else could
// run. It quotes the raw input back to the user.
func EmergencyReport(userInfo string) string {
	if userInfo == "" {
		userInfo = "No information provided"
	}
	return `# 🚨 Career Guidance Report (Emergency Mode)

Dear User,

Our AI system is currently experiencing technical difficulties, but we don't want to leave you empty-handed!

## Your Information
` + userInfo + `

## General Career Guidance

1. **Explore Your Interests**: Take time to identify what truly excites you
2. **Research Career Options**: Use online resources like O*NET, Bureau of Labor Statistics
3. **Develop Skills**: Focus on both technical and soft skills
4. **Network**: Connect with professionals in fields of interest
5. **Gain Experience**: Look for internships, volunteer work, or part-time jobs

## Immediate Next Steps
- Schedule a meeting with a school counselor
- Take online career assessment tests
- Join clubs or activities related to your interests
- Research colleges or training programs

## Resources
- Career assessment tools: 16Personalities, StrengthsFinder
- Job research: LinkedIn, Glassdoor, Indeed
- Skill building: Khan Academy, Coursera, YouTube

**We apologize for the technical difficulties. Please try again later for your full AI-powered career analysis.**

Best regards,
The AI Career Advisor Team
`
}
