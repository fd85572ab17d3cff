package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
)

// Profile is what the user tells the advisor about themselves.
type Profile struct {
	Name      string
	Stage     string
	Interests string
	Skills    string
	Goals     string
}

// UserInfo renders the profile as the free-text input the engine expects.
// Empty fields are omitted.
func (p Profile) UserInfo() string {
	fields := []struct{ label, value string }{
		{"Name", p.Name},
		{"Current Stage", p.Stage},
		{"Interests", p.Interests},
		{"Skills", p.Skills},
		{"Goals", p.Goals},
	}
	var b strings.Builder
	for _, f := range fields {
		v := strings.TrimSpace(f.value)
		if v == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s: %s", f.label, v)
	}
	return b.String()
}

func notBlank(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

// NewProfileForm builds the intake form bound to p.
func NewProfileForm(p *Profile) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("AI Career Advisor").
				Description("I'll help you discover your ideal career path with personalized guidance.\nBe as detailed as you like."),
			huh.NewInput().
				Key("name").
				Title("Your name").
				Value(&p.Name).
				Validate(notBlank("name")),
			huh.NewSelect[string]().
				Key("stage").
				Title("Your current stage").
				Options(
					huh.NewOption("High School Student", "High School Student"),
					huh.NewOption("College Student", "College Student"),
					huh.NewOption("Recent Graduate", "Recent Graduate"),
					huh.NewOption("Working Professional", "Working Professional"),
					huh.NewOption("Career Changer", "Career Changer"),
				).
				Value(&p.Stage),
		),
		huh.NewGroup(
			huh.NewText().
				Key("interests").
				Title("Your interests and passions").
				Value(&p.Interests),
			huh.NewText().
				Key("skills").
				Title("Your existing skills and experience").
				Value(&p.Skills),
			huh.NewText().
				Key("goals").
				Title("Your career goals and aspirations").
				Value(&p.Goals).
				Validate(notBlank("goals")),
		),
	)
}

// RunProfileForm shows the intake form and returns the answers.
func RunProfileForm(ctx context.Context) (Profile, error) {
	var p Profile
	if err := NewProfileForm(&p).RunWithContext(ctx); err != nil {
		return Profile{}, err
	}
	return p, nil
}
