package settings

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	cfg "ffpopup/internal/config"
)

// Run edits the common options of p in an interactive form and saves the
// result to path on submit.
func Run(path string, p cfg.Params) error {
	form, scrolloff := newForm(&p)
	if err := form.Run(); err != nil {
		return err // form canceled or failed
	}
	if err := apply(&p, *scrolloff); err != nil {
		return err
	}
	if err := cfg.Save(path, p); err != nil {
		return err
	}
	fmt.Printf("\n✓ saved %s\n\n", path)
	return nil
}

func theme() *huh.Theme {
	green := lipgloss.Color("#4d9375")
	t := huh.ThemeCharm()
	t.FieldSeparator = lipgloss.NewStyle()
	t.Blurred.Title = t.Blurred.Title.Width(18).Foreground(lipgloss.Color("7"))
	t.Focused.Title = t.Focused.Title.Width(18).Foreground(green).Bold(true)
	t.Blurred.SelectedOption = t.Blurred.SelectedOption.Foreground(lipgloss.Color("243"))
	t.Focused.SelectedOption = lipgloss.NewStyle().Foreground(green)
	t.Focused.Base.BorderForeground(green)
	return t
}

// newForm binds the fields to p. Scrolloff is edited as text and parsed
// by apply.
func newForm(p *cfg.Params) (*huh.Form, *string) {
	scrolloff := strconv.Itoa(p.Scrolloff)
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewNote().Title("ffpopup").Description("Options saved to the config file"),
			huh.NewInput().Title("Prompt").Value(&p.Prompt),
			huh.NewSelect[string]().
				Title("Filter position").
				Options(huh.NewOption("top", "top"), huh.NewOption("bottom", "bottom")).
				Value(&p.FilterPosition),
			huh.NewInput().Title("Scrolloff").Value(&scrolloff).Validate(validScrolloff),
		),
		huh.NewGroup(
			huh.NewConfirm().Title("Tree view").Value(&p.DisplayTree),
			huh.NewConfirm().Title("Reversed").Value(&p.Reversed),
			huh.NewConfirm().Title("Start in filter").Value(&p.StartFilter),
			huh.NewConfirm().Title("Ctrl-C quits UI").Value(&p.HandleCtrlC),
		),
	).WithTheme(theme()).WithWidth(60)
	return form, &scrolloff
}

func validScrolloff(s string) error {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return fmt.Errorf("scrolloff must be a non-negative number")
	}
	return nil
}

func apply(p *cfg.Params, scrolloff string) error {
	if err := validScrolloff(scrolloff); err != nil {
		return err
	}
	p.Scrolloff, _ = strconv.Atoi(scrolloff)
	return p.Validate()
}
