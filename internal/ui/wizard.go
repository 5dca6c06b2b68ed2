package ui

import (
	"fmt"
	"strings"

	"github.com/Mohsinsiddi/omnes/internal/config"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// --- Bubble Tea model ---

type wizardStep int

const (
	stepName wizardStep = iota
	stepSymbol
	stepBaseURI
	stepHiddenURI
	stepPrice
	stepExcess
	stepUnpause
	stepDone
)

type prompt struct {
	title   string
	choices []string // nil for free text
}

var wizardPrompts = map[wizardStep]prompt{
	stepName:      {title: "Collection name"},
	stepSymbol:    {title: "Symbol"},
	stepBaseURI:   {title: "Base metadata URI"},
	stepHiddenURI: {title: "Hidden (pre-reveal) metadata URI"},
	stepPrice:     {title: "Public mint price in ether"},
	stepExcess:    {title: "Overpayment handling", choices: []string{"retain", "refund"}},
	stepUnpause:   {title: "Open public minting right after deploy?", choices: []string{"no", "yes"}},
}

// wizardModel collects a deployment manifest one prompt at a time. Empty
// text answers keep the prefilled value.
type wizardModel struct {
	step     wizardStep
	result   config.Manifest
	cursor   int
	input    string
	problem  string
	canceled bool
}

func newWizard(seed config.Manifest) wizardModel {
	return wizardModel{step: stepName, result: seed}
}

func (m wizardModel) Init() tea.Cmd { return nil }

func (m wizardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	p := wizardPrompts[m.step]

	switch key.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		m.canceled = true
		return m, tea.Quit
	case tea.KeyUp:
		if p.choices != nil && m.cursor > 0 {
			m.cursor--
		}
	case tea.KeyDown:
		if p.choices != nil && m.cursor < len(p.choices)-1 {
			m.cursor++
		}
	case tea.KeyBackspace:
		if p.choices == nil && m.input != "" {
			m.input = m.input[:len(m.input)-1]
		}
	case tea.KeyRunes, tea.KeySpace:
		if p.choices == nil {
			if key.Type == tea.KeySpace {
				m.input += " "
			} else {
				m.input += string(key.Runes)
			}
		}
	case tea.KeyEnter:
		if err := m.apply(); err != nil {
			m.problem = err.Error()
			return m, nil
		}
		m.problem = ""
		m.input = ""
		m.cursor = 0
		m.step++
	}

	if m.step == stepDone {
		return m, tea.Quit
	}
	return m, nil
}

// apply stores the answer of the current step.
func (m *wizardModel) apply() error {
	answer := strings.TrimSpace(m.input)
	if p := wizardPrompts[m.step]; p.choices != nil {
		answer = p.choices[m.cursor]
	}
	field := m.field()
	if field == nil {
		m.result.Unpause = answer == "yes"
		return nil
	}
	if answer == "" {
		answer = *field
	}
	if answer == "" && (m.step == stepName || m.step == stepSymbol) {
		return fmt.Errorf("%s is required", strings.ToLower(wizardPrompts[m.step].title))
	}
	*field = answer
	return nil
}

func (m *wizardModel) field() *string {
	switch m.step {
	case stepName:
		return &m.result.Name
	case stepSymbol:
		return &m.result.Symbol
	case stepBaseURI:
		return &m.result.BaseURI
	case stepHiddenURI:
		return &m.result.HiddenURI
	case stepPrice:
		return &m.result.MintPrice
	case stepExcess:
		return &m.result.ExcessPolicy
	}
	return nil
}

func (m wizardModel) View() string {
	if m.step == stepDone {
		return Success("Manifest complete") + "\n"
	}
	p := wizardPrompts[m.step]
	s := StyleMeta.Render(fmt.Sprintf("step %d/%d", int(m.step)+1, int(stepDone))) + "\n"
	if p.choices != nil {
		s += renderMenu(p.title, p.choices, m.cursor)
	} else {
		s += StyleTitle.Render(p.title) + "\n"
		if cur := m.currentValue(); cur != "" {
			s += StyleMeta.Render("Enter keeps: "+cur) + "\n"
		}
		s += "> " + StyleAddress.Render(m.input) + "█\n"
	}
	if m.problem != "" {
		s += "\n" + Err(m.problem) + "\n"
	}
	return StyleBorder.Render(s) + "\n"
}

func (m wizardModel) currentValue() string {
	if f := m.field(); f != nil {
		return *f
	}
	return ""
}

func renderMenu(title string, items []string, cursor int) string {
	s := StyleTitle.Render(title) + "\n\n"
	for i, item := range items {
		icon := "  "
		style := lipgloss.NewStyle().Foreground(ColorValue)
		if i == cursor {
			icon = "▸ "
			style = StyleSelected
		}
		s += icon + style.Render(item) + "\n"
	}
	s += "\n" + StyleMeta.Render("↑/↓ navigate · Enter select · Esc cancel")
	return s
}

// RunManifestWizard asks for every manifest field, starting from seed.
// It returns nil when the user cancels.
func RunManifestWizard(seed config.Manifest) (*config.Manifest, error) {
	if !IsInteractive() {
		return nil, ErrNotInteractive
	}
	final, err := tea.NewProgram(newWizard(seed)).Run()
	if err != nil {
		return nil, fmt.Errorf("wizard error: %w", err)
	}
	fm := final.(wizardModel)
	if fm.canceled {
		return nil, nil
	}
	return &fm.result, nil
}
