package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"bankceo/internal/game"
	"bankceo/internal/session"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFA500")).
			Bold(true).
			Underline(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Italic(true)

	statsStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(lipgloss.Color("#3C3C3C")).
			PaddingLeft(2).
			Foreground(lipgloss.Color("#AAAAAA"))

	newsStyles = map[game.NewsType]lipgloss.Style{
		game.NewsSuccess: lipgloss.NewStyle().Foreground(lipgloss.Color("#5FD75F")),
		game.NewsWarning: lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD75F")),
		game.NewsDanger:  lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F5F")).Bold(true),
		game.NewsInfo:    lipgloss.NewStyle().Foreground(lipgloss.Color("#EEEEEE")),
	}

	gameOverStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5F5F")).
			Bold(true).
			Padding(1, 2)
)

type model struct {
	sess      *session.Session
	state     game.GameState
	textInput textinput.Model
	viewport  viewport.Model
	log       []string
	width     int
	height    int
	err       error
}

type turnResolvedMsg struct {
	result game.TurnResult
	err    error
}

type actionDoneMsg struct {
	result game.ActionResult
	err    error
}

type adviceMsg struct {
	rec game.Recommendation
}

func NewModel(sess *session.Session) model {
	ti := textinput.New()
	ti.Placeholder = "Press Enter to end the week, or type a command..."
	ti.Focus()
	ti.CharLimit = 120
	ti.Width = 60

	m := model{
		sess:      sess,
		state:     sess.State(),
		textInput: ti,
		viewport:  viewport.New(80, 20),
	}
	news := sess.News()
	for i := len(news) - 1; i >= 0; i-- {
		m.log = append(m.log, renderNews(news[i]))
	}
	m.viewport.SetContent(m.renderLog())
	return m
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			line := m.textInput.Value()
			m.textInput.Reset()
			m.err = nil
			if m.state.IsGameOver {
				return m, tea.Quit
			}
			c, err := parseCommand(line)
			if err != nil {
				m.err = err
				return m, nil
			}
			if c.kind == cmdQuit {
				return m, tea.Quit
			}
			return m, m.run(c)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = int(float64(msg.Width) * 0.65)
		m.viewport.Height = max(msg.Height-6, 5)
		m.viewport.SetContent(m.renderLog())

	case turnResolvedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.state = msg.result.State
		m.appendNews(msg.result.News)
		return m, nil

	case actionDoneMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.state = msg.result.State
		m.appendNews(msg.result.News)
		return m, nil

	case adviceMsg:
		m.log = append(m.log,
			titleStyle.Render("Advisor"),
			fmt.Sprintf("Loan %.3f%%: %s", msg.rec.Loan.Rate, msg.rec.Loan.Reason),
			fmt.Sprintf("Deposit %.3f%%: %s", msg.rec.Deposit.Rate, msg.rec.Deposit.Reason),
		)
		m.viewport.SetContent(m.renderLog())
		m.viewport.GotoBottom()
		return m, nil
	}

	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

func (m *model) appendNews(items []game.News) {
	for _, n := range items {
		m.log = append(m.log, renderNews(n))
	}
	m.viewport.SetContent(m.renderLog())
	m.viewport.GotoBottom()
}

// run executes a parsed command off the update loop.
func (m model) run(c command) tea.Cmd {
	sess := m.sess
	return func() tea.Msg {
		ctx := context.Background()
		var (
			res game.ActionResult
			err error
		)
		switch c.kind {
		case cmdNextTurn:
			tr, err := sess.NextTurn(ctx, game.Decisions{})
			return turnResolvedMsg{result: tr, err: err}
		case cmdAdvise:
			return adviceMsg{rec: sess.Recommend()}
		case cmdLoanRate:
			res, err = sess.SetRates(ctx, &c.rate, nil)
		case cmdDepositRate:
			res, err = sess.SetRates(ctx, nil, &c.rate)
		case cmdStrategy:
			res, err = sess.SetStrategy(ctx, c.strategy)
		case cmdCampaign:
			res, err = sess.LaunchCampaign(ctx, c.campaign, c.budget, c.weeks)
		case cmdStopCampaign:
			res, err = sess.StopCampaign(ctx)
		case cmdTech:
			res, err = sess.StartTechUpgrade(ctx, c.upgrade)
		}
		return actionDoneMsg{result: res, err: err}
	}
}

func (m model) View() string {
	if m.state.IsGameOver {
		return gameOverStyle.Render(fmt.Sprintf("GAME OVER\n\n%s\n\nSurvived %d weeks. Press Enter to leave.",
			m.state.GameOverMessage, m.state.Turn))
	}

	body := lipgloss.JoinHorizontal(lipgloss.Top, m.viewport.View(), m.renderStats())
	status := helpStyle.Render(helpText)
	if m.err != nil {
		status = newsStyles[game.NewsDanger].Render(m.err.Error())
	}
	return "\n" + lipgloss.JoinVertical(lipgloss.Left, body, "\n"+m.textInput.View(), "\n"+status) + "\n"
}

func (m model) renderStats() string {
	s := m.state
	var b strings.Builder
	b.WriteString(titleStyle.Render(strings.ToUpper(s.Settings.Branding.BankName)) + "\n")
	fmt.Fprintf(&b, "%d-%02d week %d (turn %d)\n\n", s.Year, s.Month, s.Week, s.Turn)
	fmt.Fprintf(&b, "Cash       %s\n", game.FormatUSD(s.Cash))
	fmt.Fprintf(&b, "Loans      %s\n", game.FormatUSD(s.Loans))
	fmt.Fprintf(&b, "Deposits   %s\n", game.FormatUSD(s.Deposits))
	fmt.Fprintf(&b, "Rates      %.2f%% / %.2f%%\n\n", s.LoanInterestRate, s.DepositInterestRate)
	fmt.Fprintf(&b, "Reputation %.0f\n", s.Reputation)
	fmt.Fprintf(&b, "Satisfied  %.0f\n", s.CustomerSatisfaction)
	fmt.Fprintf(&b, "Risk       %.0f\n", s.RiskFactor)
	fmt.Fprintf(&b, "Customers  %d\n\n", s.TotalCustomers)
	fmt.Fprintf(&b, "Strategy   %s\n", s.CurrentStrategy.Label())
	if c := s.ActiveMarketingCampaign; c != nil {
		fmt.Fprintf(&b, "Campaign   %s (%dw left)\n", c.Type, c.WeeksRemaining)
	}
	fmt.Fprintf(&b, "Servers    %s\n", s.ServerStatus)
	fmt.Fprintf(&b, "App        v%s %.1f*\n", s.AppVersion, s.AppRating)
	for _, u := range s.ActiveTechUpgrades {
		fmt.Fprintf(&b, "Building   %s (%dw)\n", u.Type, u.WeeksRemaining)
	}
	width := max(int(float64(m.width)*0.33), 30)
	return statsStyle.Width(width).Height(m.viewport.Height).Render(b.String())
}

func (m model) renderLog() string {
	return strings.Join(m.log, "\n")
}

func renderNews(n game.News) string {
	style, ok := newsStyles[n.Type]
	if !ok {
		style = newsStyles[game.NewsInfo]
	}
	return style.Render(n.Message)
}

func Run(sess *session.Session) error {
	p := tea.NewProgram(NewModel(sess), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
