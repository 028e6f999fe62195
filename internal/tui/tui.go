package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/lox/codewords/internal/board"
	"github.com/lox/codewords/internal/client"
	"github.com/lox/codewords/internal/game"
	"github.com/lox/codewords/internal/syncer"
)

const gridColumns = 5

// Model represents the Bubble Tea model for the word game
type Model struct {
	client *client.Client
	logger *log.Logger

	// UI components
	commandInput textinput.Model

	// State
	status   string
	statusOK bool
	quitting bool

	// Dimensions
	width  int
	height int
}

// syncMsg wraps one sync event for the update loop
type syncMsg syncer.Event

// NewModel creates a new TUI model over an active client
func NewModel(c *client.Client, logger *log.Logger) *Model {
	ti := textinput.New()
	ti.Placeholder = "clue WORD N | reveal WORD | pass | role R | new | quit"
	ti.Focus()
	ti.CharLimit = 60
	ti.Width = 60
	ti.PromptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")).Bold(true)
	ti.TextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FAFAFA"))
	ti.Prompt = "> "

	return &Model{
		client:       c,
		logger:       logger.WithPrefix("tui"),
		commandInput: ti,
		status:       fmt.Sprintf("Joined game %s", c.Session().Code()),
		statusOK:     true,
	}
}

// Init initializes the TUI model
func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.listenForSync())
}

// listenForSync returns a command that delivers the next sync event
func (m *Model) listenForSync() tea.Cmd {
	return func() tea.Msg {
		return syncMsg(<-m.client.Events())
	}
}

// Update handles messages in the TUI
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case syncMsg:
		m.applySyncEvent(syncer.Event(msg))
		cmds = append(cmds, m.listenForSync())

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Sequence(tea.ClearScreen, tea.Quit)
		case "enter":
			command := strings.TrimSpace(m.commandInput.Value())
			m.commandInput.SetValue("")
			if command != "" {
				if quit := m.processCommand(command); quit {
					m.quitting = true
					return m, tea.Sequence(tea.ClearScreen, tea.Quit)
				}
			}
		}
	}

	var cmd tea.Cmd
	m.commandInput, cmd = m.commandInput.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m *Model) applySyncEvent(ev syncer.Event) {
	switch ev.Type {
	case syncer.EventAdopted:
		m.setStatus("Synced with other players", true)
	case syncer.EventSavedLocally:
		m.setStatus("Server unreachable, move saved locally", false)
	case syncer.EventConnectionLost:
		m.setStatus("Connection lost, retrying in the background", false)
	case syncer.EventRedirect:
		m.setStatus(fmt.Sprintf("Host started a new game, following to %s", ev.Code), true)
	}
}

func (m *Model) setStatus(s string, ok bool) {
	m.status = s
	m.statusOK = ok
}

// View renders the TUI
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	sections := []string{
		m.renderHeader(),
		m.renderGrid(),
		m.renderClue(),
		m.renderHistory(),
		m.renderStatus(),
		m.commandInput.View(),
		InfoStyle.Render("Enter to submit • 'help' for commands • Ctrl+C to quit"),
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...) + "\n"
}

func (m *Model) renderHeader() string {
	sess := m.client.Session()
	st := sess.State()

	title := HeaderStyle.Render(fmt.Sprintf(" CODEWORDS %s ", sess.Code()))
	red := RedTeamStyle.Render(fmt.Sprintf("Red %d", st.RedRemaining))
	blue := BlueTeamStyle.Render(fmt.Sprintf("Blue %d", st.BlueRemaining))

	var turn string
	switch {
	case st.GameOver && st.Winner != nil:
		turn = SuccessStyle.Render(fmt.Sprintf("%s wins!", strings.ToUpper(st.Winner.String())))
	case st.GameOver:
		turn = SuccessStyle.Render("Game over")
	case st.CurrentTurn == board.Red:
		turn = RedTeamStyle.Render("Red's turn")
	default:
		turn = BlueTeamStyle.Render("Blue's turn")
	}

	role := InfoStyle.Render("You: " + sess.Role().String())
	return fmt.Sprintf("%s  %s  %s  %s  %s", title, red, blue, turn, role)
}

// renderGrid draws the 5x5 board. Operatives see only revealed cards'
// colors; spymasters see every card's color.
func (m *Model) renderGrid() string {
	sess := m.client.Session()
	st := sess.State()
	b := sess.Board()
	showAll := sess.Role().IsSpymaster() || st.GameOver

	cellWidth := 0
	for _, w := range b.Words {
		if len(w) > cellWidth {
			cellWidth = len(w)
		}
	}
	cellWidth += 2

	var rows []string
	for row := 0; row < gridColumns; row++ {
		var cells []string
		for col := 0; col < gridColumns; col++ {
			i := row*gridColumns + col
			cells = append(cells, m.renderCard(b, st, i, cellWidth, showAll))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return strings.Join(rows, "\n")
}

func (m *Model) renderCard(b *board.Board, st *game.State, i, width int, showAll bool) string {
	word := b.Words[i]
	padded := fmt.Sprintf("%-*s", width, word)

	if st.Revealed[i] {
		return m.roleStyle(b.Roles[i]).Render(padded)
	}
	if showAll {
		return m.roleStyle(b.Roles[i]).Faint(true).Render(padded)
	}
	return HiddenCardStyle.Render(padded)
}

func (m *Model) roleStyle(r board.CardRole) lipgloss.Style {
	switch r {
	case board.RoleRed:
		return RedTeamStyle
	case board.RoleBlue:
		return BlueTeamStyle
	case board.RoleAssassin:
		return AssassinCardStyle
	default:
		return NeutralCardStyle
	}
}

func (m *Model) renderClue() string {
	st := m.client.Session().State()
	if st.Clue == nil {
		if st.GameOver {
			return InfoStyle.Render("Type 'new' to start another game")
		}
		return InfoStyle.Render("Waiting for a clue...")
	}
	guesses := "unlimited guesses"
	if st.GuessesRemaining != game.GuessesUnlimited {
		guesses = fmt.Sprintf("%d guesses left", st.GuessesRemaining)
	}
	return ClueStyle.Render(fmt.Sprintf("Clue: %s %d", st.Clue.Word, st.Clue.Count)) +
		InfoStyle.Render("  ("+guesses+")")
}

func (m *Model) renderHistory() string {
	st := m.client.Session().State()
	if len(st.ClueHistory) == 0 {
		return ""
	}

	var lines []string
	for i, e := range st.ClueHistory {
		style := RedTeamStyle
		if e.Team == board.Blue {
			style = BlueTeamStyle
		}
		entry := fmt.Sprintf("%d. %s %d", i+1, e.Word, e.Count)
		if !e.StillApplies {
			entry = RevealedCardStyle.Render(entry)
		} else {
			entry = style.Render(entry)
		}
		lines = append(lines, entry)
	}
	return InfoStyle.Render("Clues: ") + strings.Join(lines, "  ")
}

func (m *Model) renderStatus() string {
	if m.status == "" {
		return ""
	}
	if m.statusOK {
		return SuccessStyle.Render(m.status)
	}
	return WarningStyle.Render(m.status)
}

// processCommand runs one user command, returning true to quit
func (m *Model) processCommand(input string) bool {
	ctx := context.Background()
	parts := strings.Fields(input)
	verb := strings.ToLower(parts[0])
	args := parts[1:]

	var err error
	switch verb {
	case "quit", "exit", "q":
		return true

	case "help", "?":
		m.setStatus("clue WORD N • reveal WORD • pass • strike N • role R • name NAME • new • quit", true)
		return false

	case "clue":
		if len(args) != 2 {
			err = fmt.Errorf("usage: clue WORD N")
			break
		}
		var count int
		if count, err = strconv.Atoi(args[1]); err != nil {
			err = fmt.Errorf("clue count must be a number")
			break
		}
		if err = m.client.GiveClue(ctx, args[0], count); err == nil {
			m.setStatus(fmt.Sprintf("Clue given: %s %d", strings.ToUpper(args[0]), count), true)
		}

	case "reveal", "guess":
		if len(args) != 1 {
			err = fmt.Errorf("usage: reveal WORD")
			break
		}
		var index int
		if index, err = m.cardIndex(args[0]); err != nil {
			break
		}
		if err = m.client.RevealCard(ctx, index); err == nil {
			m.setStatus("Revealed "+m.client.Session().Board().Words[index], true)
		}

	case "pass", "endturn":
		if err = m.client.EndTurn(ctx); err == nil {
			m.setStatus("Turn passed", true)
		}

	case "strike":
		if len(args) != 1 {
			err = fmt.Errorf("usage: strike N")
			break
		}
		var n int
		if n, err = strconv.Atoi(args[0]); err != nil {
			err = fmt.Errorf("strike takes a clue number")
			break
		}
		if err = m.client.ToggleClueMark(ctx, n-1); err == nil {
			m.setStatus(fmt.Sprintf("Toggled clue %d", n), true)
		}

	case "role":
		if len(args) != 1 {
			err = fmt.Errorf("usage: role red-spymaster|red-operative|blue-spymaster|blue-operative|spectator")
			break
		}
		var role game.Role
		if role, err = game.ParseRole(args[0]); err != nil {
			break
		}
		if err = m.client.SetRole(ctx, role); err == nil {
			m.setStatus("You are now "+role.String(), true)
		}

	case "name":
		if len(args) == 0 {
			err = fmt.Errorf("usage: name YOURNAME")
			break
		}
		m.client.Identity().SetName(strings.Join(args, " "))
		m.setStatus("Name set to "+m.client.Identity().Name(), true)

	case "new":
		var code string
		if code, err = m.client.NewGame(ctx); err == nil {
			m.setStatus("Started new game "+code, true)
		}

	default:
		err = fmt.Errorf("unknown command %q, try 'help'", verb)
	}

	if err != nil {
		if reason, ok := game.ReasonOf(err); ok {
			m.setStatus(reason.Message(), false)
		} else {
			m.setStatus(err.Error(), false)
		}
		m.logger.Debug("command failed", "input", input, "error", err)
	}
	return false
}

// cardIndex resolves a word (or bare index) to a board position
func (m *Model) cardIndex(arg string) (int, error) {
	if n, err := strconv.Atoi(arg); err == nil {
		if n < 0 || n >= board.Size {
			return 0, fmt.Errorf("card number out of range")
		}
		return n, nil
	}

	want := strings.ToUpper(strings.TrimSpace(arg))
	for i, w := range m.client.Session().Board().Words {
		if w == want {
			return i, nil
		}
	}
	return 0, fmt.Errorf("no card named %q", want)
}
