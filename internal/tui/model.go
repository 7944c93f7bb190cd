package tui

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"medirag/internal/domain"
)

// Answerer is the TUI-facing subset of the answer service.
type Answerer interface {
	Answer(ctx context.Context, question string) (string, []domain.SearchResult, error)
}

// sessionState tracks what the next submitted line means. An explicit
// state value instead of pending-image/pending-voice booleans keeps
// the attachment flows from interleaving.
type sessionState int

const (
	stateIdle sessionState = iota
	stateAwaitingImageQuestion
	stateProcessing
)

// Model is the Bubble Tea model for the chat session.
type Model struct {
	answerer    Answerer
	vision      domain.VisionModel
	transcriber domain.Transcriber
	synthesizer domain.Synthesizer

	input    textinput.Model
	viewport viewport.Model
	state    sessionState
	speak    bool

	pendingImage []byte
	answerText   string
	sources      []domain.SearchResult
	status       string
	ready        bool
	indexSize    int
}

type turnMsg struct {
	answer  string
	sources []domain.SearchResult
	audio   string
	err     error
}

type transcriptMsg struct {
	text string
	err  error
}

// New creates the chat model. Provider dependencies may be nil when
// their credentials are absent; the matching operation then reports a
// friendly message instead of failing the session.
func New(answerer Answerer, vision domain.VisionModel, transcriber domain.Transcriber, synthesizer domain.Synthesizer, indexSize int) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a medical question (exit to quit)"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{
		answerer:    answerer,
		vision:      vision,
		transcriber: transcriber,
		synthesizer: synthesizer,
		input:       ti,
		viewport:    vp,
		indexSize:   indexSize,
		status:      fmt.Sprintf("Index loaded (%d chunks). Commands: :image <path>, :voice <path>, :speak", indexSize),
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, rh := resultBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 2 + qh + 1
		vh := msg.Height - reserved
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-rh)
		m.viewport.SetContent(m.renderTurn())
		return m, nil

	case turnMsg:
		m.state = stateIdle
		if msg.err != nil {
			m.answerText = "Sorry, I could not produce an answer right now. Please try again."
			m.sources = msg.sources
			m.status = "The assistant is temporarily unavailable."
		} else {
			m.answerText = msg.answer
			m.sources = msg.sources
			m.status = "Done."
			if msg.audio != "" {
				m.status = "Done. Spoken answer saved to " + msg.audio
			}
		}
		m.viewport.SetContent(m.renderTurn())
		return m, nil

	case transcriptMsg:
		m.state = stateIdle
		if msg.err != nil {
			m.status = "Could not transcribe the audio. Please try again."
		} else {
			m.input.SetValue(msg.text)
			m.status = "Transcribed. Press enter to ask."
		}
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			if m.state == stateProcessing {
				return m, nil
			}
			line := strings.TrimSpace(m.input.Value())
			if line == "" {
				return m, nil
			}
			switch strings.ToLower(line) {
			case "exit", "quit":
				return m, tea.Quit
			}
			m.input.SetValue("")
			return m.submit(line)
		case "down":
			m.viewport.LineDown(1)
			return m, nil
		case "up":
			m.viewport.LineUp(1)
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) submit(line string) (tea.Model, tea.Cmd) {
	if cmd, rest, ok := splitCommand(line); ok {
		return m.runCommand(cmd, rest)
	}

	if m.state == stateAwaitingImageQuestion {
		image := m.pendingImage
		m.pendingImage = nil
		m.state = stateProcessing
		m.status = "Analyzing image..."
		vision := m.vision
		return m, func() tea.Msg {
			text, err := vision.AnalyzeImage(context.Background(), line, image)
			return turnMsg{answer: text, err: err}
		}
	}

	if m.answerer == nil {
		m.status = "The assistant is not configured. Set the embedding and LLM API keys."
		return m, nil
	}
	m.state = stateProcessing
	m.status = "Thinking..."
	answerer := m.answerer
	synthesizer := m.synthesizer
	speak := m.speak
	return m, func() tea.Msg {
		text, sources, err := answerer.Answer(context.Background(), line)
		if err != nil {
			return turnMsg{sources: sources, err: err}
		}
		out := turnMsg{answer: text, sources: sources}
		if speak && synthesizer != nil {
			if path, serr := speakToFile(synthesizer, text); serr == nil {
				out.audio = path
			}
		}
		return out
	}
}

func (m Model) runCommand(cmd, arg string) (tea.Model, tea.Cmd) {
	switch cmd {
	case ":speak":
		m.speak = !m.speak
		if m.speak {
			m.status = "Spoken answers on."
		} else {
			m.status = "Spoken answers off."
		}
		return m, nil
	case ":image":
		if m.vision == nil {
			m.status = "Image analysis is not configured. Set the LLM API key."
			return m, nil
		}
		data, err := os.ReadFile(arg)
		if err != nil {
			m.status = "Could not read image: " + err.Error()
			return m, nil
		}
		m.pendingImage = data
		m.state = stateAwaitingImageQuestion
		m.status = "Image attached. Type your question about it."
		return m, nil
	case ":voice":
		if m.transcriber == nil {
			m.status = "Voice input is not configured. Set the speech API key."
			return m, nil
		}
		data, err := os.ReadFile(arg)
		if err != nil {
			m.status = "Could not read audio: " + err.Error()
			return m, nil
		}
		// the upload can take a while, so it runs as a command instead
		// of blocking the event loop
		m.state = stateProcessing
		m.status = "Transcribing..."
		transcriber := m.transcriber
		return m, func() tea.Msg {
			text, err := transcriber.Transcribe(context.Background(), data)
			return transcriptMsg{text: text, err: err}
		}
	default:
		m.status = "Unknown command " + cmd
		return m, nil
	}
}

// View renders the chat layout.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("Medical Reference Assistant")
	result := resultBoxStyle.Render(m.viewport.View())
	input := queryBoxStyle.Render(m.input.View())
	status := statusStyle.Render(m.status)
	return header + "\n" + result + "\n" + input + "\n" + status
}

func (m Model) renderTurn() string {
	if m.answerText == "" {
		return "Ask a question about the ingested reference texts."
	}
	var b strings.Builder
	b.WriteString(answerStyle.Render(m.answerText))
	if len(m.sources) > 0 {
		b.WriteString("\n\nSources:\n")
		for i, r := range m.sources {
			snippet := strings.ReplaceAll(r.Chunk.Text, "\n", " ")
			runes := []rune(snippet)
			if len(runes) > 200 {
				snippet = string(runes[:200]) + "..."
			}
			page := "N/A"
			if r.Chunk.Page > 0 {
				page = fmt.Sprintf("%d", r.Chunk.Page)
			}
			fmt.Fprintf(&b, "  [%d] %s (p. %s) | score=%.3f | %s\n", i+1, r.Chunk.SourceTitle, page, r.Score, snippet)
		}
	}
	return b.String()
}

func speakToFile(synth domain.Synthesizer, text string) (string, error) {
	audio, err := synth.Synthesize(context.Background(), text)
	if err != nil {
		return "", err
	}
	f, err := os.CreateTemp("", "medirag-answer-*.mp3")
	if err != nil {
		return "", err
	}
	if _, err := f.Write(audio); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

func splitCommand(line string) (cmd, rest string, ok bool) {
	if !strings.HasPrefix(line, ":") {
		return "", "", false
	}
	parts := strings.SplitN(line, " ", 2)
	cmd = strings.ToLower(parts[0])
	if len(parts) == 2 {
		rest = strings.TrimSpace(parts[1])
	}
	return cmd, rest, true
}

var (
	resultBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	answerStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
