package main

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"medirag/internal/tui"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start the terminal chat session",
	RunE:  runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.log.Sync()

	var answerer tui.Answerer
	if svc := a.answerService(); svc != nil {
		answerer = svc
	}
	m := tui.New(answerer, a.vision, a.transcriber, a.synthesizer, a.index.Len())
	_, err = tea.NewProgram(m).Run()
	return err
}
