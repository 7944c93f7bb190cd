package main

import (
	"github.com/spf13/cobra"

	"medirag/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the chat API for the browser UI",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.log.Sync()

	var answerer server.Answerer
	if svc := a.answerService(); svc != nil {
		answerer = svc
	}
	h := server.NewHandlers(answerer, a.vision, a.transcriber, a.synthesizer, a.log)
	srv := server.New(h, a.log)

	addr := serveAddr
	if addr == "" {
		addr = a.cfg.Server.Addr
	}
	a.log.Info("serving chat API", "addr", addr, "chunks", a.index.Len())
	return srv.Run(addr)
}
