package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	charmlog "github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/verlune/quickchat/internal/chat"
	"github.com/verlune/quickchat/internal/config"
	"github.com/verlune/quickchat/internal/conv"
	"github.com/verlune/quickchat/internal/llm"
	"github.com/verlune/quickchat/internal/mcpx"
	"github.com/verlune/quickchat/internal/memory"
	"github.com/verlune/quickchat/internal/trace"
	"github.com/verlune/quickchat/internal/ui"
)

type options struct {
	configPath string
	serverName string
	systemMsg  string
	logLevel   string
	logJSON    bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:          "quickchat",
		Short:        "Chat with an LLM in the command line, with tool use and tiered memory",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), opts)
		},
	}
	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "path to the JSON config file")
	cmd.Flags().StringVar(&opts.serverName, "server", "tools", "tool server name from the config's servers section")
	cmd.Flags().StringVar(&opts.systemMsg, "system", "", "system prompt for the conversation")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "info", "log level: debug, info, warn, error")
	cmd.Flags().BoolVar(&opts.logJSON, "log-json", false, "emit logs as JSON")
	return cmd
}

func run(ctx context.Context, opts *options) error {
	// .env is optional; real env vars win either way.
	_ = godotenv.Load()

	if os.Getenv("ANTHROPIC_API_KEY") == "" {
		return fmt.Errorf("ANTHROPIC_API_KEY is not set; export it before running")
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}

	logger := newLogger(opts)
	sink := trace.NewSink(cfg.Memory.HistoryDir)
	console := ui.NewConsole()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Tool session. A configured server that fails to connect is an
	// unrecoverable startup error; no servers configured at all just means
	// a tool-less conversation.
	var session mcpx.Session
	var tools []mcpx.ToolDescriptor
	if len(cfg.Servers) > 0 {
		sc, err := cfg.Server(opts.serverName)
		if err != nil {
			return err
		}
		stdio, err := mcpx.NewStdioSession(sc.Command, sc.EnvList(), sc.Args...)
		if err != nil {
			return fmt.Errorf("failed to connect to the tool server: %w", err)
		}
		defer stdio.Close()
		if err := stdio.Initialize(ctx); err != nil {
			return fmt.Errorf("failed to connect to the tool server: %w", err)
		}
		tools, err = stdio.ListTools(ctx)
		if err != nil {
			return fmt.Errorf("failed to list tools: %w", err)
		}
		session = stdio

		names := make([]string, 0, len(tools))
		for _, t := range tools {
			names = append(names, t.Name)
		}
		logger.Info("connected to tool server", "server", opts.serverName, "tools", strings.Join(names, ", "))
	} else {
		logger.Warn("no tool servers configured; tool use is disabled")
	}

	// Conversation state and model plumbing.
	sessionID := memory.NewSessionID()
	transcript, err := memory.NewTranscript(cfg.Memory.HistoryDir, sessionID)
	if err != nil {
		return err
	}
	backend := llm.NewAnthropicBackend()
	summarizer := llm.NewSummarizer(backend, cfg.Model.SummaryModel)
	mem := memory.NewManager(transcript, summarizer, cfg.Memory.ShortTermThreshold, logger)
	invoker := llm.NewInvoker(backend, cfg.Model.ModelName, logger, sink)
	orch := chat.New(mem, invoker, session, tools, console, logger, sink)

	if opts.systemMsg != "" {
		mem.Append(conv.Message{Role: conv.RoleSystem, Content: []conv.Block{conv.Text{Text: opts.systemMsg}}})
	}

	console.System("Chatbot started! Type your queries, or '/exit' to exit.")

	lines := ui.Lines(os.Stdin)
	for {
		console.Prompt()

		var input string
		select {
		case <-ctx.Done():
			// Signal during input-wait behaves like an exit command.
			fmt.Println()
			console.System("Transcript saved to: " + mem.TranscriptPath())
			return nil
		case line, ok := <-lines:
			if !ok {
				console.System("Transcript saved to: " + mem.TranscriptPath())
				return nil
			}
			input = strings.TrimSpace(line)
		}

		if input == "" {
			continue
		}
		if chat.IsExit(input) {
			console.System("Round ends. The full history can be seen via: " + mem.TranscriptPath())
			return nil
		}

		// Turns are never cancelled mid-flight; cancellation is handled at
		// the input boundary above.
		if err := orch.ProcessTurn(context.WithoutCancel(ctx), input); err != nil {
			logger.Error("turn failed", "error", err)
			console.Error(err.Error())
		}
	}
}

func newLogger(opts *options) *charmlog.Logger {
	level, err := charmlog.ParseLevel(opts.logLevel)
	if err != nil {
		level = charmlog.InfoLevel
	}
	logger := charmlog.NewWithOptions(os.Stderr, charmlog.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05",
		Level:           level,
		Prefix:          "quickchat",
	})
	if opts.logJSON {
		logger.SetFormatter(charmlog.JSONFormatter)
	}
	return logger
}
