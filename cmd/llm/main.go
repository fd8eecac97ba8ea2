package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joseph-ayodele/invoice-parser/constants"
	"github.com/joseph-ayodele/invoice-parser/internal/common"
	"github.com/joseph-ayodele/invoice-parser/internal/llm"
	"github.com/joseph-ayodele/invoice-parser/internal/llm/providers"
	"github.com/joseph-ayodele/invoice-parser/internal/prompts"
)

// llm replays one rendered markdown document against the configured provider
// several times, to compare replies for the same prompt.
func main() {
	configPath := flag.String("config", "", "YAML config file (environment variables win)")
	docType := flag.String("type", constants.DocTypeInvoice.String(), "document type used to pick the prompt")
	times := flag.Int("times", 3, "number of completions to request")
	dryRun := flag.Bool("dry-run", false, "print the prompt and exit")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if flag.NArg() != 1 {
		logger.Error("usage: llm [flags] <extracted.md>")
		os.Exit(2)
	}
	md, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		logger.Error("read markdown", "path", flag.Arg(0), "error", err)
		os.Exit(2)
	}

	dt := constants.ParseDocumentType(*docType)
	prompt := prompts.Select(dt, string(md))
	if *dryRun {
		fmt.Println(prompt)
		return
	}

	cfg, err := common.LoadConfigFile(*configPath)
	if err != nil {
		logger.Error("load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.LLM.Validate(); err != nil {
		logger.Error("invalid LLM config", "error", err)
		os.Exit(2)
	}

	ctx := context.Background()
	completer, closeFn, err := providers.New(ctx, cfg.LLM, logger)
	if err != nil {
		logger.Error("create completer", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := closeFn(); err != nil {
			logger.Warn("close completer", "error", err)
		}
	}()

	replies := run(ctx, completer, prompt, max(*times, 1), logger)
	for i, r := range replies {
		fmt.Printf("## Run %d\n\n%s\n\n---\n\n", i+1, r)
	}
	logger.Info("done", "template", prompts.TemplateName(dt), "times", len(replies), "distinct", distinct(replies))
}

func run(ctx context.Context, c llm.Completer, prompt string, times int, logger *slog.Logger) []string {
	if logger == nil {
		logger = slog.Default()
	}
	replies := make([]string, 0, times)
	for i := 1; i <= times; i++ {
		runCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
		start := time.Now()
		logger.Info("llm.run.start", "iter", i)

		out, err := c.Complete(runCtx, prompt)
		cancel()

		if err != nil {
			logger.Error("llm.run.error", "iter", i, "error", err)
			replies = append(replies, constants.ErrorReplyPrefix+err.Error())
			continue
		}
		logger.Info("llm.run.ok", "iter", i, "model", out.Model, "reply_chars", len(out.Content), "elapsed_ms", time.Since(start).Milliseconds())
		replies = append(replies, out.Content)
	}
	return replies
}

func distinct(replies []string) int {
	seen := make(map[string]struct{}, len(replies))
	for _, r := range replies {
		seen[r] = struct{}{}
	}
	return len(seen)
}
