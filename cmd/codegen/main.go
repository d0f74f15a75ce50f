// Command codegen runs the multi-stage code generation service. By default
// it serves the web UI and generation API; with -cli it runs one interactive
// generation in the terminal.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"golang.org/x/term"

	"codegen/pkg/agent"
	"codegen/pkg/config"
	"codegen/pkg/generator"
	"codegen/pkg/logx"
	"codegen/pkg/persistence"
	"codegen/pkg/version"
	"codegen/pkg/webui"
)

func main() {
	var (
		port        = flag.Int("port", 0, "Web server port (default from config)")
		cliMode     = flag.Bool("cli", false, "Run one interactive generation in the terminal")
		projectDir  = flag.String("projectdir", ".", "Project directory")
		showVersion = flag.Bool("version", false, "Show version information")
		debug       = flag.Bool("debug", false, "Enable debug logging")
	)
	flag.Parse()

	if *debug {
		logx.SetDebug(true)
	}

	if *showVersion {
		fmt.Printf("codegen %s (%s, %s)\n", version.Version, version.Commit, version.Date)
		return
	}

	if err := run(*projectDir, *port, *cliMode); err != nil {
		fmt.Fprintf(os.Stderr, "codegen: %v\n", err)
		os.Exit(1)
	}
}

func run(projectDir string, port int, cliMode bool) error {
	if err := config.LoadConfig(projectDir); err != nil {
		return logx.Wrap(err, "load config")
	}
	cfg, err := config.GetConfig()
	if err != nil {
		return err
	}
	if port != 0 {
		cfg.Server.Port = port
	}

	if err := ensureAPIKey(cfg, cliMode); err != nil {
		return err
	}

	factory := agent.NewFactory(cfg)
	pipeline, err := generator.NewPipeline(factory, cfg)
	if err != nil {
		return err
	}

	if cliMode {
		return runCLI(pipeline)
	}
	return serve(projectDir, cfg, pipeline)
}

// ensureAPIKey verifies the configured provider has a key. In CLI mode on a
// terminal, a missing key is prompted for without echo and kept in memory
// for the session.
func ensureAPIKey(cfg *config.Config, cliMode bool) error {
	if _, err := config.GetAPIKey(cfg.Provider); err == nil {
		return nil
	}

	envVar := config.APIKeyEnvVar(cfg.Provider)
	if !cliMode || !term.IsTerminal(int(os.Stdin.Fd())) {
		return fmt.Errorf("no API key for provider %q: set %s", cfg.Provider, envVar)
	}

	fmt.Printf("Enter %s: ", envVar)
	key, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return fmt.Errorf("failed to read API key: %w", err)
	}
	if len(key) == 0 {
		return fmt.Errorf("no API key provided for provider %q", cfg.Provider)
	}

	config.SetSecret(envVar, string(key))
	return nil
}

// serve runs the HTTP server until interrupted.
func serve(projectDir string, cfg *config.Config, pipeline *generator.Pipeline) error {
	logger := logx.NewLogger("main")

	store, err := persistence.Open(filepath.Join(projectDir, cfg.Database.Path))
	if err != nil {
		return logx.Wrap(err, "open history store")
	}
	defer func() { _ = store.Close() }()

	server := webui.NewServer(pipeline, store, cfg)
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("codegen %s listening on :%d (provider=%s model=%s)",
			version.Version, cfg.Server.Port, cfg.Provider, cfg.Model)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}

// runCLI prompts for a description and language, runs one generation, prints
// the stage results, and offers to save the code.
func runCLI(pipeline *generator.Pipeline) error {
	reader := bufio.NewReader(os.Stdin)

	description, err := promptNonEmpty(reader, "Describe what you want to build: ")
	if err != nil {
		return err
	}
	language, err := promptNonEmpty(reader, "Programming language: ")
	if err != nil {
		return err
	}

	fmt.Println("\nGenerating...")
	result, err := pipeline.Generate(context.Background(), description, language)
	if err != nil {
		return err
	}

	printSection("PLANNING", result.Planning)
	printSection("DESIGN", result.Design)
	printSection("CODE", result.Code)
	printSection("TESTING", result.Testing)

	fmt.Printf("Save code to %s? [y/N]: ", result.Filename)
	answer, err := reader.ReadString('\n')
	if err != nil {
		return err
	}
	if strings.EqualFold(strings.TrimSpace(answer), "y") {
		path, err := pipeline.SaveCode(result)
		if err != nil {
			return err
		}
		fmt.Printf("Saved to %s\n", path)
	}
	return nil
}

func promptNonEmpty(reader *bufio.Reader, prompt string) (string, error) {
	for {
		fmt.Print(prompt)
		line, err := reader.ReadString('\n')
		if err != nil {
			return "", err
		}
		if value := strings.TrimSpace(line); value != "" {
			return value, nil
		}
		fmt.Println("A value is required.")
	}
}

func printSection(title, body string) {
	fmt.Printf("\n=== %s ===\n%s\n", title, body)
}
