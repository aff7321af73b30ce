package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/xaenox/emotion-classifier/internal/bot"
	"github.com/xaenox/emotion-classifier/internal/classifier"
	"github.com/xaenox/emotion-classifier/internal/controller"
	"github.com/xaenox/emotion-classifier/internal/logger"
	"github.com/xaenox/emotion-classifier/internal/metrics"
	"github.com/xaenox/emotion-classifier/internal/models"
	"github.com/xaenox/emotion-classifier/internal/render"
	"github.com/xaenox/emotion-classifier/pkg/config"
)

func main() {
	configPath := pflag.StringP("config", "c", "", "path to config file")
	text := pflag.StringP("text", "t", "", "classify a single text and exit")
	pflag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(2)
	}

	// Initialize logger
	log := logger.NewLogger(cfg.Log)
	defer log.Sync()

	// Initialize classifier backend
	var clf classifier.Classifier
	switch cfg.Classifier.Backend {
	case config.BackendOpenAI:
		log.Info("Using chat completion backend", zap.String("model", cfg.OpenAI.Model))
		clf = classifier.NewGPTClassifier(classifier.GPTConfig{
			APIKey:      cfg.OpenAI.APIKey,
			BaseURL:     cfg.OpenAI.BaseURL,
			Model:       cfg.OpenAI.Model,
			MaxTokens:   cfg.OpenAI.MaxTokens,
			Temperature: cfg.OpenAI.Temperature,
			Labels:      cfg.Classifier.Labels,
			Timeout:     cfg.Classifier.Timeout,
		}, log)
	default:
		log.Info("Using inference endpoint", zap.String("endpoint", cfg.Classifier.Endpoint))
		clf = classifier.NewHTTPClassifier(cfg.Classifier.Endpoint, cfg.Classifier.Timeout, log)
	}

	m := metrics.New(clf.Name())
	if cfg.Metrics.Addr != "" {
		go serveMetrics(cfg.Metrics.Addr, m, log)
	}

	normalizer := classifier.NewNormalizer(cfg.Classifier.UnwrapEnvelope)
	newController := func() *controller.Controller {
		return controller.New(clf, normalizer, controller.Options{
			Timeout:      cfg.Classifier.Timeout,
			Policy:       controller.UnrecognizedPolicy(cfg.Classifier.UnrecognizedPolicy),
			DiscardStale: cfg.Classifier.DiscardStale,
			Metrics:      m,
		}, log)
	}

	if cfg.Mode == config.ModeTelegram {
		b, err := bot.New(cfg.Telegram.Token, newController, log)
		if err != nil {
			log.Fatal("Failed to create bot", zap.Error(err))
		}
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
		go func() {
			<-stop
			log.Info("Shutting down bot")
			b.Stop()
		}()

		if err := b.Start(); err != nil {
			log.Fatal("Bot error", zap.Error(err))
		}
		return
	}

	ctrl := newController()
	if pflag.Lookup("text").Changed {
		code := classifyOnce(ctrl, *text)
		log.Sync()
		os.Exit(code)
	}
	if err := runInteractive(ctrl, os.Stdin, os.Stdout); err != nil {
		log.Error("Failed to read input", zap.Error(err))
		log.Sync()
		os.Exit(1)
	}
}

// classifyOnce prints the final state of a single submit and returns the exit code
func classifyOnce(ctrl *controller.Controller, text string) int {
	ctrl.Submit(text)
	ctrl.Wait()

	state := ctrl.State()
	fmt.Println(render.Text(state))
	if state.Phase() == models.PhaseError {
		return 1
	}
	return 0
}

// runInteractive submits every line of r and writes each state change to w.
// Lines have no length limit.
func runInteractive(ctrl *controller.Controller, r io.Reader, w io.Writer) error {
	ctrl.Subscribe(func(s models.State) {
		fmt.Fprintln(w, render.Text(s))
		fmt.Fprintln(w)
	})

	var input controller.Input
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), math.MaxInt)
	for scanner.Scan() {
		input.Set(scanner.Text())
		input.SubmitTo(ctrl)
	}
	ctrl.Wait()

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	return nil
}

func serveMetrics(addr string, m *metrics.Metrics, log *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	log.Info("Serving metrics", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("Metrics server stopped", zap.Error(err))
	}
}
