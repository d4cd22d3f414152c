package main

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"

	"github.com/rs/zerolog"

	"github.com/ayusman/lazarillo/internal/app"
	"github.com/ayusman/lazarillo/internal/assistant"
	"github.com/ayusman/lazarillo/internal/config"
	"github.com/ayusman/lazarillo/internal/detect"
	"github.com/ayusman/lazarillo/internal/server"
	"github.com/ayusman/lazarillo/internal/speech"
	"github.com/ayusman/lazarillo/internal/store"
	"github.com/ayusman/lazarillo/internal/tray"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		basicLogger().Fatal().Err(err).Msg("failed to load configuration")
	}

	logger := newLogger(cfg.Log.Level)
	logger.Info().Msg("Lazarillo - asistente visual")

	dbPath, err := cfg.StorePath()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to resolve database path")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		logger.Fatal().Err(err).Msg("failed to create data directory")
	}
	st, err := store.New(dbPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize store")
	}
	defer st.Close()

	var det detect.Detector
	if y, err := detect.NewYOLODetector(detect.Config{
		Model:         cfg.Detection.Model,
		MinConfidence: cfg.Detection.MinConfidence,
		ScriptPath:    cfg.Detection.ScriptPath,
	}); err == nil {
		det = y
		logger.Info().Msg("using YOLO object detection")
	} else {
		logger.Warn().Err(err).Msg("YOLO unavailable, using mock detector")
		det = detect.NewMockDetector()
	}

	a := app.New(app.Config{
		Store:        st,
		Logger:       logger.With().Str("component", "app").Logger(),
		CameraID:     cfg.Camera.ID,
		MotionThresh: cfg.Camera.MotionThresh,
		Thresholds:   cfg.Thresholds(),
		Cooldowns:    cfg.Cooldowns(),
		Detector:     det,
		VoiceVolume:  cfg.Voice.Volume,
	})
	defer a.Close()

	a.SetSynthesizer(speech.NewGoogleTTS(speech.Config{
		Language: cfg.Voice.Language,
		Rate:     cfg.Voice.Rate,
	}))

	setAssistant := func(apiKey string) {
		if apiKey == "" {
			a.SetAssistant(nil)
			return
		}
		g, err := assistant.NewGemini(context.Background(), assistant.Config{
			APIKey:           apiKey,
			Model:            cfg.Gemini.Model,
			AnalysisCooldown: cfg.Gemini.AnalysisCooldown,
		})
		if err != nil {
			logger.Error().Err(err).Msg("failed to initialize assistant")
			a.SetAssistant(nil)
			return
		}
		a.SetAssistant(g)
		logger.Info().Msg("scene assistant enabled")
	}

	// Config key wins, otherwise fall back to the key saved from the UI.
	apiKey := cfg.Gemini.APIKey
	if apiKey == "" {
		if saved, err := st.Settings().Get(store.SettingGeminiAPIKey); err == nil {
			apiKey = saved
		} else if !errors.Is(err, store.ErrNotFound) {
			logger.Warn().Err(err).Msg("failed to read saved API key")
		}
	}
	setAssistant(apiKey)

	staticDir := cfg.Server.StaticDir
	if staticDir == "" {
		staticDir = findWebDir()
	}
	if staticDir != "" {
		logger.Info().Str("dir", staticDir).Msg("serving static files")
	}

	srv := server.New(server.Config{
		StaticDir:      staticDir,
		Store:          st,
		App:            a,
		Logger:         logger.With().Str("component", "server").Logger(),
		OnAPIKeyChange: setAssistant,
	})

	go func() {
		logger.Info().Str("addr", cfg.Server.Addr).Msg("starting server")
		if err := srv.ListenAndServe(cfg.Server.Addr); err != nil {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	tr := tray.New()
	tr.OnToggle(a.SetEnabled)
	tr.OnOpenUI(func() {
		openBrowser("http://localhost" + cfg.Server.Addr)
	})
	tr.OnQuit(a.Stop)

	go func() {
		alerts, cancel := a.Subscribe()
		defer cancel()
		for al := range alerts {
			tr.SetLastAlert(al.Message)
		}
	}()

	// Blocks until quit is selected from the menu.
	tr.Run()
}

func basicLogger() zerolog.Logger {
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	return zerolog.New(out).Level(lvl).With().Timestamp().Logger()
}

// findWebDir searches for the web directory in common locations.
func findWebDir() string {
	relativePaths := []string{"web", "../web", "../../web"}
	for _, p := range relativePaths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if absPath, err := filepath.Abs(p); err == nil {
				return absPath
			}
			return p
		}
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	homeWebDir := filepath.Join(homeDir, ".lazarillo", "web")
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}
	return ""
}

func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	cmd.Start()
}
