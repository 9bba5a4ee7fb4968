package main

import (
	"context"
	"flag"
	"image"
	"net/http"
	_ "net/http/pprof" // registers debug handlers on the default mux
	"os"
	"time"

	_ "image/jpeg"
	_ "image/png"

	"github.com/google/uuid"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"wander/client"
)

var (
	serverURL = flag.String("server", "ws://localhost:8080/ws", "game server websocket URL")
	username  = flag.String("name", "", "display name (random guest name when empty)")
	worldPath = flag.String("world", "world.png", "world map image")
	debugAddr = flag.String("debug-addr", "localhost:6060", "pprof/metrics listen address, empty to disable")
	logPath   = flag.String("log", "wander.log", "log file path")
	showDebug = flag.Bool("debug", false, "show the on-screen debug line and log at debug level")
)

func main() {
	flag.Parse()

	log := newLogger(*logPath, *showDebug)
	defer log.Sync()

	name := *username
	if name == "" {
		name = "guest_" + uuid.New().String()[:8]
	}

	if *debugAddr != "" {
		http.Handle("/metrics", promhttp.Handler())
		go func() {
			if err := http.ListenAndServe(*debugAddr, nil); err != nil {
				log.Warnw("debug listener failed", "addr", *debugAddr, "error", err)
			}
		}()
	}

	registry := client.NewRegistry()
	avatars := client.NewAvatarCache(log)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	session, err := client.Dial(ctx, *serverURL, name, registry, avatars, log)
	cancel()
	if err != nil {
		log.Errorw("connect failed", "server", *serverURL, "error", err)
		os.Exit(1)
	}
	defer session.Close()

	input := client.NewInputTranslator(session)
	defer input.ReleaseAll()

	app := NewApp(session, registry, avatars, input, log, *showDebug)
	go loadWorld(app, *worldPath, log)

	ebiten.SetWindowSize(defaultScreenWidth, defaultScreenHeight)
	ebiten.SetWindowTitle("Wander")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	if err := ebiten.RunGame(app); err != nil && err != ebiten.Termination {
		log.Fatalw("game loop failed", "error", err)
	}
	log.Infow("client exiting")
}

// loadWorld decodes the world map off the main thread. A missing or broken
// image only means the background is never painted.
func loadWorld(app *App, path string, log *zap.SugaredLogger) {
	f, err := os.Open(path)
	if err != nil {
		log.Warnw("world map unavailable", "path", path, "error", err)
		return
	}
	defer f.Close()
	img, format, err := image.Decode(f)
	if err != nil {
		log.Warnw("world map decode failed", "path", path, "error", err)
		return
	}
	app.setWorld(ebiten.NewImageFromImage(img))
	log.Infow("world map loaded", "path", path, "format", format,
		"width", img.Bounds().Dx(), "height", img.Bounds().Dy())
}
