// Command devserver runs the local playground game server. It speaks the
// same JSON protocol as the real server so the wander client can be run end
// to end on one machine:
//
//	go run ./devserver &
//	go run . -name alice
package main

import (
	"flag"
	"net/http"
	_ "net/http/pprof"
	"os"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"wander/server"
)

var (
	addr    = flag.String("addr", ":8080", "http service address")
	logPath = flag.String("log", "devserver.log", "log file path")
)

func main() {
	flag.Parse()

	log := newLogger(*logPath)
	defer log.Sync()

	hub := server.NewHub(log)
	go hub.Run()

	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		server.ServeWs(hub, log, w, r)
	})
	http.Handle("/metrics", promhttp.Handler())
	http.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	log.Infow("devserver listening", "addr", *addr)
	if err := http.ListenAndServe(*addr, nil); err != nil {
		log.Fatalw("listen failed", "error", err)
	}
}

func newLogger(filePath string) *zap.SugaredLogger {
	lj := &lumberjack.Logger{Filename: filePath, MaxSize: 10, MaxBackups: 3, MaxAge: 7}
	encCfg := zapcore.EncoderConfig{
		TimeKey:      "ts",
		LevelKey:     "level",
		MessageKey:   "msg",
		CallerKey:    "caller",
		LineEnding:   zapcore.DefaultLineEnding,
		EncodeLevel:  zapcore.CapitalLevelEncoder,
		EncodeTime:   zapcore.ISO8601TimeEncoder,
		EncodeCaller: zapcore.ShortCallerEncoder,
	}
	enc := zapcore.NewConsoleEncoder(encCfg)
	core := zapcore.NewTee(
		zapcore.NewCore(enc, zapcore.AddSync(lj), zapcore.InfoLevel),
		zapcore.NewCore(enc, zapcore.AddSync(os.Stdout), zapcore.InfoLevel),
	)
	return zap.New(core, zap.AddCaller()).Sugar()
}
