package server

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"vols-bot/internal/config"
	"vols-bot/internal/tgbot"
)

func New(cfg config.Config, bot *tgbot.App) *http.Server {
	r := mux.NewRouter()

	r.HandleFunc("/webhook", func(w http.ResponseWriter, req *http.Request) {
		var upd tgbotapi.Update
		if err := json.NewDecoder(req.Body).Decode(&upd); err != nil {
			http.Error(w, "bad update", http.StatusBadRequest)
			return
		}
		bot.ProcessUpdate(req.Context(), upd)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}).Methods(http.MethodPost)

	r.HandleFunc("/ping", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("pong"))
	}).Methods(http.MethodGet)

	r.HandleFunc("/healthz", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	return &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}
}

// StartKeepAlive pings the service's own /ping endpoint every 10 minutes so
// free-tier hosting does not put the process to sleep.
func StartKeepAlive(pingURL string, stop <-chan struct{}) {
	if pingURL == "" {
		return
	}
	go func() {
		t := time.NewTicker(10 * time.Minute)
		defer t.Stop()
		for {
			select {
			case <-stop:
				return
			case <-t.C:
				resp, err := http.Get(pingURL + "/ping")
				if err != nil {
					log.Printf("keep-alive: %v", err)
					continue
				}
				resp.Body.Close()
			}
		}
	}()
}
