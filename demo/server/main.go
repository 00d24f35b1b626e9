package main

import (
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	patrimonial "github.com/tingold/patrimonial-export"
	"github.com/tingold/patrimonial-export/internal/logger"
)

// Options are the local server flags. The function itself is configured
// through PATRIMONIAL_* variables only.
type Options struct {
	Addr          string `short:"a" long:"addr"           env:"LISTEN_ADDRESS" description:"Address to listen on"          default:"127.0.0.1"`
	Port          int    `short:"p" long:"port"           env:"LISTEN_PORT"    description:"Port to listen on"             default:"8888"`
	Path          string `long:"path"                     env:"FUNCTION_PATH"  description:"Function route"                default:"/.netlify/functions/generate-shapefile"`
	ScratchDir    string `long:"scratch-dir"              env:"SCRATCH_DIR"    description:"Parent of scratch directories"`
	DefaultFormat string `long:"default-format"           env:"DEFAULT_FORMAT" description:"Format when the request has none" default:"shapefile" choice:"shapefile" choice:"flatgeobuf"`
	LogLevel      string `short:"l" long:"log-level"      env:"LOG_LEVEL"      description:"Log level"                     default:"debug"`
	LogFormat     string `long:"log-format"               env:"LOG_FORMAT"     description:"Log format"                    default:"console" choice:"console" choice:"json"`
}

func main() {
	// .env is optional for local runs
	_ = godotenv.Load()

	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if err := logger.Setup(opts.LogLevel, opts.LogFormat); err != nil {
		log.Fatal().Err(err).Msg("Failed to set up logging")
	}

	h := patrimonial.NewHandler(&patrimonial.Options{
		ScratchDir:    opts.ScratchDir,
		DefaultFormat: patrimonial.Format(opts.DefaultFormat),
	})

	mux := http.NewServeMux()
	mux.Handle(opts.Path, functionHandler(h))

	listenAddr := fmt.Sprintf("%s:%d", opts.Addr, opts.Port)
	log.Info().
		Str("addr", listenAddr).
		Str("path", opts.Path).
		Msg("Local function server started")

	srv := &http.Server{
		Addr:              listenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		log.Fatal().Err(err).Msg("Server failed")
	}
}

// functionHandler converts HTTP requests into function events and writes the
// function response back, decoding base64 bodies as the function host does.
func functionHandler(h *patrimonial.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		headers := make(map[string]string, len(r.Header))
		for k := range r.Header {
			headers[k] = r.Header.Get(k)
		}

		event := events.APIGatewayProxyRequest{
			HTTPMethod: r.Method,
			Path:       r.URL.Path,
			Headers:    headers,
			Body:       string(body),
		}
		event.RequestContext.RequestID = fmt.Sprintf("local-%d", time.Now().UnixNano())

		resp, err := h.Handle(r.Context(), event)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}

		payload := []byte(resp.Body)
		if resp.IsBase64Encoded {
			payload, err = base64.StdEncoding.DecodeString(resp.Body)
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadGateway)
				return
			}
		}

		for k, v := range resp.Headers {
			w.Header().Set(k, v)
		}
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.WriteHeader(resp.StatusCode)
		_, _ = w.Write(payload)
	}
}
