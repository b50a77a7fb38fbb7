package main

import (
	"encoding/json"
	"net/http"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/lilrhino/dojopal-api/internal/platform/auth/jwks_testutil"
	"github.com/lilrhino/dojopal-api/internal/platform/config"
	"github.com/lilrhino/dojopal-api/internal/platform/logging"
)

// Tiny dev-only JWT issuer + JWKS server.
//
// This is NOT a full OIDC provider. It exists to support local development against
// real RS256 JWT verification (iss/aud/exp + JWKS).

// Subjects double as account ids, so the issuer refuses anything the API would reject.
var subjectPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,128}$`)

func main() {
	_ = config.LoadDotEnv(".env")

	log, err := logging.NewLogger(getenv("APP_ENV", "development"))
	if err != nil {
		_, _ = os.Stderr.WriteString("logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	port := getenv("PORT", "5556")
	issuer := getenv("ISSUER", "http://devjwt:5556")
	audience := getenv("AUDIENCE", "dojopal")
	kid := getenv("KID", "dev-kid-1")
	ttl := getenvDuration("TTL", 30*time.Minute)

	kp, err := jwks_testutil.GenerateRSAKeypair(kid)
	if err != nil {
		log.Fatal("generate key", zap.Error(err))
	}
	jwksJSON := jwks_testutil.JWKSJSON([]jwks_testutil.Keypair{kp})

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// Common JWKS path used by many providers.
	r.Get("/.well-known/jwks.json", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(jwksJSON)
	})

	// Mint a JWT:
	//   GET /token?sub=dev-alice
	r.Get("/token", func(w http.ResponseWriter, r *http.Request) {
		sub := strings.TrimSpace(r.URL.Query().Get("sub"))
		if !subjectPattern.MatchString(sub) {
			http.Error(w, "sub must match [a-zA-Z0-9_-]{1,128}", http.StatusBadRequest)
			return
		}

		now := time.Now().UTC()
		skew := -5 * time.Second
		token, err := jwks_testutil.MintRS256JWT(kp, issuer, audience, sub, now, ttl, &skew)
		if err != nil {
			log.Error("mint token", zap.Error(err))
			http.Error(w, "failed to mint token", http.StatusInternalServerError)
			return
		}
		log.Info("token minted", zap.String("sub", sub))

		render(w, map[string]any{
			"token": token,
			"sub":   sub,
			"iss":   issuer,
			"aud":   audience,
			"exp":   now.Add(ttl).Unix(),
		})
	})

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Info("devjwt listening",
		zap.String("port", port),
		zap.String("iss", issuer),
		zap.String("aud", audience),
		zap.String("kid", kid),
		zap.Duration("ttl", ttl),
	)
	if err := srv.ListenAndServe(); err != nil {
		log.Fatal("listen", zap.Error(err))
	}
}

func getenv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getenvDuration(k string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func render(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
