package rest

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/blockfile/ffs/internal/core/domain"
	"github.com/blockfile/ffs/internal/core/ports"
)

// Server est l'adapter primaire REST. L'API reprend la surface historique
// du front (routes /api/user/* et /api/posts/*) plus la lecture de timeline.
type Server struct {
	directory  ports.DirectoryService
	posts      ports.PostService
	engagement ports.EngagementService
	feed       ports.FeedService
	tokens     ports.TokenProvider
	validate   *validator.Validate
	uploadsDir string // "" = pas de serving statique (mode S3)
}

func NewServer(
	directory ports.DirectoryService,
	posts ports.PostService,
	engagement ports.EngagementService,
	feed ports.FeedService,
	tokens ports.TokenProvider,
	uploadsDir string,
) *Server {
	return &Server{
		directory:  directory,
		posts:      posts,
		engagement: engagement,
		feed:       feed,
		tokens:     tokens,
		validate:   validator.New(),
		uploadsDir: uploadsDir,
	}
}

// Handler assemble le routeur complet : routes, auth, CORS, tracing.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(s.authMiddleware)

	// Annuaire / profil
	api.HandleFunc("/user/connect-wallet", s.handleConnectWallet).Methods(http.MethodPost)
	api.HandleFunc("/user/follow", s.handleToggleFollow).Methods(http.MethodPost)
	api.HandleFunc("/user/update-profile", s.handleUpdateProfile).Methods(http.MethodPost)
	api.HandleFunc("/user/update-bio", s.handleUpdateBio).Methods(http.MethodPost)
	api.HandleFunc("/user/upload-avatar", s.handleUploadAvatar).Methods(http.MethodPost)
	api.HandleFunc("/user/{walletAddress}", s.handleGetUser).Methods(http.MethodGet)
	api.HandleFunc("/users/{id}", s.handleGetUserByID).Methods(http.MethodGet)

	// Posts / engagement
	api.HandleFunc("/posts", s.handleCreatePost).Methods(http.MethodPost)
	api.HandleFunc("/posts", s.handleListPosts).Methods(http.MethodGet)
	api.HandleFunc("/posts/user/{walletAddress}", s.handleListPostsByWallet).Methods(http.MethodGet)
	api.HandleFunc("/posts/{id}", s.handleGetPost).Methods(http.MethodGet)
	api.HandleFunc("/posts/{id}/like", s.handleToggleLike).Methods(http.MethodPut)

	// Timeline
	api.HandleFunc("/feed/{userID}", s.handleGetTimeline).Methods(http.MethodGet)

	// Assets locaux (mode LocalStorage uniquement)
	if s.uploadsDir != "" {
		r.PathPrefix("/uploads/").Handler(
			http.StripPrefix("/uploads/", http.FileServer(http.Dir(s.uploadsDir))))
	}

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	})

	return otelhttp.NewHandler(c.Handler(r), "rest")
}

// --- RÉPONSES ---

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// writeError traduit les sentinelles du domaine en statuts HTTP. Tout ce qui
// n'est pas reconnu est un 500 loggé côté serveur, message générique côté
// client.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrPostNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error(), Code: "NOT_FOUND"})

	case errors.Is(err, domain.ErrSelfFollow):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error(), Code: "INVALID_OPERATION"})

	case errors.Is(err, domain.ErrWalletRequired),
		errors.Is(err, domain.ErrDescriptionRequired),
		errors.Is(err, domain.ErrInvalidPostType),
		errors.Is(err, domain.ErrInvalidGender):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Code: "VALIDATION_ERROR"})

	case errors.Is(err, domain.ErrInvalidToken):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error(), Code: "UNAUTHORIZED"})

	case errors.Is(err, domain.ErrConsistency):
		// Jamais masqué en succès : la transaction a été annulée, le client
		// doit voir un 5xx.
		slog.Error("💥 Consistency violation surfaced", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error(), Code: "CONSISTENCY_ERROR"})

	default:
		slog.Error("Unhandled error", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "server error", Code: "INTERNAL"})
	}
}

func (s *Server) decodeAndValidate(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return err
	}
	return s.validate.Struct(dst)
}
