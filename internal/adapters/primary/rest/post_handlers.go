package rest

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/blockfile/ffs/internal/core/domain"
	"github.com/blockfile/ffs/internal/core/ports"
)

type likeRequest struct {
	UserID string `json:"userId"`
}

// handleCreatePost attend un multipart/form-data (fichier "media" optionnel)
// ou un JSON simple quand il n'y a pas de fichier joint.
func (s *Server) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	var cmd ports.CreatePostCmd

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxUploadSize); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid multipart form", Code: "VALIDATION_ERROR"})
			return
		}

		cmd.AuthorID = r.FormValue("authorId")
		cmd.Type = domain.PostType(r.FormValue("type"))
		cmd.Description = r.FormValue("description")

		if file, header, err := r.FormFile("media"); err == nil {
			defer file.Close()
			cmd.Upload = &ports.MediaUpload{
				Filename:    header.Filename,
				ContentType: header.Header.Get("Content-Type"),
				Size:        header.Size,
				Data:        file,
			}
		}
	} else {
		var req struct {
			AuthorID    string   `json:"authorId" validate:"required"`
			Type        string   `json:"type" validate:"required"`
			Description string   `json:"description" validate:"required"`
			Media       []string `json:"media"`
		}
		if err := s.decodeAndValidate(r, &req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Code: "VALIDATION_ERROR"})
			return
		}
		cmd = ports.CreatePostCmd{
			AuthorID:    req.AuthorID,
			Type:        domain.PostType(req.Type),
			Description: req.Description,
			MediaURLs:   req.Media,
		}
	}

	if cmd.AuthorID == "" {
		cmd.AuthorID = UserFromContext(r.Context())
	}

	post, err := s.posts.CreatePost(r.Context(), cmd)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, mapPost(post))
}

func (s *Server) handleGetPost(w http.ResponseWriter, r *http.Request) {
	post, err := s.posts.GetPost(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapPost(post))
}

func (s *Server) handleListPosts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))

	posts, next, err := s.posts.ListPosts(r.Context(), ports.ListPostsCmd{
		AuthorID:  q.Get("authorId"),
		Limit:     limit,
		PageToken: q.Get("pageToken"),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"posts":         mapPosts(posts),
		"nextPageToken": next,
	})
}

func (s *Server) handleListPostsByWallet(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))

	posts, next, err := s.posts.ListPosts(r.Context(), ports.ListPostsCmd{
		AuthorWallet: mux.Vars(r)["walletAddress"],
		Limit:        limit,
		PageToken:    q.Get("pageToken"),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"posts":         mapPosts(posts),
		"nextPageToken": next,
	})
}

func (s *Server) handleToggleLike(w http.ResponseWriter, r *http.Request) {
	postID := mux.Vars(r)["id"]

	var req likeRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Code: "VALIDATION_ERROR"})
		return
	}

	userID := req.UserID
	if userID == "" {
		userID = UserFromContext(r.Context())
	}

	post, err := s.engagement.ToggleLike(r.Context(), userID, postID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapPost(post))
}

func (s *Server) handleGetTimeline(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.ParseInt(q.Get("limit"), 10, 64)
	offset, _ := strconv.ParseInt(q.Get("offset"), 10, 64)

	var types []domain.PostType
	for _, t := range q["type"] {
		types = append(types, domain.PostType(t))
	}

	items, err := s.feed.GetTimeline(r.Context(), domain.FeedRequest{
		UserID: mux.Vars(r)["userID"],
		Limit:  limit,
		Offset: offset,
		Types:  types,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": mapFeedItems(items)})
}
