package rest

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/blockfile/ffs/internal/core/domain"
	"github.com/blockfile/ffs/internal/core/ports"
)

const maxUploadSize = 10 << 20 // 10 MiB

// --- DTOs ---

type connectWalletRequest struct {
	WalletAddress string `json:"walletAddress" validate:"required"`
	Age           int    `json:"age" validate:"omitempty,gte=0,lte=150"`
	Location      string `json:"location"`
	Gender        string `json:"gender" validate:"omitempty,oneof=male female other"`
}

type updateProfileRequest struct {
	WalletAddress string  `json:"walletAddress" validate:"required"`
	Username      *string `json:"username"`
	Age           *int    `json:"age" validate:"omitempty,gte=0,lte=150"`
	Location      *string `json:"location"`
	Gender        *string `json:"gender" validate:"omitempty,oneof=male female other"`
}

type updateBioRequest struct {
	WalletAddress string `json:"walletAddress" validate:"required"`
	Bio           string `json:"bio" validate:"required"`
}

type followRequest struct {
	FollowerID     string `json:"followerId"`
	FolloweeID     string `json:"followeeId"`
	FolloweeWallet string `json:"followeeWallet"` // alternative historique à followeeId
}

// --- HANDLERS ---

func (s *Server) handleConnectWallet(w http.ResponseWriter, r *http.Request) {
	var req connectWalletRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Code: "VALIDATION_ERROR"})
		return
	}

	resp, err := s.directory.ConnectWallet(r.Context(), ports.ConnectWalletCmd{
		WalletAddress: req.WalletAddress,
		Age:           req.Age,
		Location:      req.Location,
		Gender:        domain.Gender(req.Gender),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":     "Wallet connected",
		"user":        mapUser(resp.User),
		"accessToken": resp.AccessToken,
	})
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	wallet := mux.Vars(r)["walletAddress"]

	user, err := s.directory.ResolveByWallet(r.Context(), wallet)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapUser(user))
}

// handleGetUserByID : lookup par id interne (les événements et les edge sets
// transportent des ids, pas des wallets).
func (s *Server) handleGetUserByID(w http.ResponseWriter, r *http.Request) {
	user, err := s.directory.GetUser(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapUser(user))
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req updateProfileRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Code: "VALIDATION_ERROR"})
		return
	}

	var gender *domain.Gender
	if req.Gender != nil {
		g := domain.Gender(*req.Gender)
		gender = &g
	}

	user, err := s.directory.UpdateProfile(r.Context(), ports.UpdateProfileCmd{
		WalletAddress: req.WalletAddress,
		Username:      req.Username,
		Age:           req.Age,
		Location:      req.Location,
		Gender:        gender,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"message": "Profile updated", "user": mapUser(user)})
}

func (s *Server) handleUpdateBio(w http.ResponseWriter, r *http.Request) {
	var req updateBioRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Code: "VALIDATION_ERROR"})
		return
	}

	user, err := s.directory.UpdateBio(r.Context(), req.WalletAddress, req.Bio)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Bio updated", "bio": user.Bio})
}

// handleUploadAvatar attend un multipart/form-data : champ "walletAddress" +
// fichier "avatar". Les octets partent vers MediaStorage, seul l'URL revient.
func (s *Server) handleUploadAvatar(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid multipart form", Code: "VALIDATION_ERROR"})
		return
	}

	wallet := r.FormValue("walletAddress")
	file, header, err := r.FormFile("avatar")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "avatar file is required", Code: "VALIDATION_ERROR"})
		return
	}
	defer file.Close()

	user, err := s.directory.UpdateAvatar(r.Context(), ports.UpdateAvatarCmd{
		WalletAddress: wallet,
		Upload: ports.MediaUpload{
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Size:        header.Size,
			Data:        file,
		},
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"message": "Avatar updated", "avatar": user.Avatar})
}

func (s *Server) handleToggleFollow(w http.ResponseWriter, r *http.Request) {
	var req followRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Code: "VALIDATION_ERROR"})
		return
	}

	// Follower implicite : l'utilisateur authentifié
	followerID := req.FollowerID
	if followerID == "" {
		followerID = UserFromContext(r.Context())
	}

	// Followee par wallet (comportement historique du front) ou par id
	followeeID := req.FolloweeID
	if followeeID == "" && req.FolloweeWallet != "" {
		followee, err := s.directory.ResolveByWallet(r.Context(), req.FolloweeWallet)
		if err != nil {
			writeError(w, err)
			return
		}
		followeeID = followee.ID
	}

	result, err := s.engagement.ToggleFollow(r.Context(), followerID, followeeID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":        true,
		"isFollowing":    result.IsFollowing,
		"followerCount":  result.FollowerCount,
		"followingCount": result.FollowingCount,
	})
}
