package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

func (g Gender) Valid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther:
		return true
	}
	return false
}

// --- ENTITÉ ---

// User est l'agrégat racine de l'annuaire. Le wallet est la clé de login
// externe ; Followers/Following sont les deux faces du graphe de suivi,
// stockées en miroir pour lire "qui je suis / qui me suit" sans jointure.
// Invariant : B ∈ A.Following ⟺ A ∈ B.Followers après chaque toggle complété.
type User struct {
	ID            string
	WalletAddress string // toujours canonique (minuscules, trim)
	Username      string
	Age           int
	Location      string
	Gender        Gender
	Bio           string
	Avatar        string // URL, jamais les octets
	Followers     IDSet
	Following     IDSet
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ProfileDefaults porte les champs optionnels fournis lors du connect-wallet.
type ProfileDefaults struct {
	Age      int
	Location string
	Gender   Gender
}

// NormalizeWallet ramène une adresse à sa forme canonique. La comparaison
// insensible à la casse se fait en normalisant à l'écriture ET à la lecture,
// pas par regex comme le ferait une recherche $regex côté Mongo.
func NormalizeWallet(addr string) string {
	return strings.ToLower(strings.TrimSpace(addr))
}

// --- FACTORY ---

// NewUserFromWallet crée l'utilisateur initial d'un connect-wallet.
// Le username par défaut est l'adresse elle-même (comportement historique du
// front : l'utilisateur le change ensuite via update-profile).
func NewUserFromWallet(walletAddress string, defaults ProfileDefaults) (*User, error) {
	wallet := NormalizeWallet(walletAddress)
	if wallet == "" {
		return nil, ErrWalletRequired
	}

	gender := defaults.Gender
	if gender == "" {
		gender = GenderOther
	}
	if !gender.Valid() {
		return nil, ErrInvalidGender
	}

	now := time.Now().UTC()
	return &User{
		ID:            uuid.NewString(), // l'identité est générée ICI, pas en DB
		WalletAddress: wallet,
		Username:      wallet,
		Age:           defaults.Age,
		Location:      defaults.Location,
		Gender:        gender,
		Followers:     IDSet{},
		Following:     IDSet{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// --- COMPORTEMENTS ---

// UpdateProfile applique une mise à jour partielle (nil = pas de changement).
func (u *User) UpdateProfile(username *string, age *int, location *string, gender *Gender) error {
	if gender != nil && !gender.Valid() {
		return ErrInvalidGender
	}
	if username != nil && strings.TrimSpace(*username) != "" {
		u.Username = strings.TrimSpace(*username)
	}
	if age != nil {
		u.Age = *age
	}
	if location != nil {
		u.Location = *location
	}
	if gender != nil {
		u.Gender = *gender
	}
	u.touch()
	return nil
}

func (u *User) SetBio(bio string) {
	u.Bio = bio
	u.touch()
}

func (u *User) SetAvatar(url string) {
	u.Avatar = url
	u.touch()
}

func (u *User) touch() {
	u.UpdatedAt = time.Now().UTC()
}

// --- GRAPHE DE SUIVI ---

// ToggleFollowEdge bascule l'arête follower->followee en mutant TOUJOURS les
// deux faces dans le même appel. C'est le seul point du code qui touche aux
// edge sets : les deux entités doivent ensuite être persistées dans la même
// transaction. Renvoie le nouvel état (true = suit désormais).
func ToggleFollowEdge(follower, followee *User) bool {
	if follower.Following.Contains(followee.ID) {
		follower.Following.Remove(followee.ID)
		followee.Followers.Remove(follower.ID)
		follower.touch()
		followee.touch()
		return false
	}
	follower.Following.Add(followee.ID)
	followee.Followers.Add(follower.ID)
	follower.touch()
	followee.touch()
	return true
}

// FollowEdgeConsistent vérifie la symétrie de l'arête entre deux entités en
// mémoire. Utilisé par les repositories avant commit : une asymétrie détectée
// ici se traduit par ErrConsistency et un rollback.
func FollowEdgeConsistent(follower, followee *User) bool {
	return follower.Following.Contains(followee.ID) == followee.Followers.Contains(follower.ID)
}
