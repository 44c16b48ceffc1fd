package domain

import "errors"

// --- ERREURS DU DOMAINE ---
// Les adapters (REST, Postgres) traduisent depuis/vers ces sentinelles,
// jamais l'inverse.
var (
	ErrUserNotFound = errors.New("user not found")
	ErrPostNotFound = errors.New("post not found")
	ErrWalletExists = errors.New("wallet address already registered")
	ErrInvalidToken = errors.New("invalid token")

	// Validation
	ErrWalletRequired      = errors.New("wallet address is required")
	ErrDescriptionRequired = errors.New("description is required")
	ErrInvalidPostType     = errors.New("invalid post type")
	ErrInvalidGender       = errors.New("invalid gender")

	// Opérations interdites
	ErrSelfFollow = errors.New("cannot follow yourself")

	// ErrConsistency signale une divergence entre les deux faces d'une relation
	// miroir (following/followers) ou entre likes et liked_by. Fatal : la
	// transaction en cours DOIT être annulée, jamais commitée.
	ErrConsistency = errors.New("mirrored relationship diverged")
)
