package domain

// IDSet est un ensemble d'identifiants à sémantique de set, stocké comme une
// slice pour sérialiser proprement en JSONB (l'ordre d'insertion est conservé
// mais ne porte aucun sens). Toutes les mutations passent par Add/Remove :
// pas de doublons possibles, contrairement à un simple append.
type IDSet []string

func (s IDSet) Contains(id string) bool {
	for _, v := range s {
		if v == id {
			return true
		}
	}
	return false
}

// Add insère l'id et renvoie true, ou renvoie false s'il était déjà présent.
func (s *IDSet) Add(id string) bool {
	if s.Contains(id) {
		return false
	}
	*s = append(*s, id)
	return true
}

// Remove retire l'id et renvoie true, ou renvoie false s'il était absent.
func (s *IDSet) Remove(id string) bool {
	for i, v := range *s {
		if v == id {
			*s = append((*s)[:i], (*s)[i+1:]...)
			return true
		}
	}
	return false
}

func (s IDSet) Len() int { return len(s) }

// Clone évite de partager le backing array entre deux entités.
func (s IDSet) Clone() IDSet {
	if s == nil {
		return IDSet{}
	}
	out := make(IDSet, len(s))
	copy(out, s)
	return out
}
