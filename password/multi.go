package password

// Multi hashes with a primary scheme and verifies hashes produced by any of its schemes.
// Hashes from a non-primary scheme always report NeedsRehash, so accounts migrate on next login.
type Multi struct {
	primary Scheme
	legacy  []Scheme
}

// NewMulti returns a Multi that hashes new passwords with primary and still accepts legacy hashes.
func NewMulti(primary Scheme, legacy ...Scheme) *Multi {
	return &Multi{primary: primary, legacy: legacy}
}

// Hash implements Hasher.
func (m *Multi) Hash(password string) (string, error) {
	return m.primary.Hash(password)
}

// Verify implements Hasher.
func (m *Multi) Verify(password, hash string) (bool, error) {
	s := m.schemeFor(hash)
	if s == nil {
		return false, ErrUnsupportedHash
	}
	return s.Verify(password, hash)
}

// NeedsRehash implements Hasher.
func (m *Multi) NeedsRehash(hash string) bool {
	if !m.primary.Recognizes(hash) {
		return true
	}
	return m.primary.NeedsRehash(hash)
}

func (m *Multi) schemeFor(hash string) Scheme {
	if m.primary.Recognizes(hash) {
		return m.primary
	}
	for _, s := range m.legacy {
		if s.Recognizes(hash) {
			return s
		}
	}
	return nil
}

var _ Hasher = (*Multi)(nil)
