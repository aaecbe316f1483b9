package security

import "golang.org/x/crypto/bcrypt"

// BcryptService checks login attempts against the configured admin password
// hash. Hashes are generated out of band when the credential is provisioned.
type BcryptService struct{}

func NewBcryptService() *BcryptService {
	return &BcryptService{}
}

func (s *BcryptService) Compare(hash string, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}
