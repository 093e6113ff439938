package auth

import "golang.org/x/crypto/bcrypt"

// OperatorCredentials hold the single operator identity allowed to read the
// usage surface.
type OperatorCredentials struct {
	Key        string
	SecretHash string
}

// HashSecret hashes a plaintext operator secret with the configured cost.
func HashSecret(secret string, cost int) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(secret), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// VerifySecret checks a presented secret against the stored hash.
func (oc OperatorCredentials) VerifySecret(secret string) error {
	return bcrypt.CompareHashAndPassword([]byte(oc.SecretHash), []byte(secret))
}
