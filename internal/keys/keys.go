// Package keys generates the ephemeral RSA key pair used for
// intra-cluster SSH. Keys live only in memory: the public text is an
// OpenSSH authorized_keys line, the private text is a PEM-encoded PKCS#1
// blob, and nothing ever touches the caller's filesystem.
package keys

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"

	"golang.org/x/crypto/ssh"

	"github.com/Nyansa/flintrock/internal/cluster"
)

// keyBits matches original_source's ssh-keygen invocation (-t rsa with
// the default-strength 2048-bit modulus).
const keyBits = 2048

// Generate produces a fresh 2048-bit RSA key pair and returns it as the
// (public, private) text pair the orchestrator pushes to every node.
func Generate() (cluster.KeyPairText, error) {
	priv, err := rsa.GenerateKey(rand.Reader, keyBits)
	if err != nil {
		return cluster.KeyPairText{}, fmt.Errorf("generating RSA key: %w", err)
	}

	privPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(priv),
	})

	pub, err := ssh.NewPublicKey(&priv.PublicKey)
	if err != nil {
		return cluster.KeyPairText{}, fmt.Errorf("deriving SSH public key: %w", err)
	}

	return cluster.KeyPairText{
		PublicText:  string(ssh.MarshalAuthorizedKey(pub)),
		PrivateText: string(privPEM),
	}, nil
}

// Signer parses a PEM-encoded private key produced by Generate back into
// an ssh.Signer, for transport code that needs to authenticate with it.
func Signer(privateText string) (ssh.Signer, error) {
	return ssh.ParsePrivateKey([]byte(privateText))
}
