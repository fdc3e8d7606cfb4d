package pass

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"io"
	"time"

	"github.com/skip2/go-qrcode"

	"caterrides-core/internal/models"
)

// payload is what an accepted rider presents at event check-in. Encrypted so
// the pass cannot be forged from public application data.
type payload struct {
	ApplicationID string    `json:"applicationId"`
	EventID       string    `json:"eventId"`
	RiderID       string    `json:"riderId"`
	DecidedAt     time.Time `json:"decidedAt"`
	IssuedAt      time.Time `json:"issuedAt"`
}

type Generator struct {
	secret []byte
}

func NewGenerator(secret string) *Generator {
	hashed := sha256.Sum256([]byte(secret)) // normalize to 32 bytes
	return &Generator{secret: hashed[:]}
}

// GenerateWorkPass renders an encrypted QR image for an accepted
// application. Callers enforce the accepted-status check.
func (g *Generator) GenerateWorkPass(app models.Application) ([]byte, error) {
	data, err := json.Marshal(payload{
		ApplicationID: app.ID,
		EventID:       app.EventID,
		RiderID:       app.RiderID,
		DecidedAt:     app.DecidedAt,
		IssuedAt:      time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	encrypted, err := encryptAES(data, g.secret)
	if err != nil {
		return nil, err
	}

	return qrcode.Encode(encrypted, qrcode.Medium, 256)
}

// DecodePass decrypts a scanned pass back into its fields. Used by check-in
// tooling to verify a rider's pass offline.
func (g *Generator) DecodePass(encoded string) (applicationID, eventID, riderID string, err error) {
	data, err := decryptAES(encoded, g.secret)
	if err != nil {
		return "", "", "", err
	}

	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		return "", "", "", err
	}
	return p.ApplicationID, p.EventID, p.RiderID, nil
}

func encryptAES(data []byte, key []byte) (string, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}

	ciphertext := make([]byte, aes.BlockSize+len(data))
	iv := ciphertext[:aes.BlockSize]

	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return "", err
	}

	stream := cipher.NewCFBEncrypter(block, iv)
	stream.XORKeyStream(ciphertext[aes.BlockSize:], data)

	return base64.URLEncoding.EncodeToString(ciphertext), nil
}

func decryptAES(encoded string, key []byte) ([]byte, error) {
	ciphertext, err := base64.URLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	if len(ciphertext) < aes.BlockSize {
		return nil, io.ErrUnexpectedEOF
	}

	iv := ciphertext[:aes.BlockSize]
	data := make([]byte, len(ciphertext)-aes.BlockSize)

	stream := cipher.NewCFBDecrypter(block, iv)
	stream.XORKeyStream(data, ciphertext[aes.BlockSize:])

	return data, nil
}
