package pass

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"caterrides-core/internal/models"
)

func acceptedApplication() models.Application {
	return models.Application{
		ID:        "app-1",
		EventID:   "ev-1",
		RiderID:   "rider-1",
		Status:    models.StatusAccepted,
		AppliedAt: time.Now().Add(-time.Hour),
		DecidedAt: time.Now(),
	}
}

func TestGenerateWorkPassProducesPNG(t *testing.T) {
	g := NewGenerator("test-secret")

	img, err := g.GenerateWorkPass(acceptedApplication())
	require.NoError(t, err)
	require.NotEmpty(t, img)

	// PNG magic bytes.
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, img[:4])
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	g := NewGenerator("test-secret")

	encrypted, err := encryptAES([]byte(`{"applicationId":"app-1"}`), g.secret)
	require.NoError(t, err)
	assert.NotContains(t, encrypted, "app-1")

	decrypted, err := decryptAES(encrypted, g.secret)
	require.NoError(t, err)
	assert.Equal(t, `{"applicationId":"app-1"}`, string(decrypted))
}

func TestDecodePass(t *testing.T) {
	g := NewGenerator("test-secret")
	app := acceptedApplication()

	data, err := encryptAES(mustPayload(t, app), g.secret)
	require.NoError(t, err)

	appID, eventID, riderID, err := g.DecodePass(data)
	require.NoError(t, err)
	assert.Equal(t, "app-1", appID)
	assert.Equal(t, "ev-1", eventID)
	assert.Equal(t, "rider-1", riderID)
}

func TestDecodePassWrongSecret(t *testing.T) {
	issuer := NewGenerator("issuer-secret")
	forger := NewGenerator("other-secret")

	data, err := encryptAES(mustPayload(t, acceptedApplication()), issuer.secret)
	require.NoError(t, err)

	_, _, _, err = forger.DecodePass(data)
	assert.Error(t, err)
}

func mustPayload(t *testing.T, app models.Application) []byte {
	t.Helper()
	data, err := json.Marshal(payload{
		ApplicationID: app.ID,
		EventID:       app.EventID,
		RiderID:       app.RiderID,
		DecidedAt:     app.DecidedAt,
		IssuedAt:      time.Now().UTC(),
	})
	require.NoError(t, err)
	return data
}
