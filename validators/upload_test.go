package validators

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpiryValidator(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    *int64
		wantErr bool
	}{
		{"absent", "", nil, false},
		{"zero", "0", int64p(0), false},
		{"plain", "60", int64p(60), false},
		{"negative", "-5", nil, true},
		{"not a number", "tomorrow", nil, true},
		{"float", "1.5", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExpiryValidator(tt.raw)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrBadExpiry)
				return
			}

			require.NoError(t, err)
			if tt.want == nil {
				assert.Nil(t, got)
			} else {
				require.NotNil(t, got)
				assert.Equal(t, *tt.want, *got)
			}
		})
	}
}

func TestTypeAllowed(t *testing.T) {
	allowed := []string{"image/", "application/pdf"}

	assert.True(t, typeAllowed("image/png", allowed))
	assert.True(t, typeAllowed("application/pdf", allowed))
	assert.False(t, typeAllowed("application/zip", allowed))
	assert.False(t, typeAllowed("video/mp4", allowed))
}

func TestDeviceNameValidator(t *testing.T) {
	assert.NoError(t, DeviceNameValidator("kitchen-pi"))
	assert.ErrorIs(t, DeviceNameValidator(""), ErrNoDeviceName)

	long := make([]byte, maxDeviceNameSize+1)
	for i := range long {
		long[i] = 'a'
	}
	assert.ErrorIs(t, DeviceNameValidator(string(long)), ErrNameTooLong)
}

func int64p(v int64) *int64 {
	return &v
}
