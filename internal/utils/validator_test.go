package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestGenerateDeviceID(t *testing.T) {
	seen := make(map[string]bool)
	for range 100 {
		id, err := GenerateDeviceID()
		require.NoError(t, err)
		assert.True(t, ValidateDeviceID(id), "generated id %q must validate", id)
		assert.False(t, seen[id], "device ids must not repeat")
		seen[id] = true
	}
}

func TestValidateDeviceID(t *testing.T) {
	assert.True(t, ValidateDeviceID("abcDEF1234567890abcd"))
	assert.False(t, ValidateDeviceID(""))
	assert.False(t, ValidateDeviceID("short"))
	assert.False(t, ValidateDeviceID("abcDEF1234567890abc!"))
	assert.False(t, ValidateDeviceID("abcDEF1234567890abcde")) // 21 chars
}

// 任何合法 device_id 恰好 20 位且只含字母数字；任何含非法字符或长度不对的串都被拒绝
func TestValidateDeviceIDProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		id := rapid.StringMatching(`[a-zA-Z0-9]{20}`).Draw(t, "id")
		if !ValidateDeviceID(id) {
			t.Fatalf("well-formed id rejected: %q", id)
		}
	})

	rapid.Check(t, func(t *rapid.T) {
		id := rapid.String().Draw(t, "id")
		if len(id) == 20 {
			return
		}
		if ValidateDeviceID(id) {
			t.Fatalf("id of length %d accepted: %q", len(id), id)
		}
	})
}

func TestValidateDisplayName(t *testing.T) {
	assert.True(t, ValidateDisplayName("alice"))
	assert.False(t, ValidateDisplayName(""))

	long := make([]byte, 51)
	for i := range long {
		long[i] = 'a'
	}
	assert.False(t, ValidateDisplayName(string(long)))
}

func TestValidateRoomName(t *testing.T) {
	assert.True(t, ValidateRoomName("general"))
	assert.False(t, ValidateRoomName(""))

	long := make([]byte, 101)
	for i := range long {
		long[i] = 'a'
	}
	assert.False(t, ValidateRoomName(string(long)))
}

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	require.NoError(t, err)
	require.NotEqual(t, "s3cret-pass", hash)

	assert.True(t, CheckPassword(hash, "s3cret-pass"))
	assert.False(t, CheckPassword(hash, "wrong"))
	assert.False(t, CheckPassword("", "s3cret-pass"))
}
