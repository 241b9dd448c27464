package utils

import (
	"crypto/rand"
	"math/big"
	"regexp"

	"golang.org/x/crypto/bcrypt"
)

const deviceIDLength = 20

const deviceIDCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

var deviceIDPattern = regexp.MustCompile(`^[a-zA-Z0-9]{20}$`)

// GenerateDeviceID 生成 20 位字母数字的设备标识
// 客户端首次注册时若未携带 device_id，由服务端代为生成
func GenerateDeviceID() (string, error) {
	buf := make([]byte, deviceIDLength)
	max := big.NewInt(int64(len(deviceIDCharset)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = deviceIDCharset[n.Int64()]
	}
	return string(buf), nil
}

// ValidateDeviceID 校验设备标识格式（20 位字母数字）
func ValidateDeviceID(deviceID string) bool {
	return deviceIDPattern.MatchString(deviceID)
}

// ValidateDisplayName 校验展示名（非空且不超过 50 字符）
func ValidateDisplayName(name string) bool {
	return len(name) > 0 && len(name) <= 50
}

// ValidateRoomName 校验房间名（非空且不超过 100 字符）
func ValidateRoomName(name string) bool {
	return len(name) > 0 && len(name) <= 100
}

// HashPassword 使用 bcrypt 对密码进行哈希
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(hash), err
}

// CheckPassword 验证密码，bcrypt 的比较是常数时间的
func CheckPassword(hashedPassword, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
	return err == nil
}
