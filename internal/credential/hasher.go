// Package credential はパスワードハッシュの導出と検証を提供する。
package credential

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// hashIterations は新規ハッシュ生成時のPBKDF2反復回数。
	// 保存形式に反復回数を埋め込むため、将来この値を引き上げても
	// 既存ハッシュの検証は壊れない。
	hashIterations = 310000
	// hashKeyLen は導出鍵長（バイト）。
	hashKeyLen = 32
	// saltLen はソルト長（バイト）。
	saltLen = 16
)

// Hasher はPBKDF2-HMAC-SHA-256によるパスワードハッシュ器。
// 保存形式は "saltHex$iterations$derivedKeyHex"。
type Hasher struct{}

// NewHasher はHasherを生成する。
func NewHasher() *Hasher {
	return &Hasher{}
}

// Hash はパスワードから保存用ハッシュ文字列を導出する。
// 呼び出しごとに新しい16バイトのランダムソルトを生成する。
func (h *Hasher) Hash(password string) (string, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	saltHex := hex.EncodeToString(salt)
	derived := pbkdf2.Key([]byte(password), []byte(saltHex), hashIterations, hashKeyLen, sha256.New)

	return fmt.Sprintf("%s$%d$%s", saltHex, hashIterations, hex.EncodeToString(derived)), nil
}

// Verify はパスワードを保存済みハッシュと照合する。
// 保存値に埋め込まれたソルトと反復回数で再導出し、定数時間比較で判定する。
// 保存値のパース失敗・フィールド不正・長さ不一致はすべてfalseを返す。
// 検証は常にフェイルクローズで、panicもerrorも発生させない。
func (h *Hasher) Verify(password, stored string) bool {
	parts := strings.Split(stored, "$")
	if len(parts) != 3 {
		return false
	}

	salt, iterationsStr, keyHex := parts[0], parts[1], parts[2]
	if salt == "" || keyHex == "" {
		return false
	}

	iterations, err := strconv.Atoi(iterationsStr)
	if err != nil || iterations <= 0 {
		return false
	}

	expected, err := hex.DecodeString(keyHex)
	if err != nil || len(expected) != hashKeyLen {
		return false
	}

	derived := pbkdf2.Key([]byte(password), []byte(salt), iterations, hashKeyLen, sha256.New)

	return subtle.ConstantTimeCompare(derived, expected) == 1
}
