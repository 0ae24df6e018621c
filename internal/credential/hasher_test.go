package credential

import (
	"strings"
	"testing"
)

func TestHash_ProducesVerifiableHash(t *testing.T) {
	h := NewHasher()

	stored, err := h.Hash("secret123")
	if err != nil {
		t.Fatalf("Hash returned unexpected error: %v", err)
	}

	if !h.Verify("secret123", stored) {
		t.Error("Verify should succeed for the original password")
	}
}

func TestVerify_WrongPassword(t *testing.T) {
	h := NewHasher()

	stored, err := h.Hash("secret123")
	if err != nil {
		t.Fatalf("Hash returned unexpected error: %v", err)
	}

	if h.Verify("wrongpass", stored) {
		t.Error("Verify should fail for a different password")
	}
}

func TestHash_FreshSaltPerCall(t *testing.T) {
	h := NewHasher()

	first, err := h.Hash("secret123")
	if err != nil {
		t.Fatalf("Hash returned unexpected error: %v", err)
	}
	second, err := h.Hash("secret123")
	if err != nil {
		t.Fatalf("Hash returned unexpected error: %v", err)
	}

	if first == second {
		t.Error("two hashes of the same password should differ (fresh salts)")
	}

	// どちらの保存値でも元のパスワードを検証できる
	if !h.Verify("secret123", first) {
		t.Error("first hash should verify the original password")
	}
	if !h.Verify("secret123", second) {
		t.Error("second hash should verify the original password")
	}
}

func TestHash_StorageFormat(t *testing.T) {
	h := NewHasher()

	stored, err := h.Hash("secret123")
	if err != nil {
		t.Fatalf("Hash returned unexpected error: %v", err)
	}

	parts := strings.Split(stored, "$")
	if len(parts) != 3 {
		t.Fatalf("stored value should have 3 fields, got %d: %q", len(parts), stored)
	}
	if len(parts[0]) != saltLen*2 {
		t.Errorf("salt hex length = %d, want %d", len(parts[0]), saltLen*2)
	}
	if parts[1] != "310000" {
		t.Errorf("iterations = %q, want %q", parts[1], "310000")
	}
	if len(parts[2]) != hashKeyLen*2 {
		t.Errorf("derived key hex length = %d, want %d", len(parts[2]), hashKeyLen*2)
	}
}

func TestVerify_MalformedStoredValue(t *testing.T) {
	h := NewHasher()

	tests := []struct {
		name   string
		stored string
	}{
		{"空文字列", ""},
		{"フィールド不足", "deadbeef$310000"},
		{"フィールド過多", "a$1$b$c"},
		{"反復回数が非数値", "deadbeef$abc$deadbeef"},
		{"反復回数がゼロ", "deadbeef$0$deadbeef"},
		{"反復回数が負", "deadbeef$-1$deadbeef"},
		{"鍵が非hex", "deadbeef$310000$zzzz"},
		{"鍵長不一致", "deadbeef$310000$deadbeef"},
		{"ソルトが空", "$310000$" + strings.Repeat("ab", 32)},
		{"区切り文字のみ", "$$"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// フェイルクローズ: panicせずfalseを返す
			if h.Verify("secret123", tt.stored) {
				t.Errorf("Verify(%q) should return false", tt.stored)
			}
		})
	}
}

func TestVerify_HonorsStoredIterations(t *testing.T) {
	h := NewHasher()

	stored, err := h.Hash("secret123")
	if err != nil {
		t.Fatalf("Hash returned unexpected error: %v", err)
	}

	// 反復回数を書き換えると導出結果が変わり検証に失敗する。
	// 保存値の反復回数が実際に使われていることの確認。
	tampered := strings.Replace(stored, "$310000$", "$1000$", 1)
	if tampered == stored {
		t.Fatal("failed to tamper iterations field")
	}
	if h.Verify("secret123", tampered) {
		t.Error("Verify should fail when stored iterations are tampered")
	}
}
