package auth

import "testing"

// ハッシュ化したパスワードが元の平文と照合できることを検証
func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}
	if hash == "s3cret-pass" {
		t.Fatal("hash should not equal plaintext")
	}

	if !CheckPassword(hash, "s3cret-pass") {
		t.Error("CheckPassword should accept the original password")
	}
	if CheckPassword(hash, "wrong-pass") {
		t.Error("CheckPassword should reject a wrong password")
	}
}

// 同じパスワードでもハッシュが毎回異なる（ソルト付き）ことを検証
func TestHashPassword_Salted(t *testing.T) {
	h1, err := HashPassword("same-password")
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}
	h2, err := HashPassword("same-password")
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}
	if h1 == h2 {
		t.Error("two hashes of the same password should differ")
	}
}
