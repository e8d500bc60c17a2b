package security

import "testing"

func TestPasswordHashAndCheck(t *testing.T) {
	t.Parallel()

	hash, errHash := HashPassword("correct horse battery staple")
	if errHash != nil {
		t.Fatalf("hash: %v", errHash)
	}
	if hash == "correct horse battery staple" {
		t.Fatal("hash equals plaintext")
	}
	if !CheckPassword(hash, "correct horse battery staple") {
		t.Fatal("valid password rejected")
	}
	if CheckPassword(hash, "wrong") {
		t.Fatal("wrong password accepted")
	}
	if CheckPassword("not-a-hash", "anything") {
		t.Fatal("garbage hash accepted")
	}
}
