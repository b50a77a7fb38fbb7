package idempotency

import "testing"

func TestFingerprint_Digest(t *testing.T) {
	t.Parallel()

	fp := Fingerprint{Key: "k1", Subject: "owner-1", Method: "POST", Route: "/accounts/me/students"}
	a := fp.Digest("iss-a")
	if len(a) != 64 {
		t.Fatalf("len(Digest)=%d, want 64 hex chars", len(a))
	}
	if fp.Digest("iss-a") != a {
		t.Fatalf("Digest is not stable")
	}
	if fp.Digest("iss-b") == a {
		t.Fatalf("scope did not change the digest")
	}

	withBody := fp
	withBody.BodyHash = "abc"
	if withBody.Digest("iss-a") == a {
		t.Fatalf("body hash did not change the digest")
	}

	// Field boundaries matter: moving a character between fields is a different fingerprint.
	shifted := Fingerprint{Key: "k", Subject: "1owner-1", Method: "POST", Route: "/accounts/me/students"}
	if shifted.Digest("iss-a") == a {
		t.Fatalf("digest ignores field boundaries")
	}
}
