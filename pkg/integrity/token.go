package integrity

import (
	"crypto/subtle"
	"encoding/binary"
	"encoding/hex"
	"hash"
	"time"

	"golang.org/x/crypto/sha3"
)

// Action names the workflow step a token attests to.
type Action string

const (
	ActionTeacherSign      Action = "TEACHER_SIGN"
	ActionDepartmentVerify Action = "DEPARTMENT_VERIFY"
	ActionDirectorRatify   Action = "DIRECTOR_RATIFY"
)

// Fields is the record content, signer and action a token is bound to.
// CreatedAt is the record's creation instant for every action, so each
// stage's token points back to the record's birth.
type Fields struct {
	ID         uint64
	Student    string
	CourseCode string
	Grade      int
	Semester   string
	Signer     string
	Action     Action
	CreatedAt  time.Time
}

// Generate returns the Keccak-256 fingerprint of f as 0x-prefixed hex.
// Strings are length-prefixed so adjacent fields cannot be shifted into
// each other to forge a collision.
func Generate(f Fields) string {
	h := sha3.NewLegacyKeccak256()
	writeUint(h, f.ID)
	writeString(h, f.Student)
	writeString(h, f.CourseCode)
	writeUint(h, uint64(int64(f.Grade)))
	writeString(h, f.Semester)
	writeString(h, f.Signer)
	writeString(h, string(f.Action))
	writeUint(h, uint64(f.CreatedAt.Unix()))
	return "0x" + hex.EncodeToString(h.Sum(nil))
}

// Matches recomputes the token for f and compares it with stored.
func Matches(f Fields, stored string) bool {
	if stored == "" {
		return false
	}
	expected := Generate(f)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(stored)) == 1
}

func writeUint(h hash.Hash, v uint64) {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	_, _ = h.Write(buf[:])
}

func writeString(h hash.Hash, s string) {
	writeUint(h, uint64(len(s)))
	_, _ = h.Write([]byte(s))
}
