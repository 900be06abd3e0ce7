package id

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// alphabet avoids look-alike characters so ids survive being read aloud or
// copied from a terminal.
const alphabet = "23456789abcdefghjkmnpqrstuvwxyz"

// size gives ~59 bits of entropy, plenty for correlating one shell run's log lines.
const size = 12

// Generate returns a prefixed random id such as "sh-k7m2q9xw4pza".
func Generate(prefix string) (string, error) {
	id, err := gonanoid.Generate(alphabet, size)
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// MustGenerate is like Generate but panics if the system has no entropy.
func MustGenerate(prefix string) string {
	id, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return id
}

// Session returns a fresh id for one interactive shell run.
func Session() string {
	return MustGenerate("sh")
}
