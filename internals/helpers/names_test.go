package helper

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFoldName(t *testing.T) {
	assert.Equal(t, "b.tech", FoldName("  B.Tech "))
	assert.Equal(t, "b tech cse", FoldName("B  Tech\tCSE"))
	assert.Equal(t, "b.tech", FoldName("Ｂ.Ｔｅｃｈ"), "full-width forms fold through NFKC")
}

func TestCleanName_KeepsCase(t *testing.T) {
	assert.Equal(t, "B. Tech", CleanName(" B.  Tech "))
}
