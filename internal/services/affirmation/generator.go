package affirmation

import (
	"crypto/sha256"
	"encoding/hex"
	"math/rand/v2"
)

// FingerprintLength длина отпечатка в hex-символах.
const FingerprintLength = 16

// Generator собирает аффирмацию из случайных частей каталога.
// Безопасен для конкурентного использования: каталог не меняется после создания.
type Generator struct {
	catalog Catalog
	intn    func(n int) int
}

// NewGenerator создает генератор поверх каталога.
func NewGenerator(catalog Catalog) *Generator {
	return &Generator{
		catalog: catalog,
		intn:    rand.IntN,
	}
}

// Generate возвращает текст аффирмации и его отпечаток.
func (g *Generator) Generate() (string, string) {
	opening := g.catalog.Openings[g.intn(len(g.catalog.Openings))]
	core := g.catalog.Cores[g.intn(len(g.catalog.Cores))]
	ending := g.catalog.Endings[g.intn(len(g.catalog.Endings))]
	text := opening + " " + core + ending
	return text, Fingerprint(text)
}

// Fingerprint первые 16 hex-символов SHA-256 от текста.
func Fingerprint(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])[:FingerprintLength]
}
