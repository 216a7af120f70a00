// Package fuzzy реализует оценку похожести строк для запасного поиска товаров.
//
// Слоги хангыля раскладываются на чамо (NFD), поэтому опечатка в одной
// согласной ("깜자" вместо "감자") стоит одного символа, а не целого слога.
// Сами оценки считает go-fuzzywuzzy по разложенным строкам.
package fuzzy

import (
	"strings"

	fuzzywuzzy "github.com/paul-mannino/go-fuzzywuzzy"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Canonical приводит имя к виду для хранения: NFC без крайних пробелов, регистр сохраняется.
func Canonical(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// Normalize приводит строку к виду для точного поиска: NFC, нижний регистр, без крайних пробелов.
func Normalize(s string) string {
	return cases.Lower(language.Und).String(Canonical(s))
}

func decompose(s string) string {
	return norm.NFD.String(Normalize(s))
}

// Ratio возвращает похожесть двух строк целиком в диапазоне [0,100].
// Пустые строки ни на что не похожи.
func Ratio(a, b string) int {
	da, db := decompose(a), decompose(b)
	if da == "" || db == "" {
		return 0
	}
	return fuzzywuzzy.Ratio(da, db)
}

// PartialRatio возвращает лучшую похожесть более короткой строки с окном
// той же длины в более длинной, в диапазоне [0,100].
func PartialRatio(a, b string) int {
	da, db := decompose(a), decompose(b)
	if da == "" || db == "" {
		return 0
	}
	return fuzzywuzzy.PartialRatio(da, db)
}
