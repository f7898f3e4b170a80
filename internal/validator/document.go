package validator

import "strings"

// OnlyDigits は書式（. - /）を取り除く
func OnlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// CPF（11桁、検証用の2桁）
func IsCPF(s string) bool {
	d := OnlyDigits(s)
	if len(d) != 11 || allSame(d) {
		return false
	}
	return checkDigit(d[:9], weightsFrom(10, 9)) == int(d[9]-'0') &&
		checkDigit(d[:10], weightsFrom(11, 10)) == int(d[10]-'0')
}

var (
	cnpjWeights1 = []int{5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
	cnpjWeights2 = []int{6, 5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
)

// CNPJ（14桁）
func IsCNPJ(s string) bool {
	d := OnlyDigits(s)
	if len(d) != 14 || allSame(d) {
		return false
	}
	return checkDigit(d[:12], cnpjWeights1) == int(d[12]-'0') &&
		checkDigit(d[:13], cnpjWeights2) == int(d[13]-'0')
}

// boletoの支払者識別に使える番号か
func IsTaxID(s string) bool {
	return IsCPF(s) || IsCNPJ(s)
}

// TaxIDType は Mercado Pago の identification.type
func TaxIDType(s string) string {
	if len(OnlyDigits(s)) == 14 {
		return "CNPJ"
	}
	return "CPF"
}

func checkDigit(digits string, weights []int) int {
	sum := 0
	for i := range digits {
		sum += int(digits[i]-'0') * weights[i]
	}
	rem := sum % 11
	if rem < 2 {
		return 0
	}
	return 11 - rem
}

func weightsFrom(start, n int) []int {
	w := make([]int, n)
	for i := range w {
		w[i] = start - i
	}
	return w
}

func allSame(d string) bool {
	return strings.Count(d, d[:1]) == len(d)
}
