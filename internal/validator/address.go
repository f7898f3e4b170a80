package validator

import (
	"strings"

	"powerchip/internal/domain/model"
)

var ufs = map[string]struct{}{
	"AC": {}, "AL": {}, "AP": {}, "AM": {}, "BA": {}, "CE": {}, "DF": {}, "ES": {}, "GO": {},
	"MA": {}, "MT": {}, "MS": {}, "MG": {}, "PA": {}, "PB": {}, "PR": {}, "PE": {}, "PI": {},
	"RJ": {}, "RN": {}, "RS": {}, "RO": {}, "RR": {}, "SC": {}, "SP": {}, "SE": {}, "TO": {},
}

// CEP（8桁、全部0は不可）
func IsCEP(s string) bool {
	d := OnlyDigits(s)
	return len(d) == 8 && d != "00000000"
}

// 配送先住所の検証
func ValidateShippingAddress(a model.ShippingAddress) error {
	if strings.TrimSpace(a.Street) == "" {
		return invalid("shipping_address.street", "required")
	}
	if strings.TrimSpace(a.Number) == "" {
		return invalid("shipping_address.number", "required")
	}
	if strings.TrimSpace(a.City) == "" {
		return invalid("shipping_address.city", "required")
	}
	if _, ok := ufs[strings.ToUpper(strings.TrimSpace(a.State))]; !ok {
		return invalid("shipping_address.state", "invalid")
	}
	if !IsCEP(a.ZipCode) {
		return invalid("shipping_address.zip_code", "invalid")
	}
	return nil
}

// 保存前の整形
func NormalizeShippingAddress(a model.ShippingAddress) model.ShippingAddress {
	a.Street = strings.TrimSpace(a.Street)
	a.Number = strings.TrimSpace(a.Number)
	a.Complement = strings.TrimSpace(a.Complement)
	a.Neighborhood = strings.TrimSpace(a.Neighborhood)
	a.City = strings.TrimSpace(a.City)
	a.State = strings.ToUpper(strings.TrimSpace(a.State))
	d := OnlyDigits(a.ZipCode)
	if len(d) == 8 {
		a.ZipCode = d[:5] + "-" + d[5:]
	}
	if strings.TrimSpace(a.Country) == "" {
		a.Country = "Brasil"
	}
	return a
}
