package utils

import "regexp"

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// IsValidEmail checks the local@domain.tld shape.
func IsValidEmail(v string) bool {
	return emailPattern.MatchString(v)
}

// IsValidCPF validates an 11-digit Brazilian tax id: rejects repeated-digit
// sequences and verifies both check digits (weighted sum mod 11).
func IsValidCPF(raw string) bool {
	cpf := OnlyDigits(raw)
	if len(cpf) != 11 {
		return false
	}

	repeated := true
	for i := 1; i < 11; i++ {
		if cpf[i] != cpf[0] {
			repeated = false
			break
		}
	}
	if repeated {
		return false
	}

	calc := func(base string, factor int) int {
		total := 0
		for i := 0; i < len(base); i++ {
			total += int(base[i]-'0') * (factor - i)
		}
		mod := (total * 10) % 11
		if mod == 10 {
			return 0
		}
		return mod
	}

	return calc(cpf[:9], 10) == int(cpf[9]-'0') &&
		calc(cpf[:10], 11) == int(cpf[10]-'0')
}
