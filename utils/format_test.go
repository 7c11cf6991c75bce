package utils_test

import (
	"testing"
	"time"

	"storefront-service/utils"

	"github.com/stretchr/testify/assert"
)

func TestFormatBRL(t *testing.T) {
	assert.Equal(t, "R$ 1.234,50", utils.FormatBRL(1234.5))
	assert.Equal(t, "R$ 49,90", utils.FormatBRL(49.90))
	assert.Equal(t, "R$ 0,00", utils.FormatBRL(0))
	assert.Equal(t, "R$ 19,74", utils.FormatBRL(19.74))
	assert.Equal(t, "R$ 1.000.000,00", utils.FormatBRL(1000000))
	assert.Equal(t, "R$ 69,63", utils.FormatBRL(49.89+19.74))
}

func TestFormatCEP(t *testing.T) {
	assert.Equal(t, "01310-930", utils.FormatCEP("01310930"))
	assert.Equal(t, "0131", utils.FormatCEP("0131"))
	assert.Equal(t, "01310", utils.FormatCEP("01310"))
	assert.Equal(t, "01310-9", utils.FormatCEP("013109"))
	assert.Equal(t, "01310-930", utils.FormatCEP("01310-930xx99"))
}

func TestFormatCPF(t *testing.T) {
	assert.Equal(t, "111.444.777-35", utils.FormatCPF("11144477735"))
	assert.Equal(t, "111", utils.FormatCPF("111"))
	assert.Equal(t, "111.4", utils.FormatCPF("1114"))
	assert.Equal(t, "111.444.777", utils.FormatCPF("111444777"))
	assert.Equal(t, "", utils.FormatCPF("abc"))
}

func TestFormatPhoneBR(t *testing.T) {
	assert.Equal(t, "", utils.FormatPhoneBR(""))
	assert.Equal(t, "(1", utils.FormatPhoneBR("1"))
	assert.Equal(t, "(11", utils.FormatPhoneBR("11"))
	assert.Equal(t, "(11) 9", utils.FormatPhoneBR("119"))
	assert.Equal(t, "(11) 98765", utils.FormatPhoneBR("1198765"))
	assert.Equal(t, "(11) 98765-4321", utils.FormatPhoneBR("11987654321"))
	assert.Equal(t, "(11) 98765-4321", utils.FormatPhoneBR("11 98765 4321"))
}

func TestFormatMMSS(t *testing.T) {
	assert.Equal(t, "10:00", utils.FormatMMSS(10*time.Minute))
	assert.Equal(t, "00:00", utils.FormatMMSS(0))
	assert.Equal(t, "00:00", utils.FormatMMSS(-time.Second))
	// rounds up to whole seconds
	assert.Equal(t, "00:01", utils.FormatMMSS(300*time.Millisecond))
	assert.Equal(t, "09:59", utils.FormatMMSS(9*time.Minute+58*time.Second+500*time.Millisecond))
	assert.Equal(t, "01:05", utils.FormatMMSS(65*time.Second))
}
