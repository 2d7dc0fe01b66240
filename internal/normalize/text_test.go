package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanText(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Débito", "debito"},
		{"  CRÉDITOS ", "creditos"},
		{"Descripción  Transacción", "descripcion transaccion"},
		{"Año Ñandú", "ano nandu"},
		{"C.O.", "c.o."},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, CleanText(tt.input))
		})
	}
}

func TestNormalizers(t *testing.T) {
	v := Amount.Parse("1.000,25")
	assert.Equal(t, KindAmount, v.Kind)
	assert.Equal(t, "1000.25", v.Amount.String())
	assert.True(t, v.Present())

	v = Date.Parse("garbage")
	assert.Equal(t, KindDate, v.Kind)
	assert.False(t, v.Present())
	assert.True(t, v.Defaulted)

	v = Text.Parse("  Pago   Proveedor ")
	assert.Equal(t, "Pago Proveedor", v.Text)

	v = Clean.Parse("  Pago   Proveedor Ñ")
	assert.Equal(t, "pago proveedor n", v.Text)

	d := DefaultValue(KindAmount, "missing")
	assert.True(t, d.Amount.IsZero())
	assert.False(t, d.Present())
}
