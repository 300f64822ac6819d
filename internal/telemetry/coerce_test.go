package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptionalInt(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int
		wantNil bool
	}{
		{name: "plain integer", input: "65", want: 65},
		{name: "fractional truncates", input: "65.9", want: 65},
		{name: "negative fractional truncates toward zero", input: "-3.7", want: -3},
		{name: "surrounding whitespace", input: "  42 ", want: 42},
		{name: "N/A", input: "[N/A]", wantNil: true},
		{name: "not supported", input: "[Not Supported]", wantNil: true},
		{name: "empty", input: "", wantNil: true},
		{name: "NaN", input: "NaN", wantNil: true},
		{name: "Inf", input: "+Inf", wantNil: true},
		{name: "too large", input: "1e30", wantNil: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := OptionalInt(tt.input)
			if tt.wantNil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.want, *got)
		})
	}
}

func TestRequiredInt(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{"2048", 2048},
		{"2048.75", 2048},
		{"[N/A]", 0},
		{"", 0},
		{"garbage", 0},
		{"-5", 0},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, RequiredInt(tt.input))
		})
	}
}

func TestPercent_AlwaysClamped(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{"150", 100},
		{"-5", 0},
		{"100", 100},
		{"0", 0},
		{"99.99", 99},
		{"[N/A]", 0},
		{"1e9", 100},
		{"1e30", 0}, // out of int range counts as unparsable
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := Percent(tt.input)
			assert.Equal(t, tt.want, got)
			assert.GreaterOrEqual(t, got, 0)
			assert.LessOrEqual(t, got, 100)
		})
	}
}

func TestOptionalFloat(t *testing.T) {
	zero := OptionalFloat("0")
	require.NotNil(t, zero, "0 W is a legitimate reading")
	assert.Equal(t, 0.0, *zero)

	v := OptionalFloat(" 120.5 ")
	require.NotNil(t, v)
	assert.Equal(t, 120.5, *v)

	assert.Nil(t, OptionalFloat("[N/A]"))
	assert.Nil(t, OptionalFloat(""))
	assert.Nil(t, OptionalFloat("nan"))
}
