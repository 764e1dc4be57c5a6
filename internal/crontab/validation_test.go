package crontab

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeDayOfWeek(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"*", "*"},
		{"1-5", "1-5"},
		{"7", "0"},
		{"1-7", "1-6,0"},
		{"0-7", "0-6,0"},
		{"mon,7", "mon,0"},
		{"MON-7", "MON-6,0"},
		{"1-7/2", "1-6/2,0"},
		{"2-7/2", "2-6/2"},
		{"7-7", "0"},
		{"1-7/x", "1-7/x"},
		{"*/2", "*/2"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeDayOfWeek(tt.in))
		})
	}
}

func TestHasBarePercent(t *testing.T) {
	assert.False(t, hasBarePercent("cd /srv && app"))
	assert.False(t, hasBarePercent(`cd /srv/100\% && app`))
	assert.True(t, hasBarePercent("cd /srv/100% && app"))
	assert.True(t, hasBarePercent("%"))
}
