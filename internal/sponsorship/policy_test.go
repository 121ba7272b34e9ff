package sponsorship

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContentPolicy(t *testing.T) {
	p := DefaultPolicy()

	tests := []struct {
		msg  string
		want error
	}{
		{"Stay dry with Acme umbrellas!", nil},
		{"Casinos are not welcome", ErrInvalidContent},
		{"FREE MONEY inside", ErrInvalidContent},
		{"visit javascript:void(0)", ErrInvalidContent},
		{"<ScRiPt src=x>", ErrInvalidContent},
		{"data:text/html;base64,AAAA", ErrInvalidContent},
		{"<a onclick = 'x'>hi</a>", ErrInvalidContent},
		{strings.Repeat("é", 200), nil},
		{strings.Repeat("é", 201), ErrInvalidSubmission},
	}
	for _, tt := range tests {
		err := p.Check(tt.msg)
		if tt.want == nil {
			assert.NoError(t, err, tt.msg)
			continue
		}
		assert.ErrorIs(t, err, tt.want, tt.msg)
	}
}

func TestContentPolicyCustomLimits(t *testing.T) {
	p := ContentPolicy{Denylist: []string{"umbrella"}, MaxLength: 10}

	assert.ErrorIs(t, p.Check("Umbrella!"), ErrInvalidContent)
	assert.ErrorIs(t, p.Check("eleven chars"), ErrInvalidSubmission)
	assert.NoError(t, p.Check("Stay dry"))
}
