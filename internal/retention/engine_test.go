package retention

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Decide(t *testing.T) {
	engine := NewEngine()

	cases := []struct {
		name   string
		active int
		total  int
		want   Outcome
	}{
		{"active procedures force legal hold", 4, 4, OutcomeLegalHold},
		{"single active procedure forces legal hold", 1, 1, OutcomeLegalHold},
		{"legal hold wins even with expired history", 1, 0, OutcomeLegalHold},
		{"expired history anonymizes", 0, 3, OutcomeAnonymized},
		{"single expired procedure anonymizes", 0, 1, OutcomeAnonymized},
		{"no history hard deletes", 0, 0, OutcomeHardDeleted},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, engine.Decide(tc.active, tc.total))
		})
	}
}
