package ordered

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func intp(v int) *int { return &v }

func TestAdjustCursor(t *testing.T) {
	tests := []struct {
		name      string
		cursor    *int
		deleted   int
		remaining int
		want      *int
	}{
		{"unset stays unset", nil, 2, 3, nil},
		{"nothing left clears", intp(1), 1, 0, nil},
		{"above deleted shifts down", intp(4), 2, 4, intp(3)},
		{"below deleted unchanged", intp(1), 3, 4, intp(1)},
		{"on deleted keeps slot", intp(2), 2, 3, intp(2)},
		{"on deleted last slot keeps slot", intp(4), 4, 3, intp(4)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AdjustCursor(tt.cursor, tt.deleted, tt.remaining))
		})
	}
}
