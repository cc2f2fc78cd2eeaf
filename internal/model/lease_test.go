package model_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/torc-dev/torc/internal/model"
)

func TestPortRangeValidate(t *testing.T) {
	tests := map[string]struct {
		portRange model.PortRange
		expErr    bool
	}{
		"A valid range should not fail": {
			portRange: model.PortRange{From: 3000, To: 3099},
		},
		"A single port range should not fail": {
			portRange: model.PortRange{From: 8080, To: 8080},
		},
		"A zero from port should fail": {
			portRange: model.PortRange{From: 0, To: 3099},
			expErr:    true,
		},
		"A to port above 65535 should fail": {
			portRange: model.PortRange{From: 65000, To: 70000},
			expErr:    true,
		},
		"A reversed range should fail": {
			portRange: model.PortRange{From: 3099, To: 3000},
			expErr:    true,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			err := tt.portRange.Validate()

			if tt.expErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPortRangeString(t *testing.T) {
	assert.Equal(t, "3000-3099", model.PortRange{From: 3000, To: 3099}.String())
}
