package alert

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	valid := Alert{
		ID:       "a1",
		Type:     "disk",
		Severity: SeverityCritical,
		Message:  "disk full",
	}

	tests := []struct {
		name    string
		mutate  func(a *Alert)
		wantErr string
	}{
		{
			name:   "valid alert",
			mutate: func(a *Alert) {},
		},
		{
			name:    "missing id",
			mutate:  func(a *Alert) { a.ID = "" },
			wantErr: "id",
		},
		{
			name:    "missing type",
			mutate:  func(a *Alert) { a.Type = "" },
			wantErr: "type",
		},
		{
			name:    "missing message",
			mutate:  func(a *Alert) { a.Message = "" },
			wantErr: "message",
		},
		{
			name:    "unknown severity",
			mutate:  func(a *Alert) { a.Severity = "fatal" },
			wantErr: "severity",
		},
		{
			name:    "empty severity",
			mutate:  func(a *Alert) { a.Severity = "" },
			wantErr: "severity",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := valid
			tt.mutate(&a)
			err := a.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.wantErr, vErr.Field)
		})
	}
}

func TestPriorityTable(t *testing.T) {
	crit := PriorityFor(SeverityCritical)
	assert.Equal(t, 1, crit.Level)
	assert.True(t, crit.Escalate)
	assert.True(t, crit.Immediate)

	warn := PriorityFor(SeverityWarning)
	assert.Equal(t, 2, warn.Level)
	assert.False(t, warn.Escalate)

	info := PriorityFor(SeverityInfo)
	assert.Equal(t, 3, info.Level)
	assert.False(t, info.Escalate)
	assert.False(t, info.Immediate)
}

func TestKeyOf(t *testing.T) {
	a := &Alert{ID: "a1", Type: "cpu", Severity: SeverityWarning, Message: "m"}
	b := &Alert{ID: "b2", Type: "cpu", Severity: SeverityWarning, Message: "other"}
	c := &Alert{ID: "c3", Type: "cpu", Severity: SeverityCritical, Message: "m"}

	assert.Equal(t, KeyOf(a), KeyOf(b))
	assert.NotEqual(t, KeyOf(a), KeyOf(c))
	assert.Equal(t, "cpu:warning", KeyOf(a).String())
}
