package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRawStatusScanLegacyEncodings(t *testing.T) {
	cases := []struct {
		name  string
		value interface{}
		want  RawStatus
	}{
		{"empty string", "", RawStatus{Kind: RawLegacyBool, Legacy: false}},
		{"zero string", "0", RawStatus{Kind: RawLegacyBool, Legacy: false}},
		{"one string", "1", RawStatus{Kind: RawLegacyBool, Legacy: true}},
		{"false string", "false", RawStatus{Kind: RawLegacyBool, Legacy: false}},
		{"true string", "true", RawStatus{Kind: RawLegacyBool, Legacy: true}},
		{"bool", true, RawStatus{Kind: RawLegacyBool, Legacy: true}},
		{"int zero", int64(0), RawStatus{Kind: RawLegacyBool, Legacy: false}},
		{"int one", int64(1), RawStatus{Kind: RawLegacyBool, Legacy: true}},
		{"float one", float64(1), RawStatus{Kind: RawLegacyBool, Legacy: true}},
		{"nil", nil, RawStatus{Kind: RawAbsent}},
		{"status string", "pending_review", RawStatus{Kind: RawExplicit, Explicit: StatusPendingReview}},
		{"padded status", "  paid  ", RawStatus{Kind: RawExplicit, Explicit: StatusPaid}},
		{"bytes", []byte("passed"), RawStatus{Kind: RawExplicit, Explicit: StatusPassed}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var r RawStatus
			require.NoError(t, r.Scan(tc.value))
			assert.Equal(t, tc.want, r)
		})
	}
}

func TestRawStatusScanUnsupportedType(t *testing.T) {
	var r RawStatus
	assert.Error(t, r.Scan(struct{}{}))
}

func TestRawStatusValueKeepsLegacyEncoding(t *testing.T) {
	v, err := RawStatus{Kind: RawLegacyBool, Legacy: true}.Value()
	require.NoError(t, err)
	assert.Equal(t, "1", v)

	v, err = RawStatus{Kind: RawLegacyBool, Legacy: false}.Value()
	require.NoError(t, err)
	assert.Equal(t, "0", v)

	v, err = RawStatus{Kind: RawExplicit, Explicit: StatusPaid}.Value()
	require.NoError(t, err)
	assert.Equal(t, "paid", v)

	v, err = RawStatus{Kind: RawAbsent}.Value()
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestRawStatusJSON(t *testing.T) {
	var r RawStatus
	require.NoError(t, json.Unmarshal([]byte(`true`), &r))
	assert.Equal(t, RawStatus{Kind: RawLegacyBool, Legacy: true}, r)

	require.NoError(t, json.Unmarshal([]byte(`0`), &r))
	assert.Equal(t, RawStatus{Kind: RawLegacyBool, Legacy: false}, r)

	require.NoError(t, json.Unmarshal([]byte(`"sent_to_customer"`), &r))
	status, ok := r.ExplicitStatus()
	require.True(t, ok)
	assert.Equal(t, StatusSentToCustomer, status)

	require.NoError(t, json.Unmarshal([]byte(`null`), &r))
	assert.Equal(t, RawAbsent, r.Kind)

	out, err := json.Marshal(RawStatus{Kind: RawLegacyBool, Legacy: true})
	require.NoError(t, err)
	assert.JSONEq(t, `"1"`, string(out))
}

func TestExplicitStatusOnlyForExplicitKind(t *testing.T) {
	_, ok := RawStatus{Kind: RawLegacyBool, Legacy: true}.ExplicitStatus()
	assert.False(t, ok)

	_, ok = RawStatus{Kind: RawAbsent}.ExplicitStatus()
	assert.False(t, ok)
}
