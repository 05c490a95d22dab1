package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDelimitedInts(t *testing.T) {
	cases := []struct {
		name    string
		raw     string
		want    []int64
		wantErr bool
	}{
		{name: "normal", raw: "1,2,3", want: []int64{1, 2, 3}},
		{name: "spaces", raw: " 10 , -5 , 0 ", want: []int64{10, -5, 0}},
		{name: "empty", raw: "", want: []int64{}},
		{name: "blank", raw: "   ", want: []int64{}},
		{name: "single", raw: "42", want: []int64{42}},
		{name: "non numeric segment", raw: "1,x,3", wantErr: true},
		{name: "trailing comma", raw: "1,2,", wantErr: true},
		{name: "float rejected", raw: "1.5", wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseDelimitedInts(tc.raw)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestSplitFeats(t *testing.T) {
	assert.Equal(t, []string{"Stealth!", "Match 11"}, SplitFeats("Stealth!, Match 11"))
	assert.Equal(t, []string{"Clean Finish"}, SplitFeats("Clean Finish"))
	assert.Equal(t, []string{}, SplitFeats(""))
	// 空段落被丢弃
	assert.Equal(t, []string{"A", "B"}, SplitFeats("A,, B,"))
}

func TestLeagueValid(t *testing.T) {
	assert.True(t, LeagueCasual.Valid())
	assert.True(t, LeaguePro.Valid())
	assert.True(t, LeagueElite.Valid())
	assert.False(t, League(-1).Valid())
	assert.False(t, League(3).Valid())
}

func TestLeagueString(t *testing.T) {
	assert.Equal(t, "casual", LeagueCasual.String())
	assert.Equal(t, "pro", LeaguePro.String())
	assert.Equal(t, "elite", LeagueElite.String())
	assert.Equal(t, "league(9)", League(9).String())
}

func TestJSONRoundTripHelpers(t *testing.T) {
	aliases := JSONToStrings(StringsToJSON([]string{"Neon Drift", "ND"}))
	assert.Equal(t, []string{"Neon Drift", "ND"}, aliases)

	// 空 jsonb 字段解码为空切片而不是 nil panic
	assert.Equal(t, []string{}, JSONToStrings(nil))

	assert.JSONEq(t, "[1,2,3]", string(IntsToJSON([]int64{1, 2, 3})))
}
