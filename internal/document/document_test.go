package document

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoyleJ11/lol-balancer/internal/engine"
)

const legacyDoc = `{
    "페이커": {
        "name": "페이커",
        "scores": {"TOP": 7, "JUNGLE": 6, "MID": 10, "ADC": 8, "SUPPORT": 5},
        "main_role": "MID",
        "sub_role": "선택 안함"
    },
    "Bob": {
        "name": "Bob",
        "scores": {"TOP": 3, "JUNGLE": 4, "MID": 2, "ADC": 1, "SUPPORT": 9},
        "main_role": "None",
        "sub_role": "None",
        "wins": 4,
        "losses": 2
    }
}`

func TestParse_LegacyDefaults(t *testing.T) {
	r, err := Parse([]byte(legacyDoc))
	require.NoError(t, err)
	require.Equal(t, 2, r.Len())

	faker, ok := r.Lookup("페이커")
	require.True(t, ok)
	assert.Equal(t, 10, faker.Score(engine.RoleMid))
	assert.Equal(t, engine.RoleMid, faker.MainRole)
	assert.Equal(t, engine.RoleNone, faker.SubRole)
	assert.Zero(t, faker.Wins)
	assert.Zero(t, faker.Losses)

	bob, _ := r.Lookup("Bob")
	assert.Equal(t, 4, bob.Wins)
	assert.Equal(t, 2, bob.Losses)
}

func TestRoundTrip(t *testing.T) {
	r := engine.NewRoster()
	alice := engine.NewParticipant("Alice", 6)
	alice.Scores[engine.RoleADC] = 10
	alice.MainRole = engine.RoleADC
	alice.SubRole = engine.RoleSupport
	alice.Wins, alice.Losses = 12, 7
	require.NoError(t, r.Register(alice))
	require.NoError(t, r.Register(engine.NewParticipant("김철수", 0)))

	data, err := Encode(r)
	require.NoError(t, err)
	assert.Contains(t, string(data), "김철수", "non-ascii names stay readable")
	assert.Contains(t, string(data), `"main_role": "ADC"`)

	back, err := Parse(data)
	require.NoError(t, err)
	require.Equal(t, r.Len(), back.Len())
	for p := range r.ListSorted() {
		got, ok := back.Lookup(p.Name)
		require.True(t, ok, p.Name)
		assert.Equal(t, p, got)
	}
}

func TestParse_Invalid(t *testing.T) {
	cases := []struct {
		name string
		doc  string
	}{
		{"syntax", `{"Alice": {`},
		{"null", `null`},
		{"array", `[]`},
		{"trailing garbage", `{} {}`},
		{"score out of range", `{"A": {"name": "A", "scores": {"TOP": 11, "JUNGLE": 1, "MID": 1, "ADC": 1, "SUPPORT": 1}}}`},
		{"missing score", `{"A": {"name": "A", "scores": {"TOP": 1, "JUNGLE": 1, "MID": 1, "ADC": 1}}}`},
		{"unknown role", `{"A": {"name": "A", "scores": {"TOP": 1, "JUNGLE": 1, "MID": 1, "ADC": 1, "SUPPORT": 1}, "main_role": "FEEDER"}}`},
		{"key mismatch", `{"A": {"name": "B", "scores": {"TOP": 1, "JUNGLE": 1, "MID": 1, "ADC": 1, "SUPPORT": 1}}}`},
		{"padded name", `{" A": {"name": " A", "scores": {"TOP": 1, "JUNGLE": 1, "MID": 1, "ADC": 1, "SUPPORT": 1}}}`},
		{"role scored twice", `{"A": {"name": "A", "scores": {"TOP": 1, "top": 9, "JUNGLE": 1, "MID": 1, "ADC": 1, "SUPPORT": 1}}}`},
		{"negative wins", `{"A": {"name": "A", "scores": {"TOP": 1, "JUNGLE": 1, "MID": 1, "ADC": 1, "SUPPORT": 1}, "wins": -1}}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r, err := Parse([]byte(tc.doc))
			require.Error(t, err)
			assert.Nil(t, r)
			assert.ErrorIs(t, err, ErrDocument)

			var docErr *DocumentError
			assert.True(t, errors.As(err, &docErr))
		})
	}
}

func TestParse_CollectsEveryProblem(t *testing.T) {
	doc := `{
		"A": {"name": "A", "scores": {"TOP": 11, "JUNGLE": 1, "MID": 1, "ADC": 1, "SUPPORT": 1}},
		"B": {"name": "", "scores": {"TOP": 1, "JUNGLE": 1, "MID": 1, "ADC": 1, "SUPPORT": 1}},
		"C": {"name": "C", "scores": {"TOP": 1, "JUNGLE": 1, "MID": 1, "ADC": 1, "SUPPORT": 1}}
	}`
	_, err := ParseNamed("participants.json", []byte(doc))
	require.Error(t, err)

	var docErr *DocumentError
	require.True(t, errors.As(err, &docErr))
	assert.Len(t, docErr.Errors(), 2)
	assert.Equal(t, "participants.json", docErr.Source)
	assert.ErrorIs(t, err, engine.ErrValidation)
}

func TestRead(t *testing.T) {
	r, err := Read("inline", strings.NewReader(legacyDoc))
	require.NoError(t, err)
	assert.Equal(t, []string{"Bob", "페이커"}, r.Names())
}
