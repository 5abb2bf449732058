package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kiranshivaraju/rallylens/pkg/models"
)

const rallyPayload = `{
	"total_rallies": 2,
	"average_rally_length": 3.5,
	"longest_rally": 4,
	"shortest_rally": 3,
	"average_rally_duration": 2.75,
	"rallies": [
		{
			"rally_number": 2,
			"winner": 1,
			"serving_player": 2,
			"total_shots": 3,
			"duration_frames": 72,
			"duration_seconds": 3.0,
			"player_1_shots": 1,
			"player_2_shots": 2,
			"average_shot_speed": 88.4,
			"max_shot_speed": 120.1,
			"min_shot_speed": 61.0,
			"player_1_distance": 8.2,
			"player_2_distance": 6.9,
			"start_frame": 100,
			"end_frame": 172,
			"shots": [
				{"shot_number": 1, "player": 2, "shot_speed": 120.1, "frame": 140},
				{"shot_number": 2, "player": 1, "shot_speed": 61.0, "frame": 110},
				{"shot_number": 3, "player": 2, "shot_speed": 84.1, "frame": 165}
			]
		},
		{
			"rally_number": 5,
			"winner": null,
			"serving_player": 7,
			"total_shots": 4,
			"start_frame": 300,
			"end_frame": null,
			"shots": []
		}
	]
}`

func TestRallies_DecodesCollection(t *testing.T) {
	rc, err := Rallies([]byte(rallyPayload))
	require.NoError(t, err)

	assert.Equal(t, 2, rc.TotalRallies)
	assert.InDelta(t, 3.5, rc.AverageRallyLength, 1e-9)
	assert.Equal(t, 4, rc.LongestRally)
	assert.Equal(t, 3, rc.ShortestRally)
	require.Len(t, rc.Rallies, 2)

	first := rc.Rallies[0]
	assert.Equal(t, 2, first.Number)
	require.NotNil(t, first.Winner)
	assert.Equal(t, models.Player1, *first.Winner)
	require.NotNil(t, first.ServingPlayer)
	assert.Equal(t, models.Player2, *first.ServingPlayer)
	assert.Equal(t, 172, first.EndFrame)
	assert.InDelta(t, 120.1, first.MaxShotSpeed, 1e-9)
}

func TestRallies_PreservesShotOrder(t *testing.T) {
	rc, err := Rallies([]byte(rallyPayload))
	require.NoError(t, err)

	shots := rc.Rallies[0].Shots
	require.Len(t, shots, 3)
	// Received order is kept even where frames are not ascending.
	assert.Equal(t, []int{140, 110, 165}, []int{shots[0].Frame, shots[1].Frame, shots[2].Frame})
	assert.Equal(t, models.Player2, shots[0].Player)
}

func TestRallies_InvalidPlayersBecomeAbsent(t *testing.T) {
	rc, err := Rallies([]byte(rallyPayload))
	require.NoError(t, err)

	second := rc.Rallies[1]
	assert.Nil(t, second.Winner)
	assert.Nil(t, second.ServingPlayer)
	assert.Equal(t, 0, second.EndFrame)
	assert.NotNil(t, second.Shots)
	assert.Empty(t, second.Shots)
}

func TestRallies_UnattributedShot(t *testing.T) {
	raw := []byte(`{"rallies":[{"rally_number":1,"shots":[
		{"shot_number":1,"player":3,"shot_speed":70,"frame":5},
		{"shot_number":2,"shot_speed":72,"frame":9},
		{"shot_number":3,"player":1,"shot_speed":74,"frame":14}
	]}]}`)

	rc, err := Rallies(raw)
	require.NoError(t, err)

	shots := rc.Rallies[0].Shots
	require.Len(t, shots, 3)
	assert.False(t, shots[0].Player.Valid())
	assert.False(t, shots[1].Player.Valid())
	assert.Equal(t, models.Player1, shots[2].Player)
}

func TestRallies_EmptyDocument(t *testing.T) {
	rc, err := Rallies([]byte(`{}`))
	require.NoError(t, err)
	assert.NotNil(t, rc.Rallies)
	assert.Empty(t, rc.Rallies)
}

func TestRallies_InvalidJSON(t *testing.T) {
	_, err := Rallies([]byte(`{"rallies": [`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decoding rally collection")
}
