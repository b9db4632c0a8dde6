package challengetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackathonweekly/checkin-hub/internal/domain/challenge"
)

func TestInsertCheckin_RejectsDuplicates(t *testing.T) {
	repo := NewRepo()
	ctx := context.Background()
	day1 := time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, repo.InsertCheckin(ctx, &challenge.Checkin{
		ID: "c-1", ParticipantID: "p-1", Nickname: "alice",
		Date: day1, Content: "built the parser", Index: 1,
	}))

	// Same day again.
	err := repo.InsertCheckin(ctx, &challenge.Checkin{
		ID: "c-2", ParticipantID: "p-1", Nickname: "alice",
		Date: day1.Add(2 * time.Hour), Content: "more parsing", Index: 2,
	})
	assert.ErrorIs(t, err, challenge.ErrDuplicateCheckin)

	// Different day but a colliding sequence number.
	err = repo.InsertCheckin(ctx, &challenge.Checkin{
		ID: "c-3", ParticipantID: "p-1", Nickname: "alice",
		Date: day1.AddDate(0, 0, 1), Content: "wired the lexer", Index: 1,
	})
	assert.ErrorIs(t, err, challenge.ErrDuplicateCheckin)

	// Another participant is unaffected.
	assert.NoError(t, repo.InsertCheckin(ctx, &challenge.Checkin{
		ID: "c-4", ParticipantID: "p-2", Nickname: "bob",
		Date: day1, Content: "sketched the schema", Index: 1,
	}))
}
