package services

import (
	"testing"
	"time"

	"github.com/mvibe/marketplace/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func TestReviewInput_Validate(t *testing.T) {
	tests := []struct {
		name       string
		in         ReviewInput
		wantRating int
		wantErr    error
	}{
		{"default rating", ReviewInput{Comment: "Nice"}, 5, nil},
		{"explicit rating", ReviewInput{Rating: intPtr(1), Comment: "Meh"}, 1, nil},
		{"zero rating", ReviewInput{Rating: intPtr(0), Comment: "x"}, 0, ErrInvalidRating},
		{"rating six", ReviewInput{Rating: intPtr(6), Comment: "x"}, 0, ErrInvalidRating},
		{"empty comment", ReviewInput{Rating: intPtr(4)}, 0, ErrEmptyComment},
		{"blank comment", ReviewInput{Rating: intPtr(4), Comment: " \n\t"}, 0, ErrEmptyComment},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rating, _, err := tt.in.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantRating, rating)
		})
	}
}

func TestReviewService_FirstReviewSetsAverage(t *testing.T) {
	db := models.NewTestDB(t)
	svc := NewReviewService(db)
	seedProfile(t, db, "bob", "Bob Builder", "")
	p := seedProject(t, db, "alice", "Calc", 0, time.Now())

	result, err := svc.Submit(bg, "bob", p.ID, &ReviewInput{Rating: intPtr(4), Comment: "Great"})
	require.NoError(t, err)

	require.Len(t, result.Reviews, 1)
	assert.Equal(t, "Great", result.Reviews[0].Comment)
	require.NotNil(t, result.Reviews[0].Author)
	assert.Equal(t, "Bob Builder", result.Reviews[0].Author.DisplayName())
	assert.Equal(t, "Bob Builder", result.Reviews[0].AuthorName)
	require.NotNil(t, result.Review)
	assert.Equal(t, result.Reviews[0].ID, result.Review.ID)
	assert.Equal(t, "Bob Builder", result.Review.AuthorName)
	require.NotNil(t, result.Summary.AverageRating)
	assert.Equal(t, 4.0, *result.Summary.AverageRating)
	assert.Equal(t, int64(1), result.Summary.ReviewCount)

	project, err := NewProjectService(db).GetByID(bg, p.ID)
	require.NoError(t, err)
	require.NotNil(t, project.AverageRating)
	assert.Equal(t, 4.0, *project.AverageRating)
}

func TestReviewService_SubmitRejections(t *testing.T) {
	db := models.NewTestDB(t)
	svc := NewReviewService(db)
	p := seedProject(t, db, "alice", "Calc", 0, time.Now())

	_, err := svc.Submit(bg, "alice", p.ID, &ReviewInput{Comment: "mine is best"})
	assert.ErrorIs(t, err, ErrSelfReview)

	_, err = svc.Submit(bg, "bob", "missing", &ReviewInput{Comment: "hi"})
	assert.ErrorIs(t, err, ErrProjectNotFound)

	_, err = svc.Submit(bg, "bob", p.ID, &ReviewInput{Rating: intPtr(9), Comment: "hi"})
	assert.ErrorIs(t, err, ErrInvalidRating)

	_, err = svc.Submit(bg, "bob", p.ID, &ReviewInput{Comment: "first"})
	require.NoError(t, err)
	_, err = svc.Submit(bg, "bob", p.ID, &ReviewInput{Comment: "second"})
	assert.ErrorIs(t, err, ErrDuplicateReview)

	reviews, err := svc.List(bg, p.ID)
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	assert.Equal(t, models.DefaultRating, reviews[0].Rating)
}

func TestReviewService_ListNewestFirst(t *testing.T) {
	db := models.NewTestDB(t)
	svc := NewReviewService(db)
	p := seedProject(t, db, "alice", "Calc", 0, time.Now())
	base := time.Now().Add(-time.Hour)

	for i, user := range []string{"u1", "u2", "u3"} {
		require.NoError(t, db.Create(&models.Review{
			ProjectID: p.ID,
			UserID:    user,
			Rating:    3,
			Comment:   user,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}).Error)
	}

	reviews, err := svc.List(bg, p.ID)
	require.NoError(t, err)
	got := []string{reviews[0].Comment, reviews[1].Comment, reviews[2].Comment}
	assert.Equal(t, []string{"u3", "u2", "u1"}, got)
	assert.Nil(t, reviews[0].Author, "no profile row for u3")

	_, err = svc.List(bg, "missing")
	assert.ErrorIs(t, err, ErrProjectNotFound)
}

func TestReviewService_SummaryWithoutReviews(t *testing.T) {
	db := models.NewTestDB(t)
	p := seedProject(t, db, "alice", "Calc", 0, time.Now())

	summary, err := NewReviewService(db).Summary(bg, p.ID)
	require.NoError(t, err)
	assert.Nil(t, summary.AverageRating)
	assert.Zero(t, summary.ReviewCount)
	assert.Equal(t, p.ID, summary.ProjectID)
}
