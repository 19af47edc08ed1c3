//go:build integration

package registrations

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrimech/portal/internal/apperr"
	"github.com/agrimech/portal/pkg/database/dbtest"
)

func insertUser(t *testing.T, pool *pgxpool.Pool, email string) uuid.UUID {
	t.Helper()
	var id uuid.UUID
	err := pool.QueryRow(context.Background(),
		`INSERT INTO users (email, password_hash, first_name) VALUES ($1, 'x', 'Test') RETURNING id`, email).Scan(&id)
	require.NoError(t, err)
	return id
}

func insertWebinar(t *testing.T, pool *pgxpool.Pool, slug string, max *int) uuid.UUID {
	t.Helper()
	var id uuid.UUID
	err := pool.QueryRow(context.Background(),
		`INSERT INTO webinars (slug, title, scheduled_date, max_attendees) VALUES ($1, $1, $2, $3) RETURNING id`,
		slug, time.Now().Add(72*time.Hour), max).Scan(&id)
	require.NoError(t, err)
	return id
}

func attendees(t *testing.T, pool *pgxpool.Pool, webinarID uuid.UUID) int {
	t.Helper()
	var n int
	require.NoError(t, pool.QueryRow(context.Background(), `SELECT current_attendees FROM webinars WHERE id = $1`, webinarID).Scan(&n))
	return n
}

func TestRepository_RegisterConcurrentSingleSeat(t *testing.T) {
	pool := dbtest.NewPool(t)
	repo := NewRepository(pool)
	one := 1
	webinarID := insertWebinar(t, pool, "single-seat", &one)

	const contenders = 20
	users := make([]uuid.UUID, contenders)
	for i := range users {
		users[i] = insertUser(t, pool, fmt.Sprintf("farmer%d@example.com", i))
	}

	var (
		wg     sync.WaitGroup
		start  = make(chan struct{})
		errs   = make([]error, contenders)
		counts = make([]int, contenders)
	)
	for i := range users {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, counts[i], errs[i] = repo.Register(context.Background(), webinarID, users[i])
		}(i)
	}
	close(start)
	wg.Wait()

	var wins, full int
	for i, err := range errs {
		switch {
		case err == nil:
			wins++
			assert.Equal(t, 1, counts[i])
		case apperr.KindOf(err) == apperr.KindFull:
			full++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, contenders-1, full)
	assert.Equal(t, 1, attendees(t, pool, webinarID))

	var rows int
	require.NoError(t, pool.QueryRow(context.Background(), `SELECT COUNT(*) FROM webinar_registrations WHERE webinar_id = $1`, webinarID).Scan(&rows))
	assert.Equal(t, 1, rows)
}

func TestRegister_DuplicateAndCancel(t *testing.T) {
	pool := dbtest.NewPool(t)
	repo := NewRepository(pool)
	ctx := context.Background()
	webinarID := insertWebinar(t, pool, "open-seats", nil)
	userID := insertUser(t, pool, "amina@example.com")

	_, count, err := repo.Register(ctx, webinarID, userID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	_, _, err = repo.Register(ctx, webinarID, userID)
	assert.ErrorIs(t, err, apperr.ErrAlreadyRegistered)
	assert.Equal(t, 1, attendees(t, pool, webinarID))

	count, err = repo.Cancel(ctx, webinarID, userID)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	_, err = repo.Cancel(ctx, webinarID, userID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Equal(t, 0, attendees(t, pool, webinarID))
}

func TestAttendeeCeilingConstraint(t *testing.T) {
	pool := dbtest.NewPool(t)
	one := 1
	webinarID := insertWebinar(t, pool, "ceiling", &one)

	_, err := pool.Exec(context.Background(), `UPDATE webinars SET current_attendees = 2 WHERE id = $1`, webinarID)
	require.Error(t, err)
}
