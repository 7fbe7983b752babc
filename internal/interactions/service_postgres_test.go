//go:build db

package interactions

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loredrop/campus-backend/pkg/config"
	"github.com/loredrop/campus-backend/pkg/db"
	"github.com/loredrop/campus-backend/pkg/db/models"
	"github.com/loredrop/campus-backend/pkg/enums"
	pkgerrors "github.com/loredrop/campus-backend/pkg/errors"
	"github.com/loredrop/campus-backend/pkg/logger"
	"github.com/loredrop/campus-backend/pkg/metrics"
)

const postgresDSNEnv = "CAMPUS_TEST_DB_DSN"

// openPostgres connects to CAMPUS_TEST_DB_DSN inside a throwaway schema that
// is dropped on cleanup.
func openPostgres(t *testing.T) *db.Client {
	t.Helper()
	dsn := os.Getenv(postgresDSNEnv)
	if dsn == "" {
		t.Skipf("%s not set", postgresDSNEnv)
	}
	ctx := context.Background()

	admin, err := db.New(ctx, config.DBConfig{Driver: config.DBDriverPostgres, DSN: dsn}, nil)
	require.NoError(t, err)
	schema := "interactions_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	require.NoError(t, admin.DB().Exec("CREATE SCHEMA "+schema).Error)
	t.Cleanup(func() {
		_ = admin.DB().Exec("DROP SCHEMA " + schema + " CASCADE").Error
		_ = admin.Close()
	})

	sep := " "
	if strings.Contains(dsn, "://") {
		sep = "&"
		if !strings.Contains(dsn, "?") {
			sep = "?"
		}
	}
	client, err := db.New(ctx, config.DBConfig{
		Driver:       config.DBDriverPostgres,
		DSN:          fmt.Sprintf("%s%ssearch_path=%s", dsn, sep, schema),
		MaxOpenConns: 16,
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.DB().AutoMigrate(models.All()...))
	return client
}

func TestPostgresConcurrentTogglesKeepCounterInSync(t *testing.T) {
	client := openPostgres(t)
	conn := client.DB()
	ctx := context.Background()

	org := models.Organization{Name: "Programming Club", Slug: "pclub"}
	require.NoError(t, conn.Create(&org).Error)
	users := make([]models.Principal, 6)
	for i := range users {
		users[i] = models.Principal{Email: uuid.NewString() + "@iitk.ac.in", DisplayName: "user"}
		require.NoError(t, conn.Create(&users[i]).Error)
	}
	event := models.Event{OrganizationID: org.ID, AuthorID: users[0].ID, Title: "Hackathon", Venue: "L7", IsPublished: true}
	require.NoError(t, conn.Create(&event).Error)

	repo := NewRepository(conn)
	svc, err := NewService(ServiceParams{
		DB:      client,
		Repo:    repo,
		Metrics: metrics.NewInteractionMetrics(prometheus.NewRegistry()),
		Logger:  logger.New(logger.Options{ServiceName: "interactions-test", Output: io.Discard}),
	})
	require.NoError(t, err)

	// Toggles for one principal race on the same row from separate connections.
	// A toggle may give up with a conflict; it then changes nothing.
	const perUser = 9
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins = make(map[uuid.UUID]int, len(users))
	)
	for _, u := range users {
		for i := 0; i < perUser; i++ {
			wg.Add(1)
			go func(id uuid.UUID) {
				defer wg.Done()
				_, err := svc.Toggle(ctx, enums.InteractionUpvote, event.ID, id)
				if err != nil {
					assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict), "unexpected error: %v", err)
					return
				}
				mu.Lock()
				wins[id]++
				mu.Unlock()
			}(u.ID)
		}
	}
	wg.Wait()

	expected := 0
	for _, u := range users {
		if wins[u.ID]%2 == 1 {
			expected++
		}
	}
	live, err := repo.CountLive(ctx, event.ID, enums.InteractionUpvote)
	require.NoError(t, err)
	var stored models.Event
	require.NoError(t, conn.First(&stored, "id = ?", event.ID).Error)
	assert.EqualValues(t, expected, live)
	assert.Equal(t, int(live), stored.UpvoteCount)
}
