package db

import (
	"context"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"webpulse/internal/config"
	"webpulse/internal/stats"
	"webpulse/internal/tracking"
)

const projectBatchSize = 100

// Store is the PostgreSQL-backed configuration store and event log.
type Store struct {
	db            *gorm.DB
	retentionDays int
}

func NewStore(db *gorm.DB, cfg *config.Config) *Store {
	return &Store{db: db, retentionDays: cfg.RetentionDays}
}

// LookupProject loads a realm and one of its projects. Either record
// missing is tracking.ErrNotFound.
func (s *Store) LookupProject(ctx context.Context, realmID, projectID string) (tracking.ProjectConfig, error) {
	// Find with Limit so a miss doesn't log as a record-not-found error.
	var realm Realm
	if err := s.db.WithContext(ctx).Where("id = ?", realmID).Limit(1).Find(&realm).Error; err != nil {
		return tracking.ProjectConfig{}, err
	}
	if realm.ID == "" {
		return tracking.ProjectConfig{}, tracking.ErrNotFound
	}

	var project Project
	if err := s.db.WithContext(ctx).Where("realm_id = ? AND id = ?", realmID, projectID).Limit(1).Find(&project).Error; err != nil {
		return tracking.ProjectConfig{}, err
	}
	if project.ID == "" {
		return tracking.ProjectConfig{}, tracking.ErrNotFound
	}

	return tracking.ProjectConfig{
		Realm:   tracking.Realm{ID: realm.ID},
		Project: project.toTracking(),
	}, nil
}

// AppendEvent persists an accepted event.
func (s *Store) AppendEvent(ctx context.Context, ev tracking.Event) error {
	rec := Event{
		CreatedAt:       ev.ReceivedAt,
		RealmID:         ev.RealmID,
		ProjectID:       ev.ProjectID,
		Type:            ev.Type,
		DeviceID:        ev.DeviceID,
		SessionID:       ev.SessionID,
		URL:             ev.URL,
		ClientTimestamp: ev.Timestamp,
		Payload:         datatypes.JSONMap(ev.Payload),
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	if s.retentionDays > 0 {
		t := rec.CreatedAt.Add(time.Duration(s.retentionDays) * 24 * time.Hour)
		rec.ExpiresAt = &t
	}
	return s.db.WithContext(ctx).Create(&rec).Error
}

// EachProject calls fn for every project in (realm, id) order, loading
// them in keyset-paginated batches. Iteration stops at the first error
// returned by fn.
func (s *Store) EachProject(ctx context.Context, fn func(tracking.Project) error) error {
	var last *Project
	for {
		q := s.db.WithContext(ctx).Order("realm_id, id").Limit(projectBatchSize)
		if last != nil {
			q = q.Where("(realm_id, id) > (?, ?)", last.RealmID, last.ID)
		}

		var batch []Project
		if err := q.Find(&batch).Error; err != nil {
			return err
		}
		for _, p := range batch {
			if err := fn(p.toTracking()); err != nil {
				return err
			}
		}
		if len(batch) < projectBatchSize {
			return nil
		}
		last = &batch[len(batch)-1]
	}
}

// Summarize counts a project's events by type plus distinct non-empty
// devices and sessions.
func (s *Store) Summarize(ctx context.Context, realmID, projectID string) (stats.Summary, error) {
	sum := stats.Summary{Token: tracking.TrackToken{RealmID: realmID, ProjectID: projectID}.String()}

	q := func() *gorm.DB {
		return s.db.WithContext(ctx).Model(&Event{}).Where("realm_id = ? AND project_id = ?", realmID, projectID)
	}

	type typeCount struct {
		Type  string
		Count int64
	}
	var rows []typeCount
	if err := q().Select("type as type, count(*) as count").Group("type").Scan(&rows).Error; err != nil {
		return sum, fmt.Errorf("count events: %w", err)
	}
	for _, r := range rows {
		sum.Add(r.Type, r.Count)
	}

	if err := q().Where("device_id <> ?", "").Distinct("device_id").Count(&sum.Devices).Error; err != nil {
		return sum, fmt.Errorf("count devices: %w", err)
	}
	if err := q().Where("session_id <> ?", "").Distinct("session_id").Count(&sum.Sessions).Error; err != nil {
		return sum, fmt.Errorf("count sessions: %w", err)
	}
	return sum, nil
}

// SaveProject creates the realm if needed and inserts or replaces the
// project configuration.
func (s *Store) SaveProject(ctx context.Context, p tracking.Project) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		realm := Realm{ID: p.RealmID}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&realm).Error; err != nil {
			return fmt.Errorf("save realm: %w", err)
		}
		rec := projectFromTracking(p)
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "realm_id"}, {Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"allowed_origins", "page_loads", "page_clicks", "page_scrolls", "updated_at"}),
		}).Create(&rec).Error; err != nil {
			return fmt.Errorf("save project: %w", err)
		}
		return nil
	})
}

func (p Project) toTracking() tracking.Project {
	return tracking.Project{
		ID:             p.ID,
		RealmID:        p.RealmID,
		AllowedOrigins: []string(p.AllowedOrigins),
		Flags: tracking.FeatureFlags{
			PageLoads:   p.PageLoads,
			PageClicks:  p.PageClicks,
			PageScrolls: p.PageScrolls,
		},
	}
}

func projectFromTracking(p tracking.Project) Project {
	return Project{
		RealmID:        p.RealmID,
		ID:             p.ID,
		AllowedOrigins: datatypes.JSONSlice[string](p.AllowedOrigins),
		PageLoads:      p.Flags.PageLoads,
		PageClicks:     p.Flags.PageClicks,
		PageScrolls:    p.Flags.PageScrolls,
	}
}
