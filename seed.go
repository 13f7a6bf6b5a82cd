package main

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"webpulse/internal/cache"
	"webpulse/internal/config"
	"webpulse/internal/db"
	"webpulse/internal/logger"
	"webpulse/internal/tracking"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Register or update a realm/project configuration",
	Long: `Seed writes a realm and project into the configuration store and prints
the track token to embed in pages:

  webpulse seed --realm acme --origins https://www.acme.com --page-clicks
  <script src="$TRACKER_URL/client.js?trackId=<token>"></script>

The project id is generated when --project is omitted. Running seed again
for an existing project replaces its origins and feature flags.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		realmID, _ := cmd.Flags().GetString("realm")
		projectID, _ := cmd.Flags().GetString("project")
		origins, _ := cmd.Flags().GetStringSlice("origins")
		loads, _ := cmd.Flags().GetBool("page-loads")
		clicks, _ := cmd.Flags().GetBool("page-clicks")
		scrolls, _ := cmd.Flags().GetBool("page-scrolls")

		project, err := seedProject(realmID, projectID, origins, tracking.FeatureFlags{
			PageLoads:   loads,
			PageClicks:  clicks,
			PageScrolls: scrolls,
		})
		if err != nil {
			return err
		}

		cfg := config.Load()
		sqlDB, err := db.Connect(cfg)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		ctx := cmd.Context()
		if err := db.NewStore(sqlDB, cfg).SaveProject(ctx, project); err != nil {
			return err
		}

		if cfg.RedisURL != "" {
			client, err := cache.NewRedisClient(ctx, cfg.RedisURL)
			if err != nil {
				return err
			}
			defer client.Close()
			if err := cache.NewProjectCache(client, nil, 0, logger.New(cfg.LoggerMode)).Invalidate(ctx, project.RealmID, project.ID); err != nil {
				return fmt.Errorf("invalidate cached project: %w", err)
			}
		}

		fmt.Printf("TRACK_ID=%s\n", tracking.TrackToken{RealmID: project.RealmID, ProjectID: project.ID})
		return nil
	},
}

func init() {
	seedCmd.Flags().String("realm", "", "realm id (required)")
	seedCmd.Flags().String("project", "", "project id (generated when empty)")
	seedCmd.Flags().StringSlice("origins", nil, "origins allowed to load the script, comma-separated")
	seedCmd.Flags().Bool("page-loads", true, "report page loads")
	seedCmd.Flags().Bool("page-clicks", false, "report page clicks")
	seedCmd.Flags().Bool("page-scrolls", false, "report scroll depth")
	_ = seedCmd.MarkFlagRequired("realm")
}

// seedProject validates the seed input and builds the project to save.
// Ids may not contain the token separator.
func seedProject(realmID, projectID string, origins []string, flags tracking.FeatureFlags) (tracking.Project, error) {
	realmID = strings.TrimSpace(realmID)
	projectID = strings.TrimSpace(projectID)
	if realmID == "" {
		return tracking.Project{}, fmt.Errorf("--realm is required")
	}
	if projectID == "" {
		projectID = uuid.NewString()
	}
	if strings.Contains(realmID, ".") || strings.Contains(projectID, ".") {
		return tracking.Project{}, fmt.Errorf("realm and project ids must not contain %q", ".")
	}

	cleaned := make([]string, 0, len(origins))
	for _, o := range origins {
		if o = strings.TrimSpace(o); o != "" {
			cleaned = append(cleaned, o)
		}
	}

	return tracking.Project{
		ID:             projectID,
		RealmID:        realmID,
		AllowedOrigins: cleaned,
		Flags:          flags,
	}, nil
}
