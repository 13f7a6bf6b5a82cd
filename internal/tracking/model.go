package tracking

// FeatureFlags selects which instrumentation blocks are compiled into a
// project's client script.
type FeatureFlags struct {
	PageLoads   bool `json:"pageLoads"`
	PageClicks  bool `json:"pageClicks"`
	PageScrolls bool `json:"pageScrolls"`
}

// Realm is a tenant boundary grouping projects.
type Realm struct {
	ID string `json:"id"`
}

// Project is a trackable site or app.
type Project struct {
	ID      string `json:"id"`
	RealmID string `json:"realmId"`

	// AllowedOrigins restricts which Origin headers may load the script
	// and report events. Empty means any origin.
	AllowedOrigins []string     `json:"allowedOrigins,omitempty"`
	Flags          FeatureFlags `json:"flags"`
}

// ProjectConfig is the result of a successful resolution.
type ProjectConfig struct {
	Realm   Realm   `json:"realm"`
	Project Project `json:"project"`
}

// Token returns the track token identifying this configuration.
func (c ProjectConfig) Token() TrackToken {
	return TrackToken{RealmID: c.Realm.ID, ProjectID: c.Project.ID}
}
