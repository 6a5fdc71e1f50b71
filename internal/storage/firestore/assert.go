package firestore

import "github.com/benvon/napoleon/internal/database"

var (
	_ database.TaskStore            = (*Store)(nil)
	_ database.MetricsStore         = (*Store)(nil)
	_ database.ConversationStore    = (*Store)(nil)
	_ database.ProfileStore         = (*Store)(nil)
	_ database.RatelimitConfigStore = (*Store)(nil)
	_ database.CorsConfigStore      = (*Store)(nil)
)
