package memory

import "github.com/benvon/napoleon/internal/database"

var (
	_ database.TaskStore            = (*TaskStore)(nil)
	_ database.MetricsStore         = (*MetricsStore)(nil)
	_ database.ConversationStore    = (*ConversationStore)(nil)
	_ database.ProfileStore         = (*ProfileStore)(nil)
	_ database.RatelimitConfigStore = (*ConfigStore)(nil)
	_ database.CorsConfigStore      = (*ConfigStore)(nil)
)
