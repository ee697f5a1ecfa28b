package jsonfile

import (
	"context"
	"fmt"
	"os"

	"github.com/dom/task-manager/internal/repository"
	"github.com/rs/zerolog/log"
)

// Open prepares the storage directory, creates missing files with their
// defaults and re-seeds the demo user when users.json is an empty array.
func Open(ctx context.Context, dir string, hasher passwordHasher) (*repository.Repositories, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage directory %s: %w", dir, err)
	}

	users := NewUserRepository(dir, hasher)
	tasks := NewTaskRepository(dir, NewIDCounter())

	count, seeded, err := users.seedIfEmpty(ctx)
	if err != nil {
		return nil, fmt.Errorf("initialize users: %w", err)
	}
	if seeded {
		log.Info().Str("username", DemoUsername).Msg("Created default user")
	} else {
		log.Info().Int("count", count).Msg("Found existing users")
	}

	all, err := tasks.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("initialize tasks: %w", err)
	}
	log.Info().Int("count", len(all)).Str("dir", dir).Msg("Storage initialized")

	return &repository.Repositories{
		User: users,
		Task: tasks,
	}, nil
}
