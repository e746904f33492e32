// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TaskHub Contributors

package main

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	jschema "github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/taskhub/taskhub/internal/auth"
	authpg "github.com/taskhub/taskhub/internal/auth/postgres"
	"github.com/taskhub/taskhub/internal/store"
	"github.com/taskhub/taskhub/internal/task"
	taskpg "github.com/taskhub/taskhub/internal/task/postgres"
)

//go:embed seeds.schema.json
var seedSchemaJSON []byte

// Default timeout for seed command.
const defaultSeedTimeout = 30 * time.Second

// seedConfig holds configuration for the seed command.
type seedConfig struct {
	file         string
	timeout      time.Duration
	validateOnly bool
}

// seedFile is the parsed seed YAML document.
type seedFile struct {
	Users []seedUser `yaml:"users"`
	Tasks []seedTask `yaml:"tasks"`
}

type seedUser struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
}

type seedTask struct {
	ID          string     `yaml:"id"`
	Owner       string     `yaml:"owner"`
	Title       string     `yaml:"title"`
	Description string     `yaml:"description"`
	Status      string     `yaml:"status"`
	Priority    string     `yaml:"priority"`
	DueDate     *time.Time `yaml:"due_date"`
}

// NewSeedCmd creates the seed subcommand.
func NewSeedCmd() *cobra.Command {
	cfg := &seedConfig{}

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed the database with users and tasks from a YAML file",
		Long: `Creates users and tasks from a YAML seed file. Entries carry fixed
IDs, so the command is idempotent - it will not create duplicates if
run multiple times.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd, args, cfg)
		},
	}

	cmd.Flags().StringVar(&cfg.file, "file", "seeds.yaml", "path to the seed YAML file")
	cmd.Flags().DurationVar(&cfg.timeout, "timeout", defaultSeedTimeout, "timeout for database operations (e.g., 30s, 1m)")
	cmd.Flags().BoolVar(&cfg.validateOnly, "validate-only", false, "validate the seed file and exit without touching the database")

	return cmd
}

func runSeed(cmd *cobra.Command, _ []string, cfg *seedConfig) error {
	data, err := os.ReadFile(cfg.file)
	if err != nil {
		return oops.Code("SEED_FAILED").With("file", cfg.file).Wrap(err)
	}

	seeds, err := parseSeedFile(data)
	if err != nil {
		return oops.With("file", cfg.file).Wrap(err)
	}

	if cfg.validateOnly {
		cmd.Printf("Seed file valid: %d user(s), %d task(s)\n", len(seeds.Users), len(seeds.Tasks))
		return nil
	}

	databaseURL, err := resolveDatabaseURL()
	if err != nil {
		return err
	}

	// Use cmd.Context() to respect SIGINT/SIGTERM signals
	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.timeout)
	defer cancel()

	cmd.Println("Running migrations...")
	migrator, err := store.NewMigrator(databaseURL)
	if err != nil {
		return oops.Code("MIGRATION_FAILED").With("operation", "create migrator").Wrap(err)
	}
	if upErr := migrator.Up(); upErr != nil {
		_ = migrator.Close() //nolint:errcheck // migration error takes precedence
		return upErr
	}
	if closeErr := migrator.Close(); closeErr != nil {
		slog.Warn("error closing migrator", "error", closeErr)
	}

	cmd.Println("Connecting to database...")
	pool, err := store.Connect(ctx, databaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	users := authpg.NewUserRepository(pool)
	tasks := taskpg.NewTaskRepository(pool)
	hasher := auth.NewArgon2idHasher()

	for _, u := range seeds.Users {
		if err := seedOneUser(ctx, cmd, users, hasher, u); err != nil {
			return err
		}
	}
	for _, t := range seeds.Tasks {
		if err := seedOneTask(ctx, cmd, users, tasks, t); err != nil {
			return err
		}
	}

	cmd.Println("Seeding complete!")
	return nil
}

func seedOneUser(ctx context.Context, cmd *cobra.Command, users auth.UserRepository, hasher auth.PasswordHasher, u seedUser) error {
	id, err := ulid.Parse(u.ID)
	if err != nil {
		return oops.Code("SEED_FAILED").With("user", u.Email).Wrap(err)
	}

	hash, err := hasher.Hash(u.Password)
	if err != nil {
		return oops.Code("SEED_FAILED").With("user", u.Email).Wrap(err)
	}

	err = users.Create(ctx, &auth.User{
		ID:           id,
		Name:         u.Name,
		Email:        u.Email,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		if errors.Is(err, auth.ErrEmailTaken) || isUniqueViolation(err) {
			cmd.Printf("User %s already exists, skipping\n", u.Email)
			return nil
		}
		return oops.Code("SEED_FAILED").With("user", u.Email).Wrap(err)
	}

	cmd.Printf("Created user %s\n", u.Email)
	return nil
}

func seedOneTask(ctx context.Context, cmd *cobra.Command, users auth.UserRepository, tasks task.Repository, t seedTask) error {
	id, err := ulid.Parse(t.ID)
	if err != nil {
		return oops.Code("SEED_FAILED").With("task", t.Title).Wrap(err)
	}

	owner, err := users.GetByEmail(ctx, t.Owner)
	if err != nil {
		return oops.Code("SEED_FAILED").
			With("task", t.Title).
			With("owner", t.Owner).
			Wrap(err)
	}

	status := task.Status(t.Status)
	if t.Status == "" {
		status = task.StatusPending
	}
	priority := task.Priority(t.Priority)
	if t.Priority == "" {
		priority = task.PriorityMedium
	}

	err = tasks.Create(ctx, &task.Task{
		ID:          id,
		OwnerID:     owner.ID,
		Title:       t.Title,
		Description: t.Description,
		Status:      status,
		Priority:    priority,
		DueDate:     t.DueDate,
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		if isUniqueViolation(err) {
			cmd.Printf("Task %q already exists, skipping\n", t.Title)
			return nil
		}
		return oops.Code("SEED_FAILED").With("task", t.Title).Wrap(err)
	}

	cmd.Printf("Created task %q for %s\n", t.Title, t.Owner)
	return nil
}

// isUniqueViolation reports whether err is a PostgreSQL unique constraint
// violation, the expected outcome of re-running a seed with fixed IDs.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

// parseSeedFile validates data against the seed schema and decodes it.
func parseSeedFile(data []byte) (*seedFile, error) {
	if len(data) == 0 {
		return nil, oops.Code("SEED_INVALID").Errorf("seed file is empty")
	}

	// Parse YAML to generic types for schema validation
	var yamlData any
	if err := yaml.Unmarshal(data, &yamlData); err != nil {
		return nil, oops.Code("SEED_INVALID").With("operation", "parse YAML").Wrap(err)
	}

	sch, err := compileSeedSchema()
	if err != nil {
		return nil, err
	}
	if err := sch.Validate(convertToJSONTypes(yamlData)); err != nil {
		return nil, oops.Code("SEED_INVALID").With("operation", "validate schema").Wrap(err)
	}

	var seeds seedFile
	if err := yaml.Unmarshal(data, &seeds); err != nil {
		return nil, oops.Code("SEED_INVALID").With("operation", "decode seed file").Wrap(err)
	}
	return &seeds, nil
}

func compileSeedSchema() (*jschema.Schema, error) {
	var schemaData any
	if err := json.Unmarshal(seedSchemaJSON, &schemaData); err != nil {
		return nil, oops.Code("SEED_SCHEMA_INVALID").With("operation", "parse schema JSON").Wrap(err)
	}

	c := jschema.NewCompiler()
	if err := c.AddResource("seeds.schema.json", schemaData); err != nil {
		return nil, oops.Code("SEED_SCHEMA_INVALID").With("operation", "add schema resource").Wrap(err)
	}
	sch, err := c.Compile("seeds.schema.json")
	if err != nil {
		return nil, oops.Code("SEED_SCHEMA_INVALID").With("operation", "compile schema").Wrap(err)
	}
	return sch, nil
}

// convertToJSONTypes converts YAML-parsed data to JSON-compatible types.
// YAML uses map[string]any which is compatible, but nested structures and
// scalars like timestamps need recursive handling.
func convertToJSONTypes(v any) any {
	switch val := v.(type) {
	case map[string]any:
		result := make(map[string]any, len(val))
		for k, v := range val {
			result[k] = convertToJSONTypes(v)
		}
		return result
	case []any:
		result := make([]any, len(val))
		for i, v := range val {
			result[i] = convertToJSONTypes(v)
		}
		return result
	case string, int, int64, float64, bool, nil:
		return val
	default:
		// For other types, try to convert via JSON round-trip
		if b, err := json.Marshal(val); err == nil {
			var result any
			if err := json.Unmarshal(b, &result); err == nil {
				return result
			}
		}
		return val
	}
}
