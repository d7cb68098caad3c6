package credentials

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Well-known secret names. Values are resolved per pipeline run so rotated
// credentials take effect without a restart.
const (
	KeyGemini       = "gemini_api_key"
	KeyOpenAI       = "openai_api_key"
	KeyQwen         = "qwen_api_key"
	KeyUploadAPIKey = "upload_api_key"
	KeyUploadSecret = "upload_api_secret"
)

// Source resolves a named secret at call time. Implementations must not
// cache values across calls.
type Source interface {
	Secret(ctx context.Context, name string) (string, error)
}

// Env resolves secrets from environment variables, mapping a secret name to
// its upper-cased counterpart (gemini_api_key -> GEMINI_API_KEY).
type Env struct{}

func (Env) Secret(_ context.Context, name string) (string, error) {
	return strings.TrimSpace(os.Getenv(strings.ToUpper(strings.TrimSpace(name)))), nil
}

const (
	qSelectSecret = `
SELECT value FROM integration_secrets WHERE name = $1;
`
	qUpsertSecret = `
INSERT INTO integration_secrets (name, value, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (name) DO UPDATE SET value = EXCLUDED.value, updated_at = now();
`
)

// Store resolves secrets from the integration_secrets table, falling back to
// the process environment when the table has no row for the name.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) Secret(ctx context.Context, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.New("credentials: secret name is required")
	}
	if s == nil || s.pool == nil {
		return Env{}.Secret(ctx, name)
	}
	row := s.pool.QueryRow(ctx, qSelectSecret, name)
	var value string
	if err := row.Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Env{}.Secret(ctx, name)
		}
		return "", err
	}
	return strings.TrimSpace(value), nil
}

// SetSecret stores or replaces a named secret.
func (s *Store) SetSecret(ctx context.Context, name, value string) error {
	name = strings.TrimSpace(name)
	value = strings.TrimSpace(value)
	if name == "" || value == "" {
		return errors.New("credentials: name and value are required")
	}
	_, err := s.pool.Exec(ctx, qUpsertSecret, name, value)
	return err
}

// Static is a fixed in-memory source for tests.
type Static map[string]string

func (s Static) Secret(_ context.Context, name string) (string, error) {
	return s[name], nil
}
