package postgres

import (
	"database/sql"
)

// UserRepo implements repository.UserRepository
type UserRepo struct {
	db *sql.DB
}

// NewUserRepo creates a new user repository
func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

// EnsureUser creates user if not exists
func (r *UserRepo) EnsureUser(userID int64) error {
	query := `
		INSERT INTO users (user_id)
		VALUES ($1)
		ON CONFLICT (user_id) DO NOTHING
	`
	_, err := r.db.Exec(query, userID)
	return err
}

// SetLanguage stores the user's preferred language
func (r *UserRepo) SetLanguage(userID int64, lang string) error {
	query := `
		INSERT INTO users (user_id, language)
		VALUES ($1, $2)
		ON CONFLICT (user_id)
		DO UPDATE SET language = $2
	`
	_, err := r.db.Exec(query, userID, lang)
	return err
}

// Language returns the user's preferred language, defaulting to English
func (r *UserRepo) Language(userID int64) (string, error) {
	var lang string
	query := `SELECT language FROM users WHERE user_id = $1`
	err := r.db.QueryRow(query, userID).Scan(&lang)

	if err == sql.ErrNoRows {
		// User doesn't exist yet
		return "en", nil
	}
	if err != nil {
		return "", err
	}

	return lang, nil
}
