package postgres

import (
	"database/sql"
	"fmt"

	"relaybot/internal/domain"
)

// RuleRepo implements repository.RuleRepository
type RuleRepo struct {
	db *sql.DB
}

// NewRuleRepo creates a new rule repository
func NewRuleRepo(db *sql.DB) *RuleRepo {
	return &RuleRepo{db: db}
}

// ListAll returns every user's rules in position order
func (r *RuleRepo) ListAll() (map[int64][]domain.ForwardingRule, error) {
	query := `
		SELECT user_id, source_id, source_name, destination_id, destination_name, active, created_at
		FROM forwarding_rules
		ORDER BY user_id, position
	`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list rules: %w", err)
	}
	defer rows.Close()

	rules := make(map[int64][]domain.ForwardingRule)
	for rows.Next() {
		var userID int64
		var rule domain.ForwardingRule
		if err := rows.Scan(
			&userID,
			&rule.SourceID,
			&rule.SourceName,
			&rule.DestinationID,
			&rule.DestinationName,
			&rule.Active,
			&rule.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan rule: %w", err)
		}
		rules[userID] = append(rules[userID], rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read rules: %w", err)
	}

	return rules, nil
}

// ReplaceAll rewrites one user's rule list in a single transaction,
// positions following slice order.
func (r *RuleRepo) ReplaceAll(userID int64, rules []domain.ForwardingRule) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM forwarding_rules WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to clear rules: %w", err)
	}

	query := `
		INSERT INTO forwarding_rules (user_id, position, source_id, source_name, destination_id, destination_name, active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	for i, rule := range rules {
		if _, err := tx.Exec(query,
			userID,
			i,
			rule.SourceID,
			rule.SourceName,
			rule.DestinationID,
			rule.DestinationName,
			rule.Active,
			rule.CreatedAt,
		); err != nil {
			return fmt.Errorf("failed to insert rule %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit rules: %w", err)
	}
	return nil
}
