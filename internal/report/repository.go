package report

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"intel-server/internal/planet"
	"intel-server/internal/shared/database"
	"intel-server/internal/shared/errors"

	"github.com/lib/pq"
)

type Repository struct {
	db     *database.DB
	logger *slog.Logger
}

func NewRepository(db *database.DB, logger *slog.Logger) *Repository {
	logger.Debug("Initializing report repository")

	return &Repository{
		db:     db,
		logger: logger,
	}
}

func (r *Repository) getExecutor(tx *database.Tx) database.Executor {
	if tx != nil {
		return tx
	}
	return r.db
}

const reportColumns = "token, player_id, source_kind, created_at, galaxy, system, position, from_moon, metal, crystal, deuterium"

func scanReport(scan func(dest ...interface{}) error) (*Report, error) {
	var report Report
	var galaxy, system, position sql.NullInt64
	var metal, crystal, deuterium sql.NullInt64
	var source string

	err := scan(
		&report.Token,
		&report.PlayerID,
		&source,
		&report.CreatedAt,
		&galaxy,
		&system,
		&position,
		&report.FromMoon,
		&metal,
		&crystal,
		&deuterium,
	)
	if err != nil {
		return nil, err
	}

	report.Source = SourceKind(source)
	if galaxy.Valid && system.Valid && position.Valid {
		report.Coords = &planet.Coords{
			Galaxy:   int(galaxy.Int64),
			System:   int(system.Int64),
			Position: int(position.Int64),
		}
	}
	if metal.Valid {
		report.Resources = &Resources{
			Metal:     metal.Int64,
			Crystal:   crystal.Int64,
			Deuterium: deuterium.Int64,
		}
	}
	return &report, nil
}

func (r *Repository) GetByToken(ctx context.Context, token string, tx *database.Tx) (*Report, error) {
	exec := r.getExecutor(tx)

	logger := r.logger.With(
		"component", "report_repository",
		"operation", "get_by_token",
		"token", token,
	)
	logger.Debug("Getting report by token")

	query := `SELECT ` + reportColumns + ` FROM reports WHERE token = $1`

	report, err := scanReport(exec.QueryRowContext(ctx, query, token).Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			logger.Debug("No report with token")
			return nil, errors.NotFoundf("report %q not found", token)
		}
		logger.Error("Database error getting report", "error", err)
		return nil, fmt.Errorf("database error: %w", err)
	}

	if err := r.loadLineItems(ctx, exec, map[string]*Report{report.Token: report}); err != nil {
		logger.Error("Failed to load report line items", "error", err)
		return nil, err
	}

	return report, nil
}

// ListByPlayer returns all reports of a player with their line items loaded,
// oldest first. A non-nil source restricts the result to one source kind.
func (r *Repository) ListByPlayer(ctx context.Context, playerID int, source *SourceKind, tx *database.Tx) ([]Report, error) {
	exec := r.getExecutor(tx)

	logger := r.logger.With(
		"component", "report_repository",
		"operation", "list_by_player",
		"player_id", playerID,
	)
	logger.Debug("Listing reports for player")

	query := `SELECT ` + reportColumns + ` FROM reports WHERE player_id = $1`
	args := []interface{}{playerID}
	if source != nil {
		query += ` AND source_kind = $2`
		args = append(args, string(*source))
	}
	query += ` ORDER BY created_at, token`

	rows, err := exec.QueryContext(ctx, query, args...)
	if err != nil {
		logger.Error("Failed to query reports", "error", err)
		return nil, fmt.Errorf("failed to query reports: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logger.Error("Failed to close rows", "error", err)
		}
	}()

	var reports []Report
	byToken := make(map[string]*Report)
	for rows.Next() {
		report, err := scanReport(rows.Scan)
		if err != nil {
			logger.Error("Failed to scan report row", "error", err)
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		reports = append(reports, *report)
	}

	if err := rows.Err(); err != nil {
		logger.Error("Error during rows iteration", "error", err)
		return nil, fmt.Errorf("error iterating reports: %w", err)
	}

	for i := range reports {
		byToken[reports[i].Token] = &reports[i]
	}
	if err := r.loadLineItems(ctx, exec, byToken); err != nil {
		logger.Error("Failed to load report line items", "error", err)
		return nil, err
	}

	logger.Debug("Reports retrieved", "count", len(reports))
	return reports, nil
}

// loadLineItems fills ship and technology line items for the given reports in
// two queries instead of one pair per report.
func (r *Repository) loadLineItems(ctx context.Context, exec database.Executor, byToken map[string]*Report) error {
	if len(byToken) == 0 {
		return nil
	}

	tokens := make([]string, 0, len(byToken))
	for token := range byToken {
		tokens = append(tokens, token)
	}

	shipQuery := `
		SELECT report_token, ship_type, count
		FROM report_ships
		WHERE report_token = ANY($1)
		ORDER BY report_token, ship_type
	`
	shipRows, err := exec.QueryContext(ctx, shipQuery, pq.Array(tokens))
	if err != nil {
		return fmt.Errorf("failed to query ship line items: %w", err)
	}
	defer shipRows.Close()

	for shipRows.Next() {
		var token string
		var ship ShipCount
		if err := shipRows.Scan(&token, &ship.ShipType, &ship.Count); err != nil {
			return fmt.Errorf("failed to scan ship line item: %w", err)
		}
		if report, ok := byToken[token]; ok {
			report.Ships = append(report.Ships, ship)
		}
	}
	if err := shipRows.Err(); err != nil {
		return fmt.Errorf("error iterating ship line items: %w", err)
	}

	techQuery := `
		SELECT report_token, tech_type, level
		FROM report_techs
		WHERE report_token = ANY($1)
		ORDER BY report_token, tech_type
	`
	techRows, err := exec.QueryContext(ctx, techQuery, pq.Array(tokens))
	if err != nil {
		return fmt.Errorf("failed to query tech line items: %w", err)
	}
	defer techRows.Close()

	for techRows.Next() {
		var token string
		var tech TechLevel
		if err := techRows.Scan(&token, &tech.TechType, &tech.Level); err != nil {
			return fmt.Errorf("failed to scan tech line item: %w", err)
		}
		if report, ok := byToken[token]; ok {
			report.Techs = append(report.Techs, tech)
		}
	}
	if err := techRows.Err(); err != nil {
		return fmt.Errorf("error iterating tech line items: %w", err)
	}

	return nil
}

// Insert stores the report row together with all line items and the resource
// snapshot. Callers provide the transaction that makes the write atomic.
func (r *Repository) Insert(ctx context.Context, report *Report, tx *database.Tx) error {
	exec := r.getExecutor(tx)

	logger := r.logger.With(
		"component", "report_repository",
		"operation", "insert",
		"token", report.Token,
		"player_id", report.PlayerID,
		"source", report.Source,
	)
	logger.Debug("Inserting report")

	var galaxy, system, position interface{}
	if report.Coords != nil {
		galaxy = report.Coords.Galaxy
		system = report.Coords.System
		position = report.Coords.Position
	}
	var metal, crystal, deuterium interface{}
	if report.Resources != nil {
		metal = report.Resources.Metal
		crystal = report.Resources.Crystal
		deuterium = report.Resources.Deuterium
	}

	query := `
		INSERT INTO reports (token, player_id, source_kind, created_at, galaxy, system, position, from_moon, metal, crystal, deuterium)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := exec.ExecContext(ctx, query,
		report.Token,
		report.PlayerID,
		string(report.Source),
		report.CreatedAt,
		galaxy,
		system,
		position,
		report.FromMoon,
		metal,
		crystal,
		deuterium,
	)
	if err != nil {
		logger.Error("Failed to insert report", "error", err)
		return fmt.Errorf("failed to insert report: %w", err)
	}

	for _, ship := range report.Ships {
		_, err := exec.ExecContext(ctx,
			`INSERT INTO report_ships (report_token, ship_type, count) VALUES ($1, $2, $3)`,
			report.Token, ship.ShipType, ship.Count,
		)
		if err != nil {
			logger.Error("Failed to insert ship line item", "error", err, "ship_type", ship.ShipType)
			return fmt.Errorf("failed to insert ship line item: %w", err)
		}
	}

	for _, tech := range report.Techs {
		_, err := exec.ExecContext(ctx,
			`INSERT INTO report_techs (report_token, tech_type, level) VALUES ($1, $2, $3)`,
			report.Token, tech.TechType, tech.Level,
		)
		if err != nil {
			logger.Error("Failed to insert tech line item", "error", err, "tech_type", tech.TechType)
			return fmt.Errorf("failed to insert tech line item: %w", err)
		}
	}

	logger.Debug("Report inserted", "ships", len(report.Ships), "techs", len(report.Techs))
	return nil
}

// Delete removes a report; line items cascade with the parent row.
func (r *Repository) Delete(ctx context.Context, token string, tx *database.Tx) error {
	exec := r.getExecutor(tx)

	logger := r.logger.With(
		"component", "report_repository",
		"operation", "delete",
		"token", token,
	)
	logger.Debug("Deleting report")

	result, err := exec.ExecContext(ctx, `DELETE FROM reports WHERE token = $1`, token)
	if err != nil {
		logger.Error("Failed to delete report", "error", err)
		return fmt.Errorf("failed to delete report: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result: %w", err)
	}
	if affected == 0 {
		logger.Debug("No report with token")
		return errors.NotFoundf("report %q not found", token)
	}

	logger.Info("Report deleted")
	return nil
}

// PlayerNameByToken resolves the display name of the player a report belongs to.
func (r *Repository) PlayerNameByToken(ctx context.Context, token string) (string, error) {
	logger := r.logger.With(
		"component", "report_repository",
		"operation", "player_name_by_token",
		"token", token,
	)
	logger.Debug("Resolving player name by report token")

	query := `
		SELECT p.name
		FROM reports r
		JOIN players p ON p.id = r.player_id
		WHERE r.token = $1
	`

	var name string
	err := r.db.QueryRowContext(ctx, query, token).Scan(&name)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", errors.NotFoundf("report %q not found", token)
		}
		logger.Error("Database error resolving player name", "error", err)
		return "", fmt.Errorf("database error: %w", err)
	}

	return name, nil
}
